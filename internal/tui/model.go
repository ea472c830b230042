// Package tui runs the browser as a bubbletea program. The model owns the
// AppState and is its only writer; background work comes back as messages.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/damacus/iron-browse/internal/app"
	"github.com/damacus/iron-browse/internal/preview"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	// previewShare is the part of the width given to the preview pane
	previewShare = 0.45
)

// previewKey identifies what the viewport currently shows
type previewKey struct {
	token   uint64
	loading bool
	hasDoc  bool
	hasErr  bool
	width   int
}

type Model struct {
	state    *app.AppState
	runner   *Runner
	markdown *preview.Markdown

	help     help.Model
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model

	width    int
	height   int
	rendered previewKey
}

func New(state *app.AppState, runner *Runner) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(warning)

	h := help.New()
	h.ShowAll = false

	m := &Model{
		state:    state,
		runner:   runner,
		markdown: preview.NewMarkdown(),
		help:     h,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		viewport: viewport.New(0, 0),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// State exposes the model's AppState for rendering and tests
func (m *Model) State() *app.AppState {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	cmds := m.runner.Commands(m.state.Init())
	cmds = append(cmds, m.spinner.Tick)
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case transferMsg:
		effects := m.state.HandleEvent(app.TransferProgress{Op: msg.op, Event: msg.event})
		cmds = append(cmds, m.runner.Commands(effects)...)
		cmds = append(cmds, m.runner.listen(msg.op, msg.events), m.syncProgress())

	case tea.KeyMsg:
		if m.scrollPreview(msg) {
			return m, nil
		}
		cmds = append(cmds, m.runner.Commands(m.state.HandleEvent(msg))...)
		cmds = append(cmds, m.syncProgress())

	default:
		cmds = append(cmds, m.runner.Commands(m.state.HandleEvent(msg))...)
	}

	m.syncPreview()
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.progress.Width = min(60, max(width-30, 10))
	m.viewport.Width = m.previewWidth()
	m.viewport.Height = max(m.listHeight(), 1)
}

func (m *Model) previewWidth() int {
	return max(int(float64(m.width)*previewShare)-2, 10)
}

// scrollPreview moves the preview pane; the listing keeps its cursor
func (m *Model) scrollPreview(msg tea.KeyMsg) bool {
	if !m.state.Preview().Visible {
		return false
	}
	switch msg.String() {
	case "shift+down":
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
		return true
	case "shift+up":
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
		return true
	}
	return false
}

// syncProgress animates the progress bar toward the running batch
func (m *Model) syncProgress() tea.Cmd {
	switch op := m.state.Operation().(type) {
	case app.Downloading:
		p := op.Progress
		if p.BytesTotal > 0 {
			return m.progress.SetPercent(float64(p.BytesCompleted) / float64(p.BytesTotal))
		}
		return m.progress.SetPercent(fileFraction(p.BatchProgress))
	case app.Cloning:
		return m.progress.SetPercent(fileFraction(op.Progress.BatchProgress))
	case app.Deleting:
		return m.progress.SetPercent(fileFraction(op.Progress.BatchProgress))
	}
	return nil
}

func fileFraction(p app.BatchProgress) float64 {
	if p.FilesTotal == 0 {
		return 0
	}
	return float64(p.FilesCompleted+len(p.Errors)) / float64(p.FilesTotal)
}

// syncPreview re-renders the preview pane when its document changed
func (m *Model) syncPreview() {
	p := m.state.Preview()
	if !p.Visible {
		m.rendered = previewKey{}
		return
	}
	key := previewKey{
		token:   p.Token,
		loading: p.Loading,
		hasDoc:  p.Doc != nil,
		hasErr:  p.Err != nil,
		width:   m.viewport.Width,
	}
	if key == m.rendered {
		return
	}
	m.rendered = key
	m.viewport.SetContent(m.renderPreview(p, m.viewport.Width))
	m.viewport.GotoTop()
}
