package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/iron-browse/internal/app"
)

// pump runs cmd and every command that follows from it, feeding messages
// back into the model the way the program loop would
func pump(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 1000, "command chain did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, progress.FrameMsg, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, follow := m.Update(msg)
			queue = append(queue, follow)
		}
	}
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m *Model, k string) {
	t.Helper()
	_, cmd := m.Update(key(k))
	pump(t, m, cmd)
}

func newTestModel(t *testing.T, downloadDir string) (*Model, *memHandle) {
	t.Helper()
	account := newMemAccount()
	h := account.add("alpha", map[string]string{
		"a.txt":          "abc",
		"docs/":          "",
		"docs/readme.md": "# Title\n",
		"docs/img/x.png": "\x89PNG\x00\x00",
	})
	account.add("beta", map[string]string{})

	m := New(app.New(app.Options{DownloadDir: downloadDir}), newTestRunner(account))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	pump(t, m, tea.Batch(m.runner.Commands(m.state.Init())...))
	return m, h
}

func TestModel_SelectingView(t *testing.T) {
	m, _ := newTestModel(t, t.TempDir())

	require.IsType(t, &app.Selecting{}, m.State().Session())
	view := m.View()
	assert.Contains(t, view, "Containers")
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "beta")
}

func TestModel_BrowseRootShowsRootLabel(t *testing.T) {
	m, _ := newTestModel(t, t.TempDir())

	press(t, m, "enter")

	require.IsType(t, &app.Browsing{}, m.State().Session())
	view := m.View()
	assert.Contains(t, view, RootLabel)
	assert.Contains(t, view, "docs/")
	assert.Contains(t, view, "a.txt")

	press(t, m, "enter")
	assert.Equal(t, "docs/", m.State().Session().(*app.Browsing).Path)
	assert.Contains(t, m.View(), "/ docs")
}

func TestModel_DownloadFolderEndToEnd(t *testing.T) {
	dest := t.TempDir()
	m, _ := newTestModel(t, dest)
	press(t, m, "enter")

	press(t, m, "d")
	require.IsType(t, app.DownloadPicker{}, m.State().Modal())
	assert.Contains(t, m.View(), "Download docs")

	press(t, m, "enter")

	assert.IsType(t, app.Idle{}, m.State().Operation())
	assert.Contains(t, m.State().Status().Text, "Downloaded 2 file(s)")
	assert.Equal(t, 0, m.runner.Pending())

	data, err := os.ReadFile(filepath.Join(dest, "docs", "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", string(data))
	_, err = os.Stat(filepath.Join(dest, "docs", "img", "x.png"))
	assert.NoError(t, err)
}

func TestModel_DeleteRefreshesListing(t *testing.T) {
	m, h := newTestModel(t, t.TempDir())
	press(t, m, "enter")
	press(t, m, "j")

	press(t, m, "x")
	assert.Contains(t, m.View(), "Type a.txt to confirm")
	for _, r := range "a.txt" {
		press(t, m, string(r))
	}
	press(t, m, "enter")

	assert.IsType(t, app.Idle{}, m.State().Operation())
	b := m.State().Session().(*app.Browsing)
	require.Len(t, b.Entries, 1)
	assert.Equal(t, "docs", b.Entries[0].Name())
	_, err := h.get("a.txt")
	assert.Error(t, err)
}

func TestModel_PreviewPane(t *testing.T) {
	m, _ := newTestModel(t, t.TempDir())
	press(t, m, "enter")
	press(t, m, "j")

	press(t, m, "p")

	p := m.State().Preview()
	require.True(t, p.Visible)
	require.NotNil(t, p.Doc)
	assert.Equal(t, []string{"abc"}, p.Doc.Lines)
	assert.Contains(t, m.viewport.View(), "abc")
}

func TestModel_InfoModal(t *testing.T) {
	m, _ := newTestModel(t, t.TempDir())
	press(t, m, "enter")

	press(t, m, "i")
	view := m.View()
	assert.Contains(t, view, "Prefix")
	assert.Contains(t, view, "docs/")

	press(t, m, "esc")
	press(t, m, "j")
	press(t, m, "i")
	assert.Contains(t, m.View(), "text/plain")
}
