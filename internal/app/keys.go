package app

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the browser reacts to
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Open     key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Search   key.Binding
	Sort     key.Binding
	Info     key.Binding
	Download key.Binding
	Clone    key.Binding
	Delete   key.Binding
	Copy     key.Binding
	Preview  key.Binding
	Help     key.Binding
	Quit     key.Binding

	Confirm key.Binding
	Cancel  key.Binding

	SortName     key.Binding
	SortModified key.Binding
	SortSize     key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to start"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to end"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter/l", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("h", "left", "backspace", "esc"),
			key.WithHelp("h/esc", "go up"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/f5", "refresh"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Info: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "info"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Clone: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clone"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		SortName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "name"),
		),
		SortModified: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "modified"),
		),
		SortSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "size"),
		),
	}
}

// bindings is a help.KeyMap built for one screen
type bindings struct {
	short []key.Binding
	full  [][]key.Binding
}

func (b bindings) ShortHelp() []key.Binding  { return b.short }
func (b bindings) FullHelp() [][]key.Binding { return b.full }

// HelpKeys returns the bindings that apply to the current state
func (a *AppState) HelpKeys() help.KeyMap {
	k := a.keys

	switch a.modal.(type) {
	case SortPicker:
		return bindings{short: []key.Binding{k.Up, k.Down, k.SortName, k.SortModified, k.SortSize, k.Confirm, k.Cancel}}
	case BlobInfo:
		return bindings{short: []key.Binding{k.Cancel}}
	case DownloadPicker, Clone, DeleteConfirm:
		return bindings{short: []key.Binding{k.Confirm, k.Cancel}}
	}

	if batch, ok := batchOf(a.op); ok {
		if batch.Done {
			return bindings{short: []key.Binding{k.Confirm}}
		}
		return bindings{short: []key.Binding{k.Cancel}}
	}
	if _, ok := a.op.(Loading); ok {
		return bindings{short: []key.Binding{k.Cancel}}
	}

	if a.searching() {
		return bindings{short: []key.Binding{k.Up, k.Down, k.Confirm, k.Cancel}}
	}

	nav := []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End}
	switch a.session.(type) {
	case *Browsing:
		return bindings{
			short: []key.Binding{k.Open, k.Back, k.Search, k.Download, k.Preview, k.Help, k.Quit},
			full: [][]key.Binding{
				nav,
				{k.Open, k.Back, k.Refresh, k.Search, k.Sort},
				{k.Info, k.Download, k.Clone, k.Delete, k.Copy, k.Preview},
				{k.Help, k.Quit},
			},
		}
	default:
		return bindings{
			short: []key.Binding{k.Open, k.Refresh, k.Search, k.Help, k.Quit},
			full: [][]key.Binding{
				nav,
				{k.Open, k.Refresh, k.Search},
				{k.Help, k.Quit},
			},
		}
	}
}
