// Package app holds the browser state machine. AppState composes the
// session, the open modal, the running operation and the search; every
// input and every background result goes through HandleEvent, which returns
// the effects the runtime must carry out.
package app

import (
	"github.com/damacus/iron-browse/internal/hierarchy"
	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/preview"
	"github.com/damacus/iron-browse/internal/search"
)

// Status is the one-line message under the listing
type Status struct {
	Text    string
	IsError bool
}

// PreviewPane is the side pane showing the highlighted file. Token ties a
// result to the request that produced it.
type PreviewPane struct {
	Visible bool
	Token   uint64
	Key     string
	Loading bool
	Doc     *preview.Document
	Err     error
}

type Options struct {
	// DownloadDir is the default destination of the download picker
	DownloadDir string
	Keys        *KeyMap
}

type AppState struct {
	session Session
	modal   Modal
	op      Operation
	search  search.State
	sortBy  hierarchy.Criterion

	status   Status
	preview  PreviewPane
	showHelp bool
	quitting bool

	nextID      uint64
	downloadDir string
	keys        KeyMap
}

func New(opts Options) *AppState {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	return &AppState{
		session:     &Selecting{},
		modal:       NoModal{},
		op:          Idle{},
		search:      search.Inactive{},
		sortBy:      hierarchy.ByName,
		downloadDir: opts.DownloadDir,
		keys:        keys,
	}
}

// Init starts the first container listing
func (a *AppState) Init() []Effect {
	id := a.newID()
	a.op = Loading{ID: id, Label: "Loading containers"}
	return []Effect{LoadContainers{Op: id}}
}

func (a *AppState) newID() uint64 {
	a.nextID++
	return a.nextID
}

func (a *AppState) Session() Session {
	return a.session
}

func (a *AppState) Modal() Modal {
	return a.modal
}

func (a *AppState) Operation() Operation {
	return a.op
}

func (a *AppState) Search() search.State {
	return a.search
}

func (a *AppState) SortBy() hierarchy.Criterion {
	return a.sortBy
}

func (a *AppState) Status() Status {
	return a.status
}

func (a *AppState) Preview() PreviewPane {
	return a.preview
}

func (a *AppState) ShowHelp() bool {
	return a.showHelp
}

func (a *AppState) Quitting() bool {
	return a.quitting
}

func (a *AppState) Keys() KeyMap {
	return a.keys
}

func (a *AppState) DownloadDir() string {
	return a.downloadDir
}

func (a *AppState) Busy() bool {
	_, idle := a.op.(Idle)
	return !idle
}

func (a *AppState) searching() bool {
	_, inactive := a.search.(search.Inactive)
	return !inactive
}

// VisibleContainers is the container list as filtered by the search. It is
// empty while browsing.
func (a *AppState) VisibleContainers() []models.ContainerInfo {
	s, ok := a.session.(*Selecting)
	if !ok {
		return nil
	}
	return search.Filter(s.Containers, func(c models.ContainerInfo) string { return c.Name }, a.search)
}

// VisibleEntries is the current level as filtered by the search. It is
// empty while selecting.
func (a *AppState) VisibleEntries() []models.Entry {
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	return search.Filter(b.Entries, models.Entry.Name, a.search)
}

// Cursor is the highlighted row of the visible list
func (a *AppState) Cursor() int {
	if a.searching() {
		return search.Cursor(a.search)
	}
	switch s := a.session.(type) {
	case *Selecting:
		return s.Selected
	case *Browsing:
		return s.Selected
	}
	return 0
}

// visibleLen is the length of the list the cursor moves over
func (a *AppState) visibleLen() int {
	switch a.session.(type) {
	case *Selecting:
		return len(a.VisibleContainers())
	case *Browsing:
		return len(a.VisibleEntries())
	}
	return 0
}

// selectedEntry is the highlighted entry of the visible list
func (a *AppState) selectedEntry() (models.Entry, bool) {
	entries := a.VisibleEntries()
	i := a.Cursor()
	if i < 0 || i >= len(entries) {
		return nil, false
	}
	return entries[i], true
}

func (a *AppState) setStatus(text string) {
	a.status = Status{Text: text}
}

func (a *AppState) setError(err error) {
	a.status = Status{Text: err.Error(), IsError: true}
}
