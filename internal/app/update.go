package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/damacus/iron-browse/internal/hierarchy"
	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/search"
	"github.com/damacus/iron-browse/internal/services"
	"github.com/damacus/iron-browse/internal/transfer"
	"github.com/damacus/iron-browse/internal/utils"
)

const pageStep = 10

var errSamePath = errors.New("choose a path that differs from the original")

// HandleEvent applies one key press or background result. The outcome
// depends only on the state and msg; outside work comes back as effects.
func (a *AppState) HandleEvent(msg tea.Msg) []Effect {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(m)
	case ContainersLoaded:
		return a.containersLoaded(m)
	case ContainerOpened:
		return a.containerOpened(m)
	case LevelListed:
		return a.levelListed(m)
	case MetadataLoaded:
		return a.metadataLoaded(m)
	case TransferProgress:
		return a.transferProgress(m)
	case PreviewLoaded:
		a.previewLoaded(m)
	case ClipboardCopied:
		if m.Err != nil {
			a.setError(fmt.Errorf("copy to clipboard: %w", m.Err))
		} else {
			a.setStatus("Copied " + m.Text)
		}
	}
	return nil
}

// owns reports whether a result belongs to the running operation. Results
// of cancelled or replaced operations are dropped.
func (a *AppState) owns(op uint64) bool {
	return op != 0 && op == a.op.opID()
}

func (a *AppState) handleKey(msg tea.KeyMsg) []Effect {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}
	if _, none := a.modal.(NoModal); !none {
		return a.handleModalKey(msg)
	}
	if a.Busy() {
		return a.handleBusyKey(msg)
	}
	if a.searching() {
		return a.handleSearchKey(msg)
	}
	switch s := a.session.(type) {
	case *Selecting:
		return a.handleSelectingKey(s, msg)
	case *Browsing:
		return a.handleBrowsingKey(s, msg)
	}
	return nil
}

func (a *AppState) quit() []Effect {
	a.quitting = true
	var effects []Effect
	if a.Busy() {
		effects = append(effects, CancelOperation{Op: a.op.opID()})
	}
	return append(effects, Quit{})
}

func (a *AppState) handleSelectingKey(s *Selecting, msg tea.KeyMsg) []Effect {
	if a.navigate(msg) {
		return nil
	}
	switch {
	case key.Matches(msg, a.keys.Quit), msg.Type == tea.KeyEsc:
		return a.quit()
	case key.Matches(msg, a.keys.Open):
		id := a.newID()
		eff, ok := s.selectContainer(id, s.Selected)
		if !ok {
			return nil
		}
		a.op = Loading{ID: id, Label: "Opening " + s.Containers[s.Selected].Name}
		return []Effect{eff}
	case key.Matches(msg, a.keys.Refresh):
		id := a.newID()
		a.op = Loading{ID: id, Label: "Loading containers"}
		return []Effect{s.refresh(id)}
	case key.Matches(msg, a.keys.Search):
		a.search = search.Containers{}
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
	}
	return nil
}

func (a *AppState) handleBrowsingKey(b *Browsing, msg tea.KeyMsg) []Effect {
	if a.navigate(msg) {
		return a.previewFollow()
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.Back):
		id := a.newID()
		sel, eff := b.goUp(id)
		if sel != nil {
			a.leaveBrowsing(sel)
			a.status = Status{}
		}
		if eff == nil {
			return nil
		}
		a.op = Loading{ID: id, Label: "Loading"}
		return []Effect{eff}
	case key.Matches(msg, a.keys.Refresh):
		return a.refreshLevel()
	case key.Matches(msg, a.keys.Search):
		a.search = search.Files{}
		return nil
	case key.Matches(msg, a.keys.Sort):
		a.openModal(SortPicker{Current: a.sortBy})
		return nil
	case key.Matches(msg, a.keys.Preview):
		if a.preview.Visible {
			a.preview = PreviewPane{}
			return nil
		}
		a.preview = PreviewPane{Visible: true}
		return a.previewFollow()
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return nil
	}

	entry, ok := a.selectedEntry()
	if !ok {
		return nil
	}
	switch {
	case key.Matches(msg, a.keys.Open):
		if folder, isFolder := entry.(models.Folder); isFolder {
			id := a.newID()
			a.op = Loading{ID: id, Label: "Opening " + folder.Name()}
			return []Effect{b.enterFolder(id, folder)}
		}
		return a.showInfo(b, entry)
	case key.Matches(msg, a.keys.Info):
		return a.showInfo(b, entry)
	case key.Matches(msg, a.keys.Download):
		a.openModal(DownloadPicker{Target: entry, Default: a.downloadDir})
	case key.Matches(msg, a.keys.Clone):
		a.openModal(newClone(entry))
	case key.Matches(msg, a.keys.Delete):
		a.openModal(newDeleteConfirm(entry))
	case key.Matches(msg, a.keys.Copy):
		return []Effect{CopyToClipboard{Text: b.fullPath(entry)}}
	}
	return nil
}

// showInfo opens BlobInfo. A folder carries its stats already; a file is
// fetched first.
func (a *AppState) showInfo(b *Browsing, entry models.Entry) []Effect {
	switch e := entry.(type) {
	case models.Folder:
		a.openModal(BlobInfo{Entry: e})
	case models.File:
		id := a.newID()
		a.op = Loading{ID: id, Label: "Fetching metadata of " + e.Name()}
		return []Effect{b.fetchMetadata(id, e)}
	}
	return nil
}

func (a *AppState) leaveBrowsing(sel *Selecting) {
	a.session = sel
	a.search = search.Inactive{}
	a.preview = PreviewPane{}
	a.closeModal()
}

func (a *AppState) refreshLevel() []Effect {
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	id := a.newID()
	a.op = Loading{ID: id, Label: "Refreshing"}
	return []Effect{b.refresh(id)}
}

// navigate moves the cursor for a navigation key and reports whether msg
// was one
func (a *AppState) navigate(msg tea.KeyMsg) bool {
	n := a.visibleLen()
	cur := a.Cursor()
	switch {
	case key.Matches(msg, a.keys.Up):
		cur--
	case key.Matches(msg, a.keys.Down):
		cur++
	case key.Matches(msg, a.keys.PageUp):
		cur -= pageStep
	case key.Matches(msg, a.keys.PageDown):
		cur += pageStep
	case key.Matches(msg, a.keys.Home):
		cur = 0
	case key.Matches(msg, a.keys.End):
		cur = n - 1
	default:
		return false
	}
	a.setCursor(min(max(cur, 0), max(n-1, 0)))
	return true
}

func (a *AppState) setCursor(i int) {
	if a.searching() {
		a.search = search.WithCursor(a.search, i)
		return
	}
	switch s := a.session.(type) {
	case *Selecting:
		s.Selected = i
	case *Browsing:
		s.Selected = i
	}
}

func (a *AppState) authoritativeNames() []string {
	var names []string
	switch s := a.session.(type) {
	case *Selecting:
		for _, c := range s.Containers {
			names = append(names, c.Name)
		}
	case *Browsing:
		for _, e := range s.Entries {
			names = append(names, e.Name())
		}
	}
	return names
}

// handleSearchKey edits the query. Enter keeps the highlighted match as the
// selection; Esc leaves the selection where it was before the search.
func (a *AppState) handleSearchKey(msg tea.KeyMsg) []Effect {
	switch msg.Type {
	case tea.KeyEsc:
		a.search = search.Inactive{}
		return a.previewFollow()
	case tea.KeyEnter:
		indices := search.Indices(a.authoritativeNames(), a.search)
		cur := search.Cursor(a.search)
		a.search = search.Inactive{}
		if cur >= 0 && cur < len(indices) {
			a.setCursor(indices[cur])
		}
		return a.previewFollow()
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		a.navigate(msg)
		return a.previewFollow()
	}

	query, _ := search.Query(a.search)
	if edited, ok := editText(query, msg); ok {
		a.search = search.WithQuery(a.search, edited)
		return a.previewFollow()
	}
	return nil
}

// editText applies a typing key to input and reports whether msg was one
func editText(input string, msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return input + string(msg.Runes), true
	case tea.KeySpace:
		return input + " ", true
	case tea.KeyBackspace:
		r := []rune(input)
		if len(r) == 0 {
			return input, true
		}
		return string(r[:len(r)-1]), true
	case tea.KeyCtrlU:
		return "", true
	}
	return input, false
}

func (a *AppState) handleModalKey(msg tea.KeyMsg) []Effect {
	switch m := a.modal.(type) {
	case BlobInfo:
		if key.Matches(msg, a.keys.Cancel, a.keys.Confirm, a.keys.Info, a.keys.Quit) {
			a.closeModal()
		}
	case SortPicker:
		a.handleSortKey(m, msg)
	case DownloadPicker:
		return a.handleDownloadKey(m, msg)
	case Clone:
		return a.handleCloneKey(m, msg)
	case DeleteConfirm:
		return a.handleDeleteKey(m, msg)
	}
	return nil
}

func (a *AppState) handleSortKey(m SortPicker, msg tea.KeyMsg) {
	pos := 0
	for i, c := range hierarchy.Criteria {
		if c == m.Current {
			pos = i
		}
	}
	n := len(hierarchy.Criteria)

	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.closeModal()
	case key.Matches(msg, a.keys.Up):
		a.openModal(SortPicker{Current: hierarchy.Criteria[(pos+n-1)%n]})
	case key.Matches(msg, a.keys.Down):
		a.openModal(SortPicker{Current: hierarchy.Criteria[(pos+1)%n]})
	case key.Matches(msg, a.keys.SortName):
		a.applySort(hierarchy.ByName)
	case key.Matches(msg, a.keys.SortModified):
		a.applySort(hierarchy.ByModified)
	case key.Matches(msg, a.keys.SortSize):
		a.applySort(hierarchy.BySize)
	case key.Matches(msg, a.keys.Confirm):
		a.applySort(m.Current)
	}
}

func (a *AppState) applySort(by hierarchy.Criterion) {
	a.closeModal()
	a.sortBy = by
	if b, ok := a.session.(*Browsing); ok {
		b.resort(by)
	}
	a.setStatus("Sorted by " + by.String())
}

func (a *AppState) handleDownloadKey(m DownloadPicker, msg tea.KeyMsg) []Effect {
	switch msg.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyEnter:
		a.closeModal()
		return a.startDownload(m.Target, m.DestinationOrDefault())
	}
	current := m.Default
	if m.Destination != nil {
		current = *m.Destination
	}
	if edited, ok := editText(current, msg); ok {
		m.Destination = &edited
		a.openModal(m)
	}
	return nil
}

func (a *AppState) handleCloneKey(m Clone, msg tea.KeyMsg) []Effect {
	switch msg.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyEnter:
		if !m.CanConfirm() {
			a.setError(errSamePath)
			return nil
		}
		a.closeModal()
		return a.startClone(m.Target, m.Input)
	}
	if edited, ok := editText(m.Input, msg); ok {
		m.Input = edited
		a.openModal(m)
	}
	return nil
}

func (a *AppState) handleDeleteKey(m DeleteConfirm, msg tea.KeyMsg) []Effect {
	switch msg.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyEnter:
		if !m.CanConfirm() {
			a.setError(fmt.Errorf("type %q to confirm", m.TargetName))
			return nil
		}
		a.closeModal()
		return a.startDelete(m.Target)
	}
	if edited, ok := editText(m.Input, msg); ok {
		m.Input = edited
		a.openModal(m)
	}
	return nil
}

func (a *AppState) startDownload(target models.Entry, destination string) []Effect {
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	id := a.newID()
	a.op = Downloading{ID: id, Progress: DownloadProgress{Target: target.Path(), Destination: destination}}
	a.setStatus("Downloading " + target.Name())
	return []Effect{b.download(id, target, destination)}
}

func (a *AppState) startClone(target models.Entry, newPath string) []Effect {
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	id := a.newID()
	a.op = Cloning{ID: id, Progress: CloneProgress{Source: target.Path(), Target: newPath}}
	a.setStatus("Cloning " + target.Name())
	return []Effect{b.clone(id, target, newPath)}
}

func (a *AppState) startDelete(target models.Entry) []Effect {
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	id := a.newID()
	a.op = Deleting{ID: id, Progress: DeleteProgress{Target: target.Path()}}
	a.setStatus("Deleting " + target.Name())
	return []Effect{b.remove(id, target)}
}

func (a *AppState) handleBusyKey(msg tea.KeyMsg) []Effect {
	if key.Matches(msg, a.keys.Help) {
		a.showHelp = !a.showHelp
		return nil
	}

	if op, ok := a.op.(Loading); ok {
		if key.Matches(msg, a.keys.Cancel) {
			a.op = Idle{}
			a.setStatus("Cancelled")
			return []Effect{CancelOperation{Op: op.ID}}
		}
		return nil
	}

	batch, _ := batchOf(a.op)
	if batch.Done {
		if key.Matches(msg, a.keys.Confirm, a.keys.Cancel) {
			return a.acknowledge()
		}
		return nil
	}
	if key.Matches(msg, a.keys.Cancel) && !batch.Cancelling {
		id := a.op.opID()
		a.op = withCancelling(a.op)
		a.setStatus("Cancelling, waiting for transfers in flight")
		return []Effect{CancelOperation{Op: id}}
	}
	return nil
}

func withCancelling(op Operation) Operation {
	switch o := op.(type) {
	case Downloading:
		o.Progress.Cancelling = true
		return o
	case Cloning:
		o.Progress.Cancelling = true
		return o
	case Deleting:
		o.Progress.Cancelling = true
		return o
	}
	return op
}

// acknowledge dismisses a finished batch that needs the user's attention
func (a *AppState) acknowledge() []Effect {
	op := a.op
	a.op = Idle{}
	switch op.(type) {
	case Cloning, Deleting:
		return a.refreshLevel()
	}
	return nil
}

func (a *AppState) containersLoaded(m ContainersLoaded) []Effect {
	if !a.owns(m.Op) {
		return nil
	}
	a.op = Idle{}
	s, ok := a.session.(*Selecting)
	if !ok {
		return nil
	}
	if m.Err != nil {
		a.setError(m.Err)
		return nil
	}
	s.Containers = m.Containers
	s.Selected = min(max(s.Selected, 0), max(len(s.Containers)-1, 0))
	a.setStatus(utils.FormatCount(len(s.Containers)) + " container(s)")
	return nil
}

func (a *AppState) containerOpened(m ContainerOpened) []Effect {
	if !a.owns(m.Op) {
		return nil
	}
	a.op = Idle{}
	s, ok := a.session.(*Selecting)
	if !ok {
		return nil
	}
	if m.Err != nil {
		a.setError(m.Err)
		return nil
	}
	b := s.open(m.Handle, m.Objects, a.sortBy)
	a.session = b
	a.search = search.Inactive{}
	a.preview = PreviewPane{}
	a.setStatus("Opened " + b.Container.Name)
	return nil
}

func (a *AppState) levelListed(m LevelListed) []Effect {
	if !a.owns(m.Op) {
		return nil
	}
	a.op = Idle{}
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	if m.Err != nil {
		return a.browseFailed(m.Err)
	}
	b.showLevel(m.Path, m.Objects, m.Focus, a.sortBy)
	a.status = Status{}
	return a.previewFollow()
}

func (a *AppState) metadataLoaded(m MetadataLoaded) []Effect {
	if !a.owns(m.Op) {
		return nil
	}
	a.op = Idle{}
	if _, ok := a.session.(*Browsing); !ok {
		return nil
	}
	if m.Err != nil {
		return a.browseFailed(m.Err)
	}
	a.openModal(BlobInfo{Entry: m.File})
	return nil
}

// browseFailed reports a failed call while browsing. The level on screen
// stays; only an auth failure ends the session.
func (a *AppState) browseFailed(err error) []Effect {
	if services.KindOf(err) == services.KindAuth {
		return a.authFailed(err)
	}
	a.setError(err)
	return nil
}

// authFailed drops the handle and returns to the container list
func (a *AppState) authFailed(err error) []Effect {
	var effects []Effect
	if a.Busy() {
		effects = append(effects, CancelOperation{Op: a.op.opID()})
	}
	a.op = Idle{}
	if b, ok := a.session.(*Browsing); ok {
		id := a.newID()
		sel, eff := b.exit(id)
		a.leaveBrowsing(sel)
		if eff != nil {
			a.op = Loading{ID: id, Label: "Loading containers"}
			effects = append(effects, eff)
		}
	}
	a.status = Status{Text: fmt.Sprintf("%v; choose a container again", err), IsError: true}
	return effects
}

func (a *AppState) transferProgress(m TransferProgress) []Effect {
	if !a.owns(m.Op) {
		return nil
	}
	switch ev := m.Event.(type) {
	case transfer.Failed:
		if ev.Kind == services.KindAuth {
			return a.authFailed(ev.Err)
		}
	case transfer.Finished:
		if ev.Err != nil && services.KindOf(ev.Err) == services.KindAuth {
			return a.authFailed(ev.Err)
		}
	}

	var batch BatchProgress
	switch op := a.op.(type) {
	case Downloading:
		op.Progress.apply(m.Event)
		a.op = op
		batch = op.Progress.BatchProgress
	case Cloning:
		op.Progress.BatchProgress.apply(m.Event)
		a.op = op
		batch = op.Progress.BatchProgress
	case Deleting:
		op.Progress.BatchProgress.apply(m.Event)
		a.op = op
		batch = op.Progress.BatchProgress
	default:
		return nil
	}

	if _, done := m.Event.(transfer.Finished); !done {
		return nil
	}
	return a.batchFinished(batch)
}

// batchFinished clears a clean batch at once. Anything else stays on screen
// with its error list until acknowledged.
func (a *AppState) batchFinished(batch BatchProgress) []Effect {
	if !batch.Clean() {
		switch {
		case batch.Failure != nil:
			a.setError(batch.Failure)
		case batch.Cancelled:
			a.setStatus(fmt.Sprintf("Cancelled: %d done, %d failed, %d skipped",
				batch.FilesCompleted, len(batch.Errors), batch.Skipped))
		default:
			a.setError(batch.Err())
		}
		return nil
	}

	op := a.op
	a.op = Idle{}
	switch o := op.(type) {
	case Downloading:
		a.setStatus(fmt.Sprintf("Downloaded %s file(s), %s to %s",
			utils.FormatCount(o.Progress.FilesCompleted),
			utils.FormatFileSize(o.Progress.BytesCompleted),
			o.Progress.Destination))
	case Cloning:
		a.setStatus(fmt.Sprintf("Cloned %s to %s", o.Progress.Source, o.Progress.Target))
		return a.refreshLevel()
	case Deleting:
		a.setStatus("Deleted " + o.Progress.Target)
		return a.refreshLevel()
	}
	return nil
}

// previewFollow points the preview pane at the highlighted file
func (a *AppState) previewFollow() []Effect {
	if !a.preview.Visible {
		return nil
	}
	b, ok := a.session.(*Browsing)
	if !ok {
		return nil
	}
	entry, _ := a.selectedEntry()
	file, isFile := entry.(models.File)
	if !isFile {
		a.preview = PreviewPane{Visible: true}
		return nil
	}
	if file.Key == a.preview.Key {
		return nil
	}
	token := a.newID()
	a.preview = PreviewPane{Visible: true, Token: token, Key: file.Key, Loading: true}
	return []Effect{b.loadPreview(token, file)}
}

func (a *AppState) previewLoaded(m PreviewLoaded) {
	if !a.preview.Visible || m.Token != a.preview.Token {
		return
	}
	a.preview.Loading = false
	if m.Err != nil {
		a.preview.Err = m.Err
		return
	}
	doc := m.Doc
	a.preview.Doc = &doc
}
