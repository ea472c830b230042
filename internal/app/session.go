package app

import (
	"github.com/damacus/iron-browse/internal/hierarchy"
	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/services"
)

// Session is either *Selecting or *Browsing
type Session interface {
	isSession()
}

// Selecting is the container choice. It holds no storage handle, so no
// object can be read or written from here.
type Selecting struct {
	Containers []models.ContainerInfo
	Selected   int
}

// Browsing is one open container. The handle lives only here.
type Browsing struct {
	handle    services.Handle
	Container models.ContainerInfo
	Path      string
	Entries   []models.Entry
	Selected  int

	// back is the container list go-up returns to
	back *Selecting
}

func (*Selecting) isSession() {}
func (*Browsing) isSession()  {}

// refresh asks for the container list again
func (s *Selecting) refresh(op uint64) Effect {
	return LoadContainers{Op: op}
}

// selectContainer asks to open the container at index. The transition to
// Browsing happens when the open succeeds.
func (s *Selecting) selectContainer(op uint64, index int) (Effect, bool) {
	if index < 0 || index >= len(s.Containers) {
		return nil, false
	}
	return OpenContainer{Op: op, Name: s.Containers[index].Name}, true
}

// open consumes the selection and produces a Browsing session at the root
func (s *Selecting) open(handle services.Handle, objects []models.ObjectRecord, by hierarchy.Criterion) *Browsing {
	info := models.ContainerInfo{Name: handle.Container()}
	for _, c := range s.Containers {
		if c.Name == info.Name {
			info = c
			break
		}
	}
	back := *s
	return &Browsing{
		handle:    handle,
		Container: info,
		Path:      "",
		Entries:   buildLevel(objects, "", by),
		back:      &back,
	}
}

func buildLevel(objects []models.ObjectRecord, path string, by hierarchy.Criterion) []models.Entry {
	entries := hierarchy.Build(objects, path)
	if by != hierarchy.ByName {
		hierarchy.Sort(entries, by)
	}
	return entries
}

// enterFolder lists the level of folder
func (b *Browsing) enterFolder(op uint64, folder models.Folder) Effect {
	return ListLevel{Op: op, Handle: b.handle, Path: folder.Prefix}
}

// goUp shortens the path. At the root it returns the container list and
// no effect.
func (b *Browsing) goUp(op uint64) (*Selecting, Effect) {
	if b.Path == "" {
		return b.exit(op)
	}
	focus := models.Folder{Prefix: b.Path}.Name()
	return nil, ListLevel{Op: op, Handle: b.handle, Path: models.ParentPath(b.Path), Focus: focus}
}

// exit consumes the session and drops the handle. The container list is
// reused when there is one, otherwise it is fetched again.
func (b *Browsing) exit(op uint64) (*Selecting, Effect) {
	if b.back == nil || len(b.back.Containers) == 0 {
		return &Selecting{}, LoadContainers{Op: op}
	}
	back := *b.back
	back.Selected = min(max(back.Selected, 0), len(back.Containers)-1)
	return &back, nil
}

// refresh lists the current level again, keeping the highlighted entry
func (b *Browsing) refresh(op uint64) Effect {
	focus := ""
	if b.Selected < len(b.Entries) {
		focus = b.Entries[b.Selected].Name()
	}
	return ListLevel{Op: op, Handle: b.handle, Path: b.Path, Focus: focus}
}

// showLevel replaces the listing after a successful fetch
func (b *Browsing) showLevel(path string, objects []models.ObjectRecord, focus string, by hierarchy.Criterion) {
	b.Path = path
	b.Entries = buildLevel(objects, path, by)
	b.Selected = 0
	for i, e := range b.Entries {
		if e.Name() == focus {
			b.Selected = i
			break
		}
	}
}

func (b *Browsing) fetchMetadata(op uint64, file models.File) Effect {
	return FetchMetadata{Op: op, Handle: b.handle, Key: file.Key}
}

func (b *Browsing) download(op uint64, target models.Entry, destination string) Effect {
	return StartDownload{Op: op, Handle: b.handle, Target: target, Destination: destination}
}

func (b *Browsing) clone(op uint64, target models.Entry, newPath string) Effect {
	return StartClone{Op: op, Handle: b.handle, Target: target, NewPath: newPath}
}

func (b *Browsing) remove(op uint64, target models.Entry) Effect {
	return StartDelete{Op: op, Handle: b.handle, Target: target}
}

func (b *Browsing) loadPreview(token uint64, file models.File) Effect {
	return LoadPreview{Token: token, Handle: b.handle, File: file}
}

// resort reorders the current entries, keeping the highlighted one
func (b *Browsing) resort(by hierarchy.Criterion) {
	var focus string
	if b.Selected < len(b.Entries) {
		focus = b.Entries[b.Selected].Path()
	}
	hierarchy.Sort(b.Entries, by)
	for i, e := range b.Entries {
		if e.Path() == focus {
			b.Selected = i
			return
		}
	}
}

// fullPath is the container qualified path of e
func (b *Browsing) fullPath(e models.Entry) string {
	return b.Container.Name + models.Delimiter + e.Path()
}
