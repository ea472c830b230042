package app

import (
	"strings"

	"github.com/damacus/iron-browse/internal/hierarchy"
	"github.com/damacus/iron-browse/internal/models"
)

// Modal is the single overlay dialog. NoModal means none is open.
type Modal interface {
	isModal()
}

type NoModal struct{}

// BlobInfo shows a metadata snapshot of a File or the stats of a Folder
type BlobInfo struct {
	Entry models.Entry
}

// DownloadPicker asks where Target should be saved. Destination stays nil
// until the user types; Default is used then.
type DownloadPicker struct {
	Target      models.Entry
	Destination *string
	Default     string
}

// SortPicker chooses the ordering; Current is the highlighted criterion
type SortPicker struct {
	Current hierarchy.Criterion
}

// Clone asks for the new path of a file or folder
type Clone struct {
	Input        string
	OriginalPath string
	IsFolder     bool
	Target       models.Entry
}

// DeleteConfirm requires the target name to be typed before removal
type DeleteConfirm struct {
	Input      string
	TargetPath string
	TargetName string
	IsFolder   bool
	Target     models.Entry
}

func (NoModal) isModal()        {}
func (BlobInfo) isModal()       {}
func (DownloadPicker) isModal() {}
func (SortPicker) isModal()     {}
func (Clone) isModal()          {}
func (DeleteConfirm) isModal()  {}

func newClone(target models.Entry) Clone {
	return Clone{
		Input:        target.Path(),
		OriginalPath: target.Path(),
		IsFolder:     models.IsFolder(target),
		Target:       target,
	}
}

func newDeleteConfirm(target models.Entry) DeleteConfirm {
	return DeleteConfirm{
		TargetPath: target.Path(),
		TargetName: target.Name(),
		IsFolder:   models.IsFolder(target),
		Target:     target,
	}
}

// CanConfirm reports whether the typed path is a usable clone target
func (c Clone) CanConfirm() bool {
	if c.Input == "" || c.Input == c.OriginalPath {
		return false
	}
	if c.IsFolder {
		newPrefix := c.Input
		if !strings.HasSuffix(newPrefix, models.Delimiter) {
			newPrefix += models.Delimiter
		}
		// copying a folder into itself
		if strings.HasPrefix(newPrefix, c.OriginalPath) {
			return false
		}
	}
	return true
}

// CanConfirm reports whether the typed name matches the target
func (d DeleteConfirm) CanConfirm() bool {
	return d.Input == d.TargetName
}

// DestinationOrDefault returns the typed destination, or Default when none was typed
func (p DownloadPicker) DestinationOrDefault() string {
	if p.Destination != nil && *p.Destination != "" {
		return *p.Destination
	}
	return p.Default
}

// openModal replaces whatever modal is open
func (a *AppState) openModal(m Modal) {
	a.modal = m
}

// closeModal drops the modal together with any input it held
func (a *AppState) closeModal() {
	a.modal = NoModal{}
}
