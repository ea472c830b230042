package app

import (
	"github.com/damacus/iron-browse/internal/transfer"
)

// Operation is the single long-running action. Idle carries nothing; every
// busy variant carries its own progress.
type Operation interface {
	opID() uint64
}

type Idle struct{}

// Loading covers listings and metadata fetches
type Loading struct {
	ID    uint64
	Label string
}

type Downloading struct {
	ID       uint64
	Progress DownloadProgress
}

type Cloning struct {
	ID       uint64
	Progress CloneProgress
}

type Deleting struct {
	ID       uint64
	Progress DeleteProgress
}

func (Idle) opID() uint64          { return 0 }
func (o Loading) opID() uint64     { return o.ID }
func (o Downloading) opID() uint64 { return o.ID }
func (o Cloning) opID() uint64     { return o.ID }
func (o Deleting) opID() uint64    { return o.ID }

// BatchProgress is the part shared by download, clone and delete progress.
// FilesTotal is fixed once Planned is set; FilesCompleted only grows and
// Errors is append-only.
type BatchProgress struct {
	Planned        bool
	FilesTotal     int
	FilesCompleted int
	// CurrentFile is the most recently started file, empty between files
	CurrentFile string
	Errors      []transfer.FileError

	Cancelling bool
	Done       bool
	Cancelled  bool
	Skipped    int
	// Failure is set when the work list could not be built
	Failure error
}

// Terminal reports whether every planned file is accounted for
func (p BatchProgress) Terminal() bool {
	return p.Planned && p.FilesCompleted+len(p.Errors)+p.Skipped == p.FilesTotal
}

// Clean reports a finished batch without errors, cancel or failure
func (p BatchProgress) Clean() bool {
	return p.Done && p.Failure == nil && len(p.Errors) == 0 && !p.Cancelled
}

// Err summarises the outcome as an error, nil when clean
func (p BatchProgress) Err() error {
	if p.Failure != nil {
		return p.Failure
	}
	if len(p.Errors) > 0 {
		return &transfer.BatchError{Failures: p.Errors}
	}
	return nil
}

// apply folds one event in and returns the bytes it carried
func (p *BatchProgress) apply(ev transfer.Event) int64 {
	switch e := ev.(type) {
	case transfer.Planned:
		if !p.Planned {
			p.Planned = true
			p.FilesTotal = e.Files
		}
	case transfer.Started:
		p.CurrentFile = e.Path
	case transfer.Progressed:
		return e.Bytes
	case transfer.Completed:
		p.FilesCompleted++
		p.clearCurrent(e.Path)
	case transfer.Failed:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		p.Errors = append(p.Errors, transfer.FileError{Path: e.Path, Kind: e.Kind, Message: msg})
		p.clearCurrent(e.Path)
	case transfer.Finished:
		p.Done = true
		p.Cancelled = e.Cancelled
		p.Skipped = e.Skipped
		p.Failure = e.Err
		p.CurrentFile = ""
	}
	return 0
}

func (p *BatchProgress) clearCurrent(path string) {
	if p.CurrentFile == path {
		p.CurrentFile = ""
	}
}

// DownloadProgress tracks a download batch
type DownloadProgress struct {
	BatchProgress
	BytesTotal     int64
	BytesCompleted int64
	Target         string
	Destination    string
}

func (p *DownloadProgress) apply(ev transfer.Event) {
	if planned, ok := ev.(transfer.Planned); ok && !p.Planned {
		p.BytesTotal = planned.Bytes
	}
	p.BytesCompleted += p.BatchProgress.apply(ev)
}

// CloneProgress tracks a server-side copy batch
type CloneProgress struct {
	BatchProgress
	Source string
	Target string
}

// DeleteProgress tracks a removal batch
type DeleteProgress struct {
	BatchProgress
	Target string
}

// batchOf returns the shared progress of a busy batch operation
func batchOf(op Operation) (BatchProgress, bool) {
	switch o := op.(type) {
	case Downloading:
		return o.Progress.BatchProgress, true
	case Cloning:
		return o.Progress.BatchProgress, true
	case Deleting:
		return o.Progress.BatchProgress, true
	}
	return BatchProgress{}, false
}
