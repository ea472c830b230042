package app

import (
	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/preview"
	"github.com/damacus/iron-browse/internal/services"
	"github.com/damacus/iron-browse/internal/transfer"
)

// Effect is work HandleEvent asks the runtime to perform. Effects are plain
// data; results come back as messages through HandleEvent.
type Effect interface {
	isEffect()
}

type LoadContainers struct {
	Op uint64
}

type OpenContainer struct {
	Op   uint64
	Name string
}

// ListLevel lists Path completely. Focus names the entry to highlight.
type ListLevel struct {
	Op     uint64
	Handle services.Handle
	Path   string
	Focus  string
}

type FetchMetadata struct {
	Op     uint64
	Handle services.Handle
	Key    string
}

type StartDownload struct {
	Op          uint64
	Handle      services.Handle
	Target      models.Entry
	Destination string
}

type StartClone struct {
	Op      uint64
	Handle  services.Handle
	Target  models.Entry
	NewPath string
}

type StartDelete struct {
	Op     uint64
	Handle services.Handle
	Target models.Entry
}

// CancelOperation stops the work started under Op
type CancelOperation struct {
	Op uint64
}

type LoadPreview struct {
	Token  uint64
	Handle services.Handle
	File   models.File
}

type CopyToClipboard struct {
	Text string
}

type Quit struct{}

func (LoadContainers) isEffect()  {}
func (OpenContainer) isEffect()   {}
func (ListLevel) isEffect()       {}
func (FetchMetadata) isEffect()   {}
func (StartDownload) isEffect()   {}
func (StartClone) isEffect()      {}
func (StartDelete) isEffect()     {}
func (CancelOperation) isEffect() {}
func (LoadPreview) isEffect()     {}
func (CopyToClipboard) isEffect() {}
func (Quit) isEffect()            {}

// Result messages delivered back into HandleEvent

type ContainersLoaded struct {
	Op         uint64
	Containers []models.ContainerInfo
	Err        error
}

type ContainerOpened struct {
	Op      uint64
	Handle  services.Handle
	Objects []models.ObjectRecord
	Err     error
}

type LevelListed struct {
	Op      uint64
	Path    string
	Focus   string
	Objects []models.ObjectRecord
	Err     error
}

type MetadataLoaded struct {
	Op   uint64
	File models.File
	Err  error
}

// TransferProgress wraps one event of the batch started under Op
type TransferProgress struct {
	Op    uint64
	Event transfer.Event
}

type PreviewLoaded struct {
	Token uint64
	Doc   preview.Document
	Err   error
}

type ClipboardCopied struct {
	Text string
	Err  error
}
