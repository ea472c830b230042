package tui

import (
	"context"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-browse/internal/app"
	"github.com/damacus/iron-browse/internal/preview"
	"github.com/damacus/iron-browse/internal/services"
	"github.com/damacus/iron-browse/internal/transfer"
)

// transferMsg carries one batch event and the channel to keep reading
type transferMsg struct {
	op     uint64
	event  transfer.Event
	events <-chan transfer.Event
}

// Runner turns effects into commands. Commands run off the update loop and
// report back only through the messages they return.
type Runner struct {
	account         services.Account
	transfers       *transfer.Orchestrator
	listTimeout     time.Duration
	metadataTimeout time.Duration
	log             zerolog.Logger

	// writeClipboard is replaced in tests
	writeClipboard func(string) error

	mu      sync.Mutex
	cancels map[uint64]context.CancelFunc
}

type RunnerOptions struct {
	ListTimeout     time.Duration
	MetadataTimeout time.Duration
	Logger          zerolog.Logger
}

func NewRunner(account services.Account, transfers *transfer.Orchestrator, opts RunnerOptions) *Runner {
	return &Runner{
		account:         account,
		transfers:       transfers,
		listTimeout:     opts.ListTimeout,
		metadataTimeout: opts.MetadataTimeout,
		log:             opts.Logger,
		writeClipboard:  clipboard.WriteAll,
		cancels:         make(map[uint64]context.CancelFunc),
	}
}

// begin registers a cancellable context for op. A zero timeout means no
// deadline.
func (r *Runner) begin(op uint64, timeout time.Duration) context.Context {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	r.mu.Lock()
	r.cancels[op] = cancel
	r.mu.Unlock()
	return ctx
}

// end releases the context of op
func (r *Runner) end(op uint64) {
	r.mu.Lock()
	cancel, ok := r.cancels[op]
	delete(r.cancels, op)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Pending reports how many operations still hold a context
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// Commands converts effects in order; nil commands are skipped
func (r *Runner) Commands(effects []app.Effect) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		if cmd := r.Command(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// Command converts one effect. Contexts are registered here, on the update
// loop, so a cancel that follows is never missed.
func (r *Runner) Command(eff app.Effect) tea.Cmd {
	switch e := eff.(type) {
	case app.LoadContainers:
		ctx := r.begin(e.Op, r.listTimeout)
		return func() tea.Msg {
			defer r.end(e.Op)
			containers, err := r.account.ListContainers(ctx)
			r.logFailure(err, "list containers", "")
			return app.ContainersLoaded{Op: e.Op, Containers: containers, Err: err}
		}

	case app.OpenContainer:
		ctx := r.begin(e.Op, r.listTimeout)
		return func() tea.Msg {
			defer r.end(e.Op)
			handle, err := r.account.OpenContainer(ctx, e.Name)
			if err != nil {
				r.logFailure(err, "open container", e.Name)
				return app.ContainerOpened{Op: e.Op, Err: err}
			}
			objects, err := handle.ListAll(ctx, "")
			if err != nil {
				r.logFailure(err, "list root", e.Name)
				return app.ContainerOpened{Op: e.Op, Err: err}
			}
			r.log.Debug().Str("container", e.Name).Int("objects", len(objects)).Msg("container opened")
			return app.ContainerOpened{Op: e.Op, Handle: handle, Objects: objects}
		}

	case app.ListLevel:
		ctx := r.begin(e.Op, r.listTimeout)
		return func() tea.Msg {
			defer r.end(e.Op)
			objects, err := e.Handle.ListAll(ctx, e.Path)
			r.logFailure(err, "list level", e.Path)
			return app.LevelListed{Op: e.Op, Path: e.Path, Focus: e.Focus, Objects: objects, Err: err}
		}

	case app.FetchMetadata:
		ctx := r.begin(e.Op, r.metadataTimeout)
		return func() tea.Msg {
			defer r.end(e.Op)
			file, err := e.Handle.GetMetadata(ctx, e.Key)
			r.logFailure(err, "get metadata", e.Key)
			return app.MetadataLoaded{Op: e.Op, File: file, Err: err}
		}

	case app.LoadPreview:
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), r.metadataTimeout)
			defer cancel()
			data, err := e.Handle.ReadHead(ctx, e.File.Key, preview.MaxBytes+1)
			if err != nil {
				r.logFailure(err, "preview", e.File.Key)
				return app.PreviewLoaded{Token: e.Token, Err: err}
			}
			truncated := len(data) > preview.MaxBytes || e.File.Size > preview.MaxBytes
			if len(data) > preview.MaxBytes {
				data = data[:preview.MaxBytes]
			}
			return app.PreviewLoaded{Token: e.Token, Doc: preview.Parse(e.File.Name(), data, truncated)}
		}

	case app.StartDownload:
		ctx := r.begin(e.Op, 0)
		r.log.Info().Str("target", e.Target.Path()).Str("destination", e.Destination).Msg("download started")
		return r.listen(e.Op, r.transfers.Download(ctx, e.Handle, e.Target, e.Destination))

	case app.StartClone:
		ctx := r.begin(e.Op, 0)
		r.log.Info().Str("source", e.Target.Path()).Str("target", e.NewPath).Msg("clone started")
		return r.listen(e.Op, r.transfers.Clone(ctx, e.Handle, e.Target, e.NewPath))

	case app.StartDelete:
		ctx := r.begin(e.Op, 0)
		r.log.Info().Str("target", e.Target.Path()).Msg("delete started")
		return r.listen(e.Op, r.transfers.Delete(ctx, e.Handle, e.Target))

	case app.CancelOperation:
		r.log.Debug().Uint64("op", e.Op).Msg("cancel requested")
		r.end(e.Op)
		return nil

	case app.CopyToClipboard:
		return func() tea.Msg {
			err := r.writeClipboard(e.Text)
			r.logFailure(err, "clipboard", e.Text)
			return app.ClipboardCopied{Text: e.Text, Err: err}
		}

	case app.Quit:
		return tea.Quit
	}
	return nil
}

// listen reads the next event of a batch. The channel is drained to the end
// even when the state has stopped caring about op.
func (r *Runner) listen(op uint64, events <-chan transfer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			r.end(op)
			return nil
		}
		switch e := ev.(type) {
		case transfer.Failed:
			r.log.Warn().Err(e.Err).Str("path", e.Path).Stringer("kind", e.Kind).Msg("transfer failed")
		case transfer.Finished:
			r.log.Info().Uint64("op", op).Int("skipped", e.Skipped).Bool("cancelled", e.Cancelled).AnErr("error", e.Err).Msg("batch finished")
		}
		return transferMsg{op: op, event: ev, events: events}
	}
}

func (r *Runner) logFailure(err error, action, subject string) {
	if err == nil {
		return
	}
	r.log.Error().Err(err).Str("kind", services.KindOf(err).String()).Str("subject", subject).Msg(action + " failed")
}
