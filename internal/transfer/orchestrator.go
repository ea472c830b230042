// Package transfer runs batches of per-object work (download, server-side
// copy, removal) on a bounded worker pool and reports progress as events.
package transfer

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/damacus/iron-browse/internal/services"
)

const (
	// DefaultWorkers is the pool size used when none is configured
	DefaultWorkers = 4
	// MaxWorkers caps the configured pool size
	MaxWorkers = 32

	progressChunk = 256 << 10
	eventBuffer   = 64
)

// Event is one progress notification of a running batch
type Event interface {
	isEvent()
}

// Planned is sent once, after the work list is fixed and before any transfer
type Planned struct {
	Files int
	Bytes int64
}

// Started is sent when a worker picks up a file
type Started struct {
	Path string
}

// Progressed reports bytes moved since the previous Progressed for Path
type Progressed struct {
	Path  string
	Bytes int64
}

// Completed is sent when a file finished successfully
type Completed struct {
	Path string
}

// Failed is sent when a file could not be processed. The batch continues.
type Failed struct {
	Path string
	Kind services.Kind
	Err  error
}

// Finished is the last event of a batch. Err is set when the work list
// could not be built; Skipped counts files never started due to cancel.
type Finished struct {
	Skipped   int
	Cancelled bool
	Err       error
}

func (Planned) isEvent()    {}
func (Started) isEvent()    {}
func (Progressed) isEvent() {}
func (Completed) isEvent()  {}
func (Failed) isEvent()     {}
func (Finished) isEvent()   {}

// Orchestrator schedules batches. One instance can run many batches at once.
type Orchestrator struct {
	workers int
	log     zerolog.Logger
}

// New creates an Orchestrator with a pool of the given size, clamped to
// 1..MaxWorkers (0 selects DefaultWorkers)
func New(workers int, log zerolog.Logger) *Orchestrator {
	switch {
	case workers == 0:
		workers = DefaultWorkers
	case workers < 1:
		workers = 1
	case workers > MaxWorkers:
		workers = MaxWorkers
	}
	return &Orchestrator{workers: workers, log: log}
}

// Workers returns the pool size
func (o *Orchestrator) Workers() int { return o.workers }

type job struct {
	key  string
	size int64
	// local path for downloads, destination key for copies
	dest string
	// set when the job is known to fail before it starts
	err error
}

type planFunc func(ctx context.Context) ([]job, error)
type workFunc func(ctx context.Context, j job, progress func(int64)) error

// run plans the batch and then feeds the jobs to the pool. Cancelling ctx
// stops scheduling; jobs already running use a context detached from ctx so
// they complete or fail on their own.
func (o *Orchestrator) run(ctx context.Context, name string, plan planFunc, work workFunc) <-chan Event {
	events := make(chan Event, eventBuffer)

	go func() {
		defer close(events)
		log := o.log.With().Str("batch", name).Logger()

		jobs, err := plan(ctx)
		if err != nil {
			log.Error().Err(err).Msg("planning failed")
			events <- Finished{Err: err, Cancelled: ctx.Err() != nil}
			return
		}

		var bytes int64
		for _, j := range jobs {
			bytes += j.size
		}
		events <- Planned{Files: len(jobs), Bytes: bytes}
		log.Info().Int("files", len(jobs)).Int64("bytes", bytes).Int("workers", o.workers).Msg("batch planned")

		inflight := context.WithoutCancel(ctx)
		var skipped atomic.Int64
		g := new(errgroup.Group)
		g.SetLimit(o.workers)

		for i, j := range jobs {
			if ctx.Err() != nil {
				skipped.Add(int64(len(jobs) - i))
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					skipped.Add(1)
					return nil
				}
				events <- Started{Path: j.key}

				err := j.err
				if err == nil {
					err = work(inflight, j, func(n int64) {
						events <- Progressed{Path: j.key, Bytes: n}
					})
				}
				if err != nil {
					log.Warn().Err(err).Str("key", j.key).Msg("file failed")
					events <- Failed{Path: j.key, Kind: services.KindOf(err), Err: err}
					return nil
				}
				log.Debug().Str("key", j.key).Msg("file done")
				events <- Completed{Path: j.key}
				return nil
			})
		}
		_ = g.Wait()

		n := int(skipped.Load())
		log.Info().Int("skipped", n).Bool("cancelled", ctx.Err() != nil).Msg("batch finished")
		events <- Finished{Skipped: n, Cancelled: ctx.Err() != nil}
	}()

	return events
}

// progressWriter batches byte counts into chunks before reporting them
type progressWriter struct {
	report  func(int64)
	pending int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.pending += int64(len(p))
	if w.pending >= progressChunk {
		w.flush()
	}
	return len(p), nil
}

func (w *progressWriter) flush() {
	if w.pending > 0 {
		w.report(w.pending)
		w.pending = 0
	}
}
