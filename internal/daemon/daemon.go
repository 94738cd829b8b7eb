// Package daemon implements the Daemon Loop: the three-state executor
// that owns Initialize, the fairness policy between queued requests and
// the change backlog, the quarantine protocol around speculative
// queries, and Shutdown. Everything else in this module (internal/query,
// internal/invalidation, internal/backlog, ...) is a collaborator the
// loop drives; nothing outside this package talks to the framed pipe.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/debug"
	"github.com/standardbeagle/langd/internal/errors"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/transport"
)

// State is one of the three states spec.md §4.4's transition table names.
type State int

const (
	StateInitializing State = iota
	StateFailedToInitialize
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateFailedToInitialize:
		return "FailedToInitialize"
	case StateInitialized:
		return "Initialized"
	default:
		return "Unknown"
	}
}

const telemetryFlushInterval = 30 * time.Second

// Daemon is the single-executor loop described above. Every field below
// that isn't guarded by its own mutex is touched only from the loop's
// one goroutine (runLoop) — the same single-writer discipline spec.md §5
// describes for the cache layers applies to the daemon's own state.
type Daemon struct {
	log *slog.Logger

	reader *transport.Reader
	writer *transport.Writer

	state   State
	initErr *errors.DaemonError
	st      *InitializedState

	verbose bool

	msgCh  chan transport.Envelope
	runCtx context.Context
}

// New builds a daemon in the Initializing state, reading framed requests
// from r and writing framed responses to w.
func New(r *transport.Reader, w *transport.Writer, log *slog.Logger) *Daemon {
	return &Daemon{
		log:    log,
		reader: r,
		writer: w,
		state:  StateInitializing,
	}
}

// Run drives the daemon until Shutdown is processed or the transport
// fails. The reader pump runs on its own goroutine for the life of the
// process — a blocking io.ReadFull on a pipe can't be interrupted by
// context cancellation, so Run doesn't wait for it to exit; the telemetry
// ticker, which can react to cancellation, is the one goroutine Run
// actually joins via errgroup before returning.
func (d *Daemon) Run(ctx context.Context) error {
	d.runCtx = ctx
	d.msgCh = make(chan transport.Envelope)
	readErrCh := make(chan error, 1)
	go d.pumpReader(d.msgCh, readErrCh)

	tickCtx, cancelTicker := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(tickCtx)
	g.Go(func() error {
		return d.runTelemetryTicker(gctx)
	})

	loopErr := d.runLoop(d.msgCh, readErrCh)

	cancelTicker()
	if waitErr := g.Wait(); waitErr != nil && loopErr == nil {
		loopErr = waitErr
	}
	return loopErr
}

func (d *Daemon) pumpReader(out chan<- transport.Envelope, errCh chan<- error) {
	for {
		env, err := d.reader.ReadEnvelope()
		if err != nil {
			errCh <- err
			return
		}
		out <- env
	}
}

func (d *Daemon) runTelemetryTicker(ctx context.Context) error {
	ticker := time.NewTicker(telemetryFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.flushTelemetry()
		}
	}
}

// flushTelemetry logs each cache layer's hit/miss counters — the
// telemetry channel spec.md §5 assigns its own cooperative slice of
// daemon time to, kept off the request-dispatch path entirely.
func (d *Daemon) flushTelemetry() {
	if d.state != StateInitialized || d.st == nil {
		return
	}
	for _, layer := range []cachectx.Layer{cachectx.LayerShallowDecl, cachectx.LayerFoldedDecl, cachectx.LayerLinearization} {
		stats := d.st.Cache.Layer(layer).Stats()
		debug.Log("telemetry", "%s: hits=%d misses=%d entries=%d", layer, stats.Hits, stats.Misses, stats.Entries)
	}
}

// onWatchedFileChanged is the watcher's onChange callback: it turns a
// detected disk change into a synthetic FileChanged message on the same
// queue the transport reader feeds, so watcher events are processed in
// the same FIFO order as editor-reported ones rather than mutating the
// backlog from the watcher's own goroutine.
func (d *Daemon) onWatchedFileChanged(p pathutil.Path) {
	d.msgCh <- synthesizeFileChanged(p)
}
