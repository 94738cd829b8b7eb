// Package backlog implements the Change-Backlog Processor: the queue of
// on-disk paths the editor has reported changed, drained one at a time by
// the Daemon Loop whenever it has no queued request and the input pipe has
// nothing readable.
package backlog

import (
	"sync"

	"github.com/standardbeagle/langd/internal/debug"
	"github.com/standardbeagle/langd/internal/invalidation"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// Parser parses a path's current disk contents into the FileInfo Trigger B
// needs. Returns a nil FileInfo (no error) if the path no longer exists or
// is no longer a recognized source file — ParseFileInfo is only expected
// to return an error for a genuine read/parse failure, which the
// processor logs and swallows per spec.md §4.3.
type Parser interface {
	ParseFileInfo(path pathutil.Path) (*naming.FileInfo, error)
}

// Processor owns the queued change set and the monotonic denominator used
// for progress reporting. Mutated only from the Daemon Loop's single
// executor, but guarded by a mutex anyway since FileChanged notifications
// (Enqueue) and backlog draining (ProcessOne) are logically distinct call
// sites that could otherwise race if that assumption ever changes.
type Processor struct {
	mu          sync.Mutex
	pending     map[pathutil.Path]struct{}
	denominator int

	engine *invalidation.Engine
	parser Parser
}

// NewProcessor builds a backlog processor that applies Trigger B through
// engine, using parser to read disk.
func NewProcessor(engine *invalidation.Engine, parser Parser) *Processor {
	return &Processor{
		pending: make(map[pathutil.Path]struct{}),
		engine:  engine,
		parser:  parser,
	}
}

// Enqueue records that path changed on disk. A path already pending is not
// double-counted in the denominator — the editor may report the same path
// repeatedly before the processor gets to it.
func (p *Processor) Enqueue(path pathutil.Path) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, already := p.pending[path]; already {
		return
	}
	p.pending[path] = struct{}{}
	p.denominator++
}

// SeedMany enqueues the initial changed-files list produced at Initialize
// time, in one step, so the denominator reflects the whole seed set before
// the first progress report goes out.
func (p *Processor) SeedMany(paths []pathutil.Path) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range paths {
		if _, already := p.pending[path]; already {
			continue
		}
		p.pending[path] = struct{}{}
		p.denominator++
	}
}

// ProcessOne dequeues exactly one path (unspecified order, per spec.md
// §4.3) and applies Trigger B. A parse failure is logged and the path is
// still removed from the backlog — one unreadable file must not stall the
// daemon forever. Returns false if the backlog was empty.
func (p *Processor) ProcessOne() bool {
	path, ok := p.dequeue()
	if !ok {
		return false
	}

	info, err := p.parser.ParseFileInfo(path)
	if err != nil {
		debug.LogIndexing("backlog: dropping %s after parse failure: %v", path, err)
		return true
	}

	p.engine.DiskFileChanged(path, info)
	return true
}

func (p *Processor) dequeue() (pathutil.Path, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for path := range p.pending {
		delete(p.pending, path)
		return path, true
	}
	return pathutil.Path{}, false
}

// Progress reports {processed, total} for the loop's status message:
// processed = denominator - |remaining|, total = denominator. Call this
// after ProcessOne, before FinishIfEmpty — the final status message for a
// batch (processed == total) is reported against the pre-reset
// denominator.
func (p *Processor) Progress() (processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.denominator - len(p.pending), p.denominator
}

// FinishIfEmpty resets the denominator to 0 if the backlog is currently
// empty, returning true when it did — the loop's signal to emit a `done`
// notification. Call this after reporting Progress for the turn that just
// drained the last path.
func (p *Processor) FinishIfEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) != 0 {
		return false
	}
	emptied := p.denominator != 0
	p.denominator = 0
	return emptied
}

// Len reports how many paths are currently queued.
func (p *Processor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// IsEmpty reports whether the backlog has nothing left to process.
func (p *Processor) IsEmpty() bool {
	return p.Len() == 0
}
