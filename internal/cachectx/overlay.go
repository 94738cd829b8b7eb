package cachectx

import (
	"sync"

	"github.com/standardbeagle/langd/internal/ids"
)

// Overlay is the quarantine layer: a Backend that shadows a base Backend
// with writes the daemon hasn't committed yet. Reads fall through to base
// unless the key (or its file) has been invalidated or overwritten inside
// the overlay. A query executed against a snapshot writes through an
// Overlay; Commit promotes its writes into base, Discard drops them.
type Overlay struct {
	base Backend

	mu            sync.Mutex
	writes        map[Key]overlayEntry
	tombstones    map[Key]struct{}
	fileTombstone map[ids.FileID]struct{}
}

type overlayEntry struct {
	hash  uint64
	value any
}

// NewOverlay creates a quarantine layer over base.
func NewOverlay(base Backend) *Overlay {
	return &Overlay{
		base:          base,
		writes:        make(map[Key]overlayEntry),
		tombstones:    make(map[Key]struct{}),
		fileTombstone: make(map[ids.FileID]struct{}),
	}
}

func (o *Overlay) Get(key Key, hash uint64) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, dead := o.fileTombstone[key.File]; dead {
		return nil, false
	}
	if _, dead := o.tombstones[key]; dead {
		return nil, false
	}
	if e, ok := o.writes[key]; ok {
		if e.hash != hash {
			return nil, false
		}
		return e.value, true
	}
	return o.base.Get(key, hash)
}

func (o *Overlay) Put(key Key, hash uint64, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.tombstones, key)
	o.writes[key] = overlayEntry{hash: hash, value: value}
}

func (o *Overlay) Invalidate(key Key) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.writes, key)
	o.tombstones[key] = struct{}{}
}

func (o *Overlay) InvalidateFile(file ids.FileID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.fileTombstone[file] = struct{}{}
	for k := range o.writes {
		if k.File == file {
			delete(o.writes, k)
		}
	}
}

// Clear discards all pending overlay state without touching base.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = make(map[Key]overlayEntry)
	o.tombstones = make(map[Key]struct{})
	o.fileTombstone = make(map[ids.FileID]struct{})
}

func (o *Overlay) Stats() Stats {
	o.mu.Lock()
	n := len(o.writes)
	o.mu.Unlock()
	base := o.base.Stats()
	base.Entries += n
	return base
}

// Discard is an alias for Clear, used at the quarantine rollback site for
// readability: the query's speculative writes never happened.
func (o *Overlay) Discard() {
	o.Clear()
}

// Commit promotes the overlay's writes and invalidations into base, then
// clears the overlay.
func (o *Overlay) Commit() {
	o.mu.Lock()
	writes := o.writes
	tombstones := o.tombstones
	fileTombstones := o.fileTombstone
	o.writes = make(map[Key]overlayEntry)
	o.tombstones = make(map[Key]struct{})
	o.fileTombstone = make(map[ids.FileID]struct{})
	o.mu.Unlock()

	for file := range fileTombstones {
		o.base.InvalidateFile(file)
	}
	for key := range tombstones {
		o.base.Invalidate(key)
	}
	for key, e := range writes {
		o.base.Put(key, e.hash, e.value)
	}
}
