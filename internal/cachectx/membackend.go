package cachectx

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/langd/internal/ids"
)

// DefaultMaxEntries bounds a MemBackend's entry count absent an explicit
// MemBackendConfig. Chosen to hold a mid-size repository's worth of
// shallow-decl or folded-decl entries without unbounded growth between
// invalidation passes.
const DefaultMaxEntries = 4096

type entry struct {
	hash     uint64
	value    any
	storedAt int64
}

// MemBackend is an in-memory Backend backed by sync.Map, sized for a single
// daemon process's lifetime. Unlike a TTL cache, entries live exactly as
// long as the Invalidation Engine leaves them alone; MemBackend only evicts
// on its own when MaxEntries is exceeded.
type MemBackend struct {
	entries sync.Map // map[Key]*entry

	maxEntries int

	hits      int64
	misses    int64
	evictions int64
	count     int64

	createdAt  time.Time
	lastAccess int64
}

// MemBackendConfig configures a MemBackend. Zero value uses DefaultMaxEntries.
type MemBackendConfig struct {
	MaxEntries int
}

// NewMemBackend creates an empty MemBackend.
func NewMemBackend(cfg MemBackendConfig) *MemBackend {
	max := cfg.MaxEntries
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &MemBackend{
		maxEntries: max,
		createdAt:  time.Now(),
		lastAccess: time.Now().UnixNano(),
	}
}

func (mb *MemBackend) Get(key Key, hash uint64) (any, bool) {
	atomic.StoreInt64(&mb.lastAccess, time.Now().UnixNano())

	v, ok := mb.entries.Load(key)
	if !ok {
		atomic.AddInt64(&mb.misses, 1)
		return nil, false
	}
	e := v.(*entry)
	if e.hash != hash {
		atomic.AddInt64(&mb.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&mb.hits, 1)
	return e.value, true
}

func (mb *MemBackend) Put(key Key, hash uint64, value any) {
	e := &entry{hash: hash, value: value, storedAt: time.Now().UnixNano()}
	if _, loaded := mb.entries.LoadOrStore(key, e); loaded {
		mb.entries.Store(key, e)
		return
	}
	if count := atomic.AddInt64(&mb.count, 1); count > int64(mb.maxEntries) {
		mb.evictOldest()
	}
}

func (mb *MemBackend) Invalidate(key Key) {
	if _, loaded := mb.entries.LoadAndDelete(key); loaded {
		atomic.AddInt64(&mb.count, -1)
		atomic.AddInt64(&mb.evictions, 1)
	}
}

func (mb *MemBackend) InvalidateFile(file ids.FileID) {
	mb.entries.Range(func(k, _ any) bool {
		if k.(Key).File == file {
			mb.Invalidate(k.(Key))
		}
		return true
	})
}

func (mb *MemBackend) Clear() {
	mb.entries.Range(func(k, _ any) bool {
		mb.entries.Delete(k)
		return true
	})
	atomic.StoreInt64(&mb.count, 0)
	atomic.StoreInt64(&mb.hits, 0)
	atomic.StoreInt64(&mb.misses, 0)
	atomic.StoreInt64(&mb.evictions, 0)
}

func (mb *MemBackend) Stats() Stats {
	return Stats{
		Hits:       atomic.LoadInt64(&mb.hits),
		Misses:     atomic.LoadInt64(&mb.misses),
		Evictions:  atomic.LoadInt64(&mb.evictions),
		Entries:    int(atomic.LoadInt64(&mb.count)),
		CreatedAt:  mb.createdAt,
		LastAccess: time.Unix(0, atomic.LoadInt64(&mb.lastAccess)),
	}
}

func (mb *MemBackend) evictOldest() {
	var oldestKey any
	oldestTime := time.Now().UnixNano()

	mb.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		if e.storedAt < oldestTime {
			oldestTime = e.storedAt
			oldestKey = k
		}
		return true
	})

	if oldestKey != nil {
		if _, loaded := mb.entries.LoadAndDelete(oldestKey); loaded {
			atomic.AddInt64(&mb.count, -1)
			atomic.AddInt64(&mb.evictions, 1)
		}
	}
}
