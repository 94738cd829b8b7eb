// Package cachectx provides the storage backend shared by the daemon's
// shared cache layers (Shallow-Decl, Folded-Decl, Linearization; the AST and
// TAST live on entrytable.Entry instead). Each layer stores entries keyed by
// file and symbol, gated on a content hash so
// a Put for content the backend already holds is a no-op beyond a touch.
package cachectx

import (
	"time"

	"github.com/standardbeagle/langd/internal/ids"
)

// Key addresses a single cache entry: a file and a symbol within it.
type Key struct {
	File   ids.FileID
	Symbol ids.SymbolID
}

// Stats summarizes a Backend's hit/miss/eviction behavior, surfaced through
// the daemon's telemetry ticker.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Entries    int
	CreatedAt  time.Time
	LastAccess time.Time
}

// Backend is the storage contract a layered cache uses. Reuse is gated on
// hash: Get reports a hit only when the stored hash matches what the caller
// already has in hand, so a stale entry under an unchanged key still misses.
type Backend interface {
	Get(key Key, hash uint64) (value any, ok bool)
	Put(key Key, hash uint64, value any)
	Invalidate(key Key)
	InvalidateFile(file ids.FileID)
	Clear()
	Stats() Stats
}
