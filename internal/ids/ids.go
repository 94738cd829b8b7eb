// Package ids holds the small set of identifier types shared across the
// daemon's cache layers.
package ids

// FileID identifies a file within the forward naming table. Stable for the
// lifetime of a daemon run; never reused after a file is removed.
type FileID uint32

// SymbolID identifies a single symbol definition. Raw index into whichever
// table produced it; not a packed composite (see idcodec.EncodeComposite for
// that).
type SymbolID uint64
