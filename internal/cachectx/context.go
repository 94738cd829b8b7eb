package cachectx

import "sync"

// Layer names one of the daemon's process-wide shared cache tiers. AST and
// TAST are deliberately absent: both are per-open-buffer (see
// internal/entrytable.Entry), consulted directly by the quarantine protocol
// before it ever reaches these shared layers, and never shared across
// entries — so they have no Backend here.
type Layer int

const (
	LayerShallowDecl Layer = iota
	LayerFoldedDecl
	LayerLinearization
)

var allLayers = []Layer{LayerShallowDecl, LayerFoldedDecl, LayerLinearization}

func (l Layer) String() string {
	switch l {
	case LayerShallowDecl:
		return "shallow-decl"
	case LayerFoldedDecl:
		return "folded-decl"
	case LayerLinearization:
		return "linearization"
	default:
		return "unknown"
	}
}

// Context bundles the live Backend for every cache layer and tracks at
// most one active quarantine session at a time, matching the daemon
// loop's single-writer discipline: only one query speculates while the
// loop processes it.
type Context struct {
	mu     sync.RWMutex
	live   map[Layer]Backend
	active *QuarantineSession
}

// NewContext creates a Context with a fresh MemBackend per layer.
func NewContext() *Context {
	live := make(map[Layer]Backend, len(allLayers))
	for _, l := range allLayers {
		live[l] = NewMemBackend(MemBackendConfig{})
	}
	return &Context{live: live}
}

// Layer returns the live backend for direct, non-speculative access — used
// by the backlog processor once a change is committed and by query
// handlers that don't need quarantine (DocumentSymbol, Hover on disk
// content).
func (c *Context) Layer(layer Layer) Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live[layer]
}

// Begin starts a quarantine session: every layer gets an Overlay seeded
// from its live backend. Writes inside the session are invisible to
// Layer() callers until the session Commits.
func (c *Context) Begin() *QuarantineSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	overlays := make(map[Layer]*Overlay, len(c.live))
	for layer, backend := range c.live {
		overlays[layer] = NewOverlay(backend)
	}
	session := &QuarantineSession{ctx: c, overlays: overlays}
	c.active = session
	return session
}

// Active reports the in-flight quarantine session, if any.
func (c *Context) Active() *QuarantineSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Context) end(s *QuarantineSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}

// QuarantineSession is the speculative-execution boundary a query runs
// inside of. Exactly one of Commit or Discard ends it; calling either a
// second time is a no-op.
type QuarantineSession struct {
	ctx      *Context
	overlays map[Layer]*Overlay
	done     bool
}

// Layer returns the session's Overlay for layer, to be used in place of
// Context.Layer while the session is open.
func (s *QuarantineSession) Layer(layer Layer) Backend {
	return s.overlays[layer]
}

// Commit promotes every layer's overlay writes into the live backend.
func (s *QuarantineSession) Commit() {
	if s.done {
		return
	}
	for _, o := range s.overlays {
		o.Commit()
	}
	s.done = true
	if s.ctx != nil {
		s.ctx.end(s)
	}
}

// Discard drops every layer's overlay writes; the live backends are
// untouched.
func (s *QuarantineSession) Discard() {
	if s.done {
		return
	}
	for _, o := range s.overlays {
		o.Discard()
	}
	s.done = true
	if s.ctx != nil {
		s.ctx.end(s)
	}
}
