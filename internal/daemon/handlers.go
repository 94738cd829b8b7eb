package daemon

import (
	"encoding/json"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/config"
	"github.com/standardbeagle/langd/internal/debug"
	"github.com/standardbeagle/langd/internal/errors"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/query"
)

type handlerFunc func(d *Daemon, body json.RawMessage) (any, *errors.DaemonError)

type registration struct {
	handler         handlerFunc
	expectsResponse bool
}

// registry maps every request tag spec.md §6 lists, besides Initialize
// and Shutdown which the dispatcher special-cases, to its handler.
// Verbose and FileChanged are notification-style: the editor doesn't wait
// on a reply, so their handlers run for effect only.
var registry = map[string]registration{
	"Verbose":                   {handleVerbose, false},
	"FileChanged":               {handleFileChanged, false},
	"FileOpened":                {handleFileOpened, true},
	"FileClosed":                {handleFileClosed, true},
	"Hover":                     {handleHover, true},
	"Completion":                {handleCompletion, true},
	"CompletionResolve":         {handleCompletionResolve, true},
	"CompletionResolveLocation": {handleCompletionResolveLocation, true},
	"DocumentHighlight":         {handleDocumentHighlight, true},
	"SignatureHelp":             {handleSignatureHelp, true},
	"Definition":                {handleDefinition, true},
	"TypeDefinition":            {handleTypeDefinition, true},
	"DocumentSymbol":            {handleDocumentSymbol, true},
	"TypeCoverage":              {handleTypeCoverage, true},
}

func configFromInitializeRequest(req initializeRequest) *config.Config {
	cfg := &config.Config{
		Project:      config.Project{Root: req.Root},
		SavedState:   config.SavedState{Path: req.SavedStatePath},
		Autocomplete: config.Autocomplete{UseRanked: req.UseRankedAutocomplete},
		Watch:        config.Watch{Enabled: req.WatchEnabled, DebounceMs: req.WatchDebounceMs},
		Include:      req.Include,
		Exclude:      req.Exclude,
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 300
	}
	return cfg
}

// deps builds the query.Deps bundle handlers need from the daemon's
// initialized state. Cheap enough to build fresh per request — every
// field is a pointer or closure over state the daemon already owns.
func (d *Daemon) deps() query.Deps {
	return query.Deps{
		FNT:      d.st.FNT,
		RNT:      d.st.RNT,
		Entries:  d.st.Entries,
		Parser:   d.st.Parser,
		Index:    d.st.Index,
		ReadDisk: d.st.Resolver.ReadFile,
	}
}

// withQuarantine runs fn inside a fresh quarantine session and always
// discards it afterward — per spec.md §4.2, speculative writes made
// against possibly-unsaved content must never promote into the shared
// cache layers, regardless of whether fn succeeded.
func (d *Daemon) withQuarantine(fn func(qs *cachectx.QuarantineSession)) {
	qs := d.st.Cache.Begin()
	defer qs.Discard()
	fn(qs)
}

func handleVerbose(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req verboseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("Verbose", err, "")
	}
	d.verbose = req.Verbose
	return nil, nil
}

func handleFileChanged(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req fileChangedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("FileChanged", err, "")
	}
	d.st.Backlog.Enqueue(pathutil.NewRepoPath(req.Path))
	return nil, nil
}

func handleFileOpened(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req fileOpenedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("FileOpened", err, "")
	}
	d.ensureStubsPresent()
	path := pathutil.NewRepoPath(req.Path)
	_, changed := d.st.Entries.Open(path, req.Contents)
	d.st.Engine.EntryMutated(path, changed)
	return struct{}{}, nil
}

// ensureStubsPresent implements spec.md §4.7: before any entry-creating
// operation, confirm the materialized stdlib stubs directory is still on
// disk and still looks like Go source, re-materializing under a fresh
// path if an external cleaner removed it. Only the PathResolver's prefix
// changes — no cache is invalidated, since the stubs' content is
// unchanged, only its location.
func (d *Daemon) ensureStubsPresent() {
	dir, recreated, err := d.st.Stubs.EnsurePresent()
	if err != nil {
		debug.LogIndexing("failed to re-materialize stdlib stubs: %v", err)
		return
	}
	if recreated {
		d.st.Resolver.SetStdlibRoot(dir)
	}
}

func handleFileClosed(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req fileClosedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("FileClosed", err, "")
	}
	path := pathutil.NewRepoPath(req.Path)
	if _, ok := d.st.Entries.Close(path); ok {
		d.st.Engine.EntryMutated(path, true)
	}
	return struct{}{}, nil
}

func handleHover(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req docLocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("Hover", err, "")
	}
	var result any
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, herr = query.Hover(d.deps(), d.st.Cache, qs, req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("Hover", herr, "")
	}
	return result, nil
}

func handleCompletion(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req completionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("Completion", err, "")
	}
	var result []query.CompletionItem
	var herr error
	// query.Completion answers entirely out of the symbol-index env and
	// never touches a shared cache layer, but spec.md §4.2 lists
	// "completion" among the quarantine-using handlers, so it runs under
	// one for the same reason handleDocumentHighlight does: conformance
	// now, headroom for the day it starts consulting a cache.
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, herr = query.Completion(d.deps(), req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col, d.st.UseRankedAutocomplete)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("Completion", herr, "")
	}
	return result, nil
}

func handleCompletionResolve(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req completionResolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("CompletionResolve", err, "")
	}
	result, _, err := query.CompletionResolve(d.deps(), d.st.Cache, req.Symbol)
	if err != nil {
		return nil, errors.NewHandlerUncaught("CompletionResolve", err, "")
	}
	return result, nil
}

func handleCompletionResolveLocation(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req completionResolveLocationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("CompletionResolveLocation", err, "")
	}
	var result any
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, _, herr = query.CompletionResolveLocation(d.deps(), d.st.Cache, qs, req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("CompletionResolveLocation", herr, "")
	}
	return result, nil
}

func handleDocumentHighlight(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req docLocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("DocumentHighlight", err, "")
	}
	var result []query.Location
	var herr error
	// query.DocumentHighlight never touches a shared cache layer today —
	// it only scans path's own text — but spec.md §4.2 lists it among
	// the quarantine-using handlers, so it runs under one for the same
	// reason handleDefinition does: conformance now, headroom for the
	// day either handler starts consulting a cache.
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, herr = query.DocumentHighlight(d.deps(), req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("DocumentHighlight", herr, "")
	}
	return result, nil
}

func handleSignatureHelp(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req docLocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("SignatureHelp", err, "")
	}
	var result any
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, herr = query.SignatureHelp(d.deps(), d.st.Cache, qs, req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("SignatureHelp", herr, "")
	}
	return result, nil
}

func handleDefinition(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req docLocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("Definition", err, "")
	}
	var result query.Location
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, _, herr = query.Definition(d.deps(), req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("Definition", herr, "")
	}
	return result, nil
}

func handleTypeDefinition(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req docLocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("TypeDefinition", err, "")
	}
	var result query.Location
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, _, herr = query.TypeDefinition(d.deps(), d.st.Cache, qs, req.DocLoc.repoPath(), req.DocLoc.Contents, req.DocLoc.Line, req.DocLoc.Col)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("TypeDefinition", herr, "")
	}
	return result, nil
}

func handleDocumentSymbol(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req documentSymbolRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("DocumentSymbol", err, "")
	}
	result, err := query.DocumentSymbol(d.deps(), pathutil.NewRepoPath(req.Path))
	if err != nil {
		return nil, errors.NewHandlerUncaught("DocumentSymbol", err, "")
	}
	return result, nil
}

func handleTypeCoverage(d *Daemon, body json.RawMessage) (any, *errors.DaemonError) {
	var req typeCoverageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewHandlerUncaught("TypeCoverage", err, "")
	}
	var result any
	var herr error
	d.withQuarantine(func(qs *cachectx.QuarantineSession) {
		result, herr = query.TypeCoverage(d.deps(), d.st.Cache, qs, pathutil.NewRepoPath(req.Path), req.Contents)
	})
	if herr != nil {
		return nil, errors.NewHandlerUncaught("TypeCoverage", herr, "")
	}
	return result, nil
}
