package daemon

import "github.com/standardbeagle/langd/internal/pathutil"

// docLoc is the wire shape every cursor-based query shares: a path, the
// line/col the editor's cursor sits at, and an optional unsaved-buffer
// override of that file's contents (nil means "read from the entry table
// or disk, whichever applies").
type docLoc struct {
	Path     string  `json:"path"`
	Contents *string `json:"contents,omitempty"`
	Line     int     `json:"line"`
	Col      int     `json:"col"`
}

func (d docLoc) repoPath() pathutil.Path {
	return pathutil.NewRepoPath(d.Path)
}

// initializeRequest is the body of the Initialize tag: spec.md §6's entry
// point into the daemon, sent exactly once per process lifetime.
type initializeRequest struct {
	Root                  string   `json:"root"`
	SavedStatePath        string   `json:"saved_state_path,omitempty"`
	UseRankedAutocomplete bool     `json:"use_ranked_autocomplete"`
	WatchEnabled          bool     `json:"watch_enabled"`
	WatchDebounceMs       int      `json:"watch_debounce_ms"`
	Include               []string `json:"include,omitempty"`
	Exclude               []string `json:"exclude,omitempty"`
}

type initializeResponse struct {
	NumChangedFilesToProcess int `json:"num_changed_files_to_process"`
}

type verboseRequest struct {
	Verbose bool `json:"verbose"`
}

type fileOpenedRequest struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

type fileClosedRequest struct {
	Path string `json:"path"`
}

type fileChangedRequest struct {
	Path string `json:"path"`
}

type completionRequest struct {
	DocLoc            docLoc `json:"doc_loc"`
	IsManuallyInvoked bool   `json:"is_manually_invoked"`
}

type completionResolveRequest struct {
	Symbol string `json:"symbol"`
}

type completionResolveLocationRequest struct {
	DocLoc docLoc `json:"doc_loc"`
}

type docLocRequest struct {
	DocLoc docLoc `json:"doc_loc"`
}

type documentSymbolRequest struct {
	Path string `json:"path"`
}

type typeCoverageRequest struct {
	Path     string  `json:"path"`
	Contents *string `json:"contents,omitempty"`
}

// processingNotification is the "Processing" notification the loop sends
// after draining one backlog path, reporting progress against the
// backlog.Processor denominator: seeded by SeedMany at Initialize time and
// grown by each later Enqueue of a new path.
type processingNotification struct {
	Tag       string `json:"tag"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// doneNotification is the "Done" notification the loop sends once the
// backlog empties, including when Initialize found nothing to queue.
type doneNotification struct {
	Tag string `json:"tag"`
}

// responseEnvelope wraps every successful handler result with the
// wall-clock time the loop unblocked to process the request, per spec.md
// §6's Response shape.
type responseEnvelope struct {
	UnblockedTime string `json:"unblocked_time"`
	Result        any    `json:"result,omitempty"`
}
