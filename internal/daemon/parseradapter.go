package daemon

import (
	"errors"
	"os"

	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/parse"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// diskParser adapts internal/parse.Parser (which takes contents the caller
// already read) to backlog.Parser's narrower contract (a bare path — the
// implementation is expected to read disk itself). The backlog processor
// only ever calls this for RootRepo paths the watcher or Initialize's
// ChangedSince walk reported.
type diskParser struct {
	parser   *parse.Parser
	resolver *PathResolver
}

func newDiskParser(parser *parse.Parser, resolver *PathResolver) *diskParser {
	return &diskParser{parser: parser, resolver: resolver}
}

// ParseFileInfo implements backlog.Parser. A missing file, or one whose
// extension isn't recognized source, yields (nil, nil) — Trigger B treats
// that as "the path defines nothing now", not a failure.
func (d *diskParser) ParseFileInfo(path pathutil.Path) (*naming.FileInfo, error) {
	if !isGoSource(path.Rel) {
		return nil, nil
	}

	contents, err := d.resolver.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	return d.parser.ParseFileInfo(path, []byte(contents))
}

func isGoSource(rel string) bool {
	n := len(rel)
	return n > 3 && rel[n-3:] == ".go"
}
