package config

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// GitignoreParser loads a repository's .gitignore and exposes it both as a
// direct path predicate and as a set of daemon exclusion glob patterns, so
// watcher startup can fold gitignore rules into the same Include/Exclude
// mechanism used for everything else.
type GitignoreParser struct {
	matcher *gitignore.GitIgnore
	lines   []string
}

// NewGitignoreParser creates an empty parser; call LoadGitignore or
// AddPattern to populate it.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from rootPath/.gitignore. A missing file is
// not an error — the parser just stays empty.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	gitignorePath := filepath.Join(rootPath, ".gitignore")

	data, err := os.ReadFile(gitignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return gp.loadLines(splitLines(string(data)))
}

// AddPattern adds a single gitignore line to the parser (used by tests).
func (gp *GitignoreParser) AddPattern(line string) {
	_ = gp.loadLines(append(append([]string{}, gp.lines...), line))
}

func (gp *GitignoreParser) loadLines(lines []string) error {
	gp.lines = lines
	gp.matcher = gitignore.CompileIgnoreLines(lines...)
	return nil
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

// ShouldIgnore reports whether path matches one of the loaded gitignore
// patterns. isDir is accepted for API symmetry with the watcher's callers;
// go-gitignore matches directory patterns against the path itself.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	if gp.matcher == nil {
		return false
	}
	p := filepath.ToSlash(path)
	if isDir && len(p) > 0 && p[len(p)-1] != '/' {
		p += "/"
	}
	return gp.matcher.MatchesPath(p)
}

// GetExclusionPatterns renders the loaded gitignore lines as daemon
// exclusion globs, so they can be folded into Config.Exclude at startup.
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, line := range gp.lines {
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		exclusions = append(exclusions, "**/"+line)
	}
	return exclusions
}
