// Build artifact detection for Go projects. Parses GoReleaser's config and
// the repo's Makefile to find output directories a source-file walk should
// never descend into.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds Go build output directories a repo's own
// tooling writes to, beyond the fixed exclusions defaultConfig already lists
// (vendor/, .git/, node_modules/).
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector.
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for Go build configuration files and
// extracts output directories. Returns glob patterns to exclude (e.g.
// "**/dist/**").
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	patterns = append(patterns, bad.detectGoReleaserOutputs()...)
	patterns = append(patterns, bad.detectMakefileOutputs()...)
	return patterns
}

// detectGoReleaserOutputs reads .goreleaser.toml's top-level "dist" key,
// the directory GoReleaser writes cross-compiled binaries and archives
// into (defaults to "dist" when the key is absent, which the caller's
// default exclusions already cover).
func (bad *BuildArtifactDetector) detectGoReleaserOutputs() []string {
	var patterns []string

	for _, name := range []string{".goreleaser.toml", ".goreleaser.yaml.toml"} {
		path := filepath.Join(bad.projectRoot, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg struct {
			Dist string `toml:"dist"`
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			continue
		}
		if cfg.Dist != "" {
			patterns = append(patterns, "**/"+cfg.Dist+"/**")
		}
	}

	return patterns
}

// detectMakefileOutputs scans the repo's Makefile for `go build -o <dir>/…`
// recipes, the way a Go project's own build target names its output
// directory (frequently "bin/" or "out/", never a fixed convention the way
// GOPATH once was).
func (bad *BuildArtifactDetector) detectMakefileOutputs() []string {
	var patterns []string

	for _, name := range []string{"Makefile", "makefile", "GNUmakefile"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.Contains(line, "go build") && !strings.Contains(line, "go install") {
				continue
			}
			dir, ok := outputDirFromBuildRecipe(line)
			if !ok {
				continue
			}
			patterns = append(patterns, "**/"+dir+"/**")
		}
	}

	return patterns
}

// outputDirFromBuildRecipe extracts the directory component of a `-o`
// flag's argument in a `go build`/`go install` recipe line, e.g.
// "go build -o bin/langd ./cmd/langd" yields "bin".
func outputDirFromBuildRecipe(line string) (string, bool) {
	fields := strings.Fields(line)
	for i, field := range fields {
		if field != "-o" || i+1 >= len(fields) {
			continue
		}
		target := fields[i+1]
		dir := filepath.Dir(filepath.ToSlash(target))
		if dir == "" || dir == "." {
			return "", false
		}
		return dir, true
	}
	return "", false
}

// DeduplicatePatterns removes duplicate exclusion patterns.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
