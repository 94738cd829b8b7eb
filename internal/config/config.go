package config

import (
	"os"
	"path/filepath"
)

// Config holds the daemon's startup configuration: where the repository
// lives, where to find (or skip) a saved-state blob, watcher and
// autocomplete behavior, and the include/exclude glob set that bounds
// what the forward naming table ever sees.
type Config struct {
	Version     int
	Project     Project
	SavedState  SavedState
	Autocomplete Autocomplete
	Watch       Watch
	Stubs       Stubs
	Log         Log
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

// SavedState controls the opaque saved-state blob the daemon loads on
// Initialize to skip re-walking a repository that hasn't changed much.
type SavedState struct {
	Path string // empty means "no saved state; full walk"
}

// Autocomplete controls completion ranking behavior.
type Autocomplete struct {
	UseRanked bool // fuzzy-rank candidates via the symbol-index env; off = alphabetical
}

// Watch controls the filesystem watcher that feeds the change backlog.
type Watch struct {
	Enabled    bool
	DebounceMs int
}

// Stubs controls materialization of the standard-library stub sources
// used by the shallow-decl extractor to resolve common stdlib identifiers.
type Stubs struct {
	MaterializeDir string // empty means os.MkdirTemp picks a location
	ValidateHeader bool   // re-validate an externally-touched stub dir before reuse
}

// Log controls the structured logger's level and destination.
type Log struct {
	Level   string // "debug", "info", "warn", "error"
	File    string // empty means stderr
	Verbose bool
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	// Step 1: global base config from ~/.langd.kdl, if present.
	homeDir, err := os.UserHomeDir()
	var baseConfig *Config
	if err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: project-specific config.
	var projectConfig *Config
	if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	// Step 3: merge (project overrides base, base exclusions are kept too).
	if baseConfig != nil && projectConfig != nil {
		return mergeConfigs(baseConfig, projectConfig), nil
	} else if projectConfig != nil {
		return projectConfig, nil
	} else if baseConfig != nil {
		baseConfig.Project.Root = searchDir
		return baseConfig, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg := defaultConfig(cwd)
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

func defaultConfig(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: filepath.Base(root)},
		SavedState: SavedState{
			Path: filepath.Join(root, ".langd", "state.gob"),
		},
		Autocomplete: Autocomplete{UseRanked: true},
		Watch: Watch{
			Enabled:    true,
			DebounceMs: 300,
		},
		Stubs: Stubs{ValidateHeader: true},
		Log: Log{Level: "info"},
		Include: []string{},
		Exclude: []string{
			"**/.git/**",
			"**/.*/**",
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
			"**/out/**",
			"**/target/**",
			"**/bin/**",
			"**/obj/**",
			"**/__pycache__/**",
			"**/*.pyc",
			"**/Thumbs.db",
			"**/desktop.ini",
			"**/logs/**",
			"**/*.log",
		},
	}
}

// mergeConfigs merges a base config with a project config. Project takes
// precedence, but base exclusions are kept alongside project exclusions.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		excludeMap := make(map[string]bool)
		for _, pattern := range base.Exclude {
			excludeMap[pattern] = true
		}
		for _, pattern := range project.Exclude {
			excludeMap[pattern] = true
		}
		merged.Exclude = make([]string, 0, len(excludeMap))
		for pattern := range excludeMap {
			merged.Exclude = append(merged.Exclude, pattern)
		}
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects Go build output directories
// from project config files (GoReleaser, Makefile) and adds them to the
// exclusion list.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detectedPatterns := detector.DetectOutputDirectories()

	if len(detectedPatterns) > 0 {
		c.Exclude = append(c.Exclude, detectedPatterns...)
		c.Exclude = DeduplicatePatterns(c.Exclude)
	}
}
