package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Autocomplete.UseRanked)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
	assert.True(t, cfg.Stubs.ValidateHeader)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseKDL_WatchConfig(t *testing.T) {
	kdlContent := `
watch {
    enabled false
    debounce_ms 750
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 750, cfg.Watch.DebounceMs)
}

func TestParseKDL_AutocompleteDisabled(t *testing.T) {
	kdlContent := `
autocomplete {
    use_ranked false
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.False(t, cfg.Autocomplete.UseRanked)
}

func TestParseKDL_StubsConfig(t *testing.T) {
	kdlContent := `
stubs {
    materialize_dir "/tmp/langd-stubs"
    validate_header false
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/tmp/langd-stubs", cfg.Stubs.MaterializeDir)
	assert.False(t, cfg.Stubs.ValidateHeader)
}

func TestParseKDL_LogConfig(t *testing.T) {
	kdlContent := `
log {
    level "debug"
    file "/var/log/langd.log"
    verbose true
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/langd.log", cfg.Log.File)
	assert.True(t, cfg.Log.Verbose)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
project {
    root "."
    name "test-project"
}

saved_state {
    path "/tmp/state.gob"
}

watch {
    enabled true
    debounce_ms 500
}

autocomplete {
    use_ranked true
}

exclude "**/.git/**" "**/node_modules/**"
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "test-project", cfg.Project.Name)
	assert.Equal(t, "/tmp/state.gob", cfg.SavedState.Path)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.True(t, cfg.Autocomplete.UseRanked)
	assert.Contains(t, cfg.Exclude, "**/.git/**")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}
