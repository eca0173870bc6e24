package ixconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.MergePolicy.MergeFactor)
	assert.Equal(t, "default", cfg.Analysis.DefaultAnalyzer)
	assert.False(t, cfg.Watch.Enabled)
}

func TestLoadKDLOverridesDefaults(t *testing.T) {
	doc := `
storage {
  path "/var/lib/ixo"
}
merge_policy {
  merge_factor 20
}
analysis {
  default_analyzer "stemmed"
  stemming {
    enabled true
    algorithm "porter2"
    min_length 4
    exclusions "api" "http"
  }
}
locks {
  max_retry_attempts 10
}
search {
  fuzzy_max_expansions 25
}
watch {
  enabled true
  debounce_ms 500
}
`
	cfg, err := LoadKDL(doc)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ixo", cfg.Storage.Path)
	assert.Equal(t, 20, cfg.MergePolicy.MergeFactor)
	assert.Equal(t, "stemmed", cfg.Analysis.DefaultAnalyzer)
	assert.True(t, cfg.Analysis.Stemming.Enabled)
	assert.Equal(t, 4, cfg.Analysis.Stemming.MinLength)
	assert.Equal(t, []string{"api", "http"}, cfg.Analysis.Stemming.Exclusions)
	assert.Equal(t, 10, cfg.Locks.MaxRetryAttempts)
	assert.Equal(t, 25, cfg.Search.FuzzyMaxExpansions)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestLoadKDLEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := LoadKDL("")
	require.NoError(t, err)
	assert.Equal(t, Default().MergePolicy, cfg.MergePolicy)
}
