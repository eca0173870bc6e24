// Package ixconfig loads ixo's index-level configuration from an
// ixo.kdl file, grounded on the teacher's internal/config package: a
// Config struct of plain sections with sane defaults, populated by
// walking a parsed KDL document rather than a generic struct-tag
// decoder (spec_full 1, "Configuration").
package ixconfig

import "runtime"

// Config governs storage path, merge policy tunables, analyzer
// defaults, lock timeouts, and NRT watch behavior for one index.
type Config struct {
	Storage     Storage
	MergePolicy MergePolicy
	Analysis    Analysis
	Locks       Locks
	Search      Search
	Performance Performance
	Watch       Watch
}

// Storage configures where and how an index's Folder is rooted.
type Storage struct {
	Path string
}

// MergePolicy tunes the Tiered merge policy (spec 4.6).
type MergePolicy struct {
	MergeFactor          int
	MaxMergedSegmentSize int64
	MinSegmentsPerTier    int
}

// Analysis configures the default analyzer chain.
type Analysis struct {
	DefaultAnalyzer string
	Stemming        StemmingConfig
}

// StemmingConfig mirrors the teacher's StemmingConfig shape
// (internal/semantic's TranslationDictionary.StemmingConfig).
type StemmingConfig struct {
	Enabled    bool
	Algorithm  string
	MinLength  int
	Exclusions []string
}

// Locks configures LockFactory retry/backoff (spec_full 4.7, grounded
// on the teacher's IndexLockManager).
type Locks struct {
	MaxRetryAttempts int
	StaleTimeoutMs   int
	RetryBackoffMs   int
}

// Search configures query-time defaults.
type Search struct {
	FuzzyMaxExpansions int
	FuzzyAlgorithm     string // "levenshtein" | "jaro_winkler"
	DefaultMaxResults  int
}

// Performance configures concurrency knobs.
type Performance struct {
	ParallelFileWorkers int
}

// Watch configures the optional NRT fsnotify watcher.
type Watch struct {
	Enabled     bool
	DebounceMs  int
}

// Default returns a Config with the same conservative defaults the
// teacher's parseKDL seeds before overlaying a parsed document.
func Default() *Config {
	return &Config{
		Storage: Storage{Path: "."},
		MergePolicy: MergePolicy{
			MergeFactor:          10,
			MaxMergedSegmentSize: 5 * 1024 * 1024 * 1024,
			MinSegmentsPerTier:   2,
		},
		Analysis: Analysis{
			DefaultAnalyzer: "default",
			Stemming:        StemmingConfig{Enabled: false, Algorithm: "porter2", MinLength: 3},
		},
		Locks: Locks{
			MaxRetryAttempts: 5,
			StaleTimeoutMs:   30_000,
			RetryBackoffMs:   100,
		},
		Search: Search{
			FuzzyMaxExpansions: 50,
			FuzzyAlgorithm:     "levenshtein",
			DefaultMaxResults:  100,
		},
		Performance: Performance{
			ParallelFileWorkers: runtime.NumCPU(),
		},
		Watch: Watch{Enabled: false, DebounceMs: 200},
	}
}
