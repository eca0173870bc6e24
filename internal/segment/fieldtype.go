// Package segment implements per-segment metadata: the field-number
// table, the FieldType registry a Schema resolves field names against,
// and segmeta.json persistence (spec 3, 4.6).
package segment

import "github.com/standardbeagle/ixo/internal/ixtypes"

// FieldType determines how a field's values are stored and queried:
// whether it is indexed/stored/highlightable, which primitive container
// holds its values, and which analyzer and posting variant apply.
type FieldType struct {
	Primitive      ixtypes.Primitive
	Indexed        bool
	Stored         bool
	Highlightable  bool
	Analyzer       string // name resolved against the analysis registry
	Similarity     string // name carried from a schema document; exec does not read it
	PostingVariant ixtypes.PostingVariant
	SkipInterval   int // 0 = use package default
	IndexInterval  int // 0 = use package default

	Stemming StemmingOptions
}

// StemmingOptions configures the optional stem filter stage (spec
// SPEC_FULL 4.5: analysis.StemFilter).
type StemmingOptions struct {
	Enabled    bool
	MinLength  int
	Exclusions map[string]struct{}
}

// TextField returns the FieldType preset for free-text search: indexed,
// stored, rich postings (freq + positions), default analyzer.
func TextField() FieldType {
	return FieldType{
		Primitive:      ixtypes.PrimitiveText,
		Indexed:        true,
		Stored:         true,
		Highlightable:  true,
		Analyzer:       "default",
		PostingVariant: ixtypes.PostingRich,
	}
}

// KeywordField returns the preset for an untokenized exact-match field:
// indexed match-only, stored, analyzed by the "keyword" analyzer into
// one untokenized, case-folded token.
func KeywordField() FieldType {
	return FieldType{
		Primitive:      ixtypes.PrimitiveText,
		Indexed:        true,
		Stored:         true,
		Analyzer:       "keyword",
		PostingVariant: ixtypes.PostingMatchOnly,
	}
}

// StoredOnlyField returns a preset for a value that is retrievable but
// never searched (no posting stream is written for it).
func StoredOnlyField(p ixtypes.Primitive) FieldType {
	return FieldType{Primitive: p, Stored: true}
}

// NumericField returns the preset for an indexed, stored numeric field
// of the given width (score-only postings: docs either contain the
// value or don't, no positions).
func NumericField(p ixtypes.Primitive) FieldType {
	return FieldType{
		Primitive:      p,
		Indexed:        true,
		Stored:         true,
		PostingVariant: ixtypes.PostingScoreOnly,
	}
}

// WithStemming returns a copy of ft with its Stemming options set (spec_full
// 4.5, grounded on the teacher's Stemmer.Stem min-length gate and
// exclusion set). The Inverter does not read Stemming: whether a field's
// tokens are stemmed depends only on the analyzer named by Analyzer.
func (ft FieldType) WithStemming(enabled bool, minLength int, exclusions ...string) FieldType {
	ex := make(map[string]struct{}, len(exclusions))
	for _, w := range exclusions {
		ex[w] = struct{}{}
	}
	ft.Stemming = StemmingOptions{Enabled: enabled, MinLength: minLength, Exclusions: ex}
	return ft
}
