package analysis

import (
	"strings"

	"github.com/surgebase/porter2"
)

// StemFilter runs the Porter2 stemming algorithm over surviving tokens,
// grounded on the teacher's Stemmer.Stem (internal/semantic/stemmer.go):
// a minimum-length gate and a lower-cased exclusion set, both checked
// before stemming, with stemming skipped entirely when disabled.
type StemFilter struct {
	Enabled    bool
	MinLength  int
	Exclusions map[string]struct{}
}

// NewStemFilter builds a StemFilter from exclusion words, lower-casing
// them the way the teacher's AddExclusion does.
func NewStemFilter(enabled bool, minLength int, exclusions ...string) StemFilter {
	ex := make(map[string]struct{}, len(exclusions))
	for _, w := range exclusions {
		ex[strings.ToLower(w)] = struct{}{}
	}
	if minLength < 0 {
		minLength = 3
	}
	return StemFilter{Enabled: enabled, MinLength: minLength, Exclusions: ex}
}

func (f StemFilter) Filter(tok Token) (Token, bool) {
	if !f.Enabled {
		return tok, true
	}
	if _, excluded := f.Exclusions[strings.ToLower(tok.Text)]; excluded {
		return tok, true
	}
	if len(tok.Text) < f.MinLength {
		return tok, true
	}
	tok.Text = porter2.Stem(tok.Text)
	return tok, true
}
