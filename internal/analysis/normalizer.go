package analysis

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Form selects one of the four canonical Unicode normalization forms
// (spec 4.5: "one of {NFC, NFD, NFKC, NFKD}").
type Form uint8

const (
	FormNFC Form = iota
	FormNFD
	FormNFKC
	FormNFKD
)

func (f Form) textForm() norm.Form {
	switch f {
	case FormNFD:
		return norm.NFD
	case FormNFKC:
		return norm.NFKC
	case FormNFKD:
		return norm.NFKD
	default:
		return norm.NFC
	}
}

// Normalizer applies Unicode normalization, optional case folding, and
// optional combining-mark stripping to each token's text. The actual
// decompose/reencode pass (including the library's internal growable
// scratch buffer) is golang.org/x/text/unicode/norm's — spec.md treats a
// language-normalization library as a consumed external dependency
// rather than something ixo reimplements.
type Normalizer struct {
	Form        Form
	CaseFold    bool
	StripMarks  bool
}

// NewNormalizer returns a Normalizer for the given form with casefold
// and mark-stripping both enabled, the common "search-friendly" preset.
func NewNormalizer(form Form) Normalizer {
	return Normalizer{Form: form, CaseFold: true, StripMarks: true}
}

// stripMarksTransformer removes Unicode combining marks after an NFD-
// style decomposition splits accented characters into base + mark.
var stripMarksTransformer = runes.Remove(runes.In(unicode.Mn))

// Normalize applies the configured pipeline to s.
func (n Normalizer) Normalize(s string) string {
	out := n.Form.textForm().String(s)
	if n.StripMarks {
		decomposed := norm.NFD.String(out)
		if stripped, _, err := transform.String(stripMarksTransformer, decomposed); err == nil {
			out = n.Form.textForm().String(stripped)
		}
	}
	if n.CaseFold {
		out = cases.Fold().String(out)
	}
	return out
}

// Filter implements TokenFilter: it rewrites tok.Text in place via
// Normalize, leaving offsets and increments untouched.
func (n Normalizer) Filter(tok Token) (Token, bool) {
	tok.Text = n.Normalize(tok.Text)
	if tok.Text == "" {
		return tok, false
	}
	return tok, true
}
