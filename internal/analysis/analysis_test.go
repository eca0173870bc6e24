package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordTokenizerOffsetsAreCodePoints(t *testing.T) {
	toks := WordTokenizer{}.Tokenize("café bar")
	require.Len(t, toks, 2)
	assert.Equal(t, "café", toks[0].Text)
	assert.Equal(t, int32(0), toks[0].StartOffset)
	assert.Equal(t, int32(4), toks[0].EndOffset) // 4 code points, not 5 bytes
	assert.Equal(t, "bar", toks[1].Text)
}

func TestKeywordTokenizerSingleToken(t *testing.T) {
	toks := KeywordTokenizer{}.Tokenize("Exact-Match Value")
	require.Len(t, toks, 1)
	assert.Equal(t, "Exact-Match Value", toks[0].Text)
}

func TestNormalizerCaseFoldAndMarkStrip(t *testing.T) {
	n := NewNormalizer(FormNFC)
	got := n.Normalize("Café")
	assert.Equal(t, "cafe", got)
}

func TestNormalizerIdempotent(t *testing.T) {
	n := NewNormalizer(FormNFC)
	once := n.Normalize("Café RÉSUMÉ")
	twice := n.Normalize(once)
	assert.Equal(t, once, twice)
}

func TestStemFilterAppliesPorter2(t *testing.T) {
	sf := NewStemFilter(true, 3)
	tok, keep := sf.Filter(NewToken("running", 0, 7))
	require.True(t, keep)
	assert.Equal(t, "run", tok.Text)
}

func TestStemFilterRespectsExclusions(t *testing.T) {
	sf := NewStemFilter(true, 3, "API")
	tok, keep := sf.Filter(NewToken("API", 0, 3))
	require.True(t, keep)
	assert.Equal(t, "API", tok.Text)
}

func TestStemFilterMinLengthGate(t *testing.T) {
	sf := NewStemFilter(true, 5)
	tok, keep := sf.Filter(NewToken("run", 0, 3))
	require.True(t, keep)
	assert.Equal(t, "run", tok.Text) // below min length, unchanged
}

func TestDefaultAnalyzerProducesInversion(t *testing.T) {
	inv := DefaultAnalyzer().Analyze("The Quick Brown Fox")
	assert.Equal(t, 4, inv.Len())
}

func TestInvertSortsByTextThenPosition(t *testing.T) {
	inv := NewInversion([]Token{
		NewToken("fox", 0, 3),
		NewToken("ate", 4, 7),
		NewToken("fox", 8, 11),
	})
	sorted := inv.Invert()
	require.Len(t, sorted, 3)
	assert.Equal(t, "ate", sorted[0].Text)
	assert.Equal(t, "fox", sorted[1].Text)
	assert.Equal(t, "fox", sorted[2].Text)
	assert.Less(t, sorted[1].Position, sorted[2].Position)
}

func TestInvertIsIdempotent(t *testing.T) {
	inv := NewInversion([]Token{NewToken("a", 0, 1), NewToken("b", 2, 3)})
	first := inv.Invert()
	second := inv.Invert()
	assert.Equal(t, first, second)
}

func TestRegistryResolvesDefaultAndKeyword(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.Resolve("default"))
	assert.NotNil(t, r.Resolve(""))
	assert.NotNil(t, r.Resolve("keyword"))
	assert.NotNil(t, r.Resolve("nonexistent")) // falls back to default
}
