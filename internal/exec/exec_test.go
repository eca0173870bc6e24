package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/ixo/internal/analysis"
	"github.com/standardbeagle/ixo/internal/indexer"
	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/query"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execTestSchema() *segment.Schema {
	s := segment.NewSchema()
	_ = s.AddField("body", segment.TextField())
	return s
}

// buildSegment commits one segment from docs and returns an open
// SegmentView over it, ready to compile queries against.
func buildSegment(t *testing.T, docs []string) *SegmentView {
	t.Helper()
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()
	schema := execTestSchema()

	ix, err := indexer.Open(folder, schema, analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	ctx := context.Background()
	for _, body := range docs {
		require.NoError(t, ix.AddDoc(ctx, storedoc.Doc{Fields: []storedoc.NamedValue{
			{Name: "body", Value: storedoc.Text(body)},
		}}, 1.0))
	}
	require.NoError(t, ix.Commit(ctx))
	require.NoError(t, ix.Close())

	segFolder, err := folder.FindFolder(segment.Name(1))
	require.NoError(t, err)
	sv, err := OpenSegmentView(1, segFolder, schema)
	require.NoError(t, err)
	return sv
}

func docIDs(t *testing.T, q query.Query, sv *SegmentView, cfg ixconfig.Config) []ixtypes.DocID {
	t.Helper()
	m, err := Compile(q, sv, cfg)
	require.NoError(t, err)
	var out []ixtypes.DocID
	for d := m.Next(); d != ixtypes.NoDoc; d = m.Next() {
		out = append(out, d)
	}
	return out
}

func TestCompileTermQueryMatchesContainingDocs(t *testing.T) {
	sv := buildSegment(t, []string{
		"the quick brown fox",
		"jumps over the lazy dog",
		"the fox and the dog are friends",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	got := docIDs(t, query.TermQuery{Field: "body", Term: "fox"}, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0, 2}, got)
}

func TestCompileTermQueryUnknownTermYieldsNoMatches(t *testing.T) {
	sv := buildSegment(t, []string{"alpha beta", "gamma delta"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	got := docIDs(t, query.TermQuery{Field: "body", Term: "zulu"}, sv, cfg)
	assert.Empty(t, got)
}

func TestCompilePhraseQueryRequiresAdjacency(t *testing.T) {
	sv := buildSegment(t, []string{
		"the quick brown fox",
		"the brown quick fox",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	got := docIDs(t, query.PhraseQuery{Field: "body", Terms: []string{"quick", "brown"}}, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0}, got)
}

func TestCompilePhraseQuerySingleTermDegeneratesToTerm(t *testing.T) {
	sv := buildSegment(t, []string{"the quick fox", "a slow dog"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	got := docIDs(t, query.PhraseQuery{Field: "body", Terms: []string{"quick"}}, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0}, got)
}

func TestCompileANDQueryRequiresAllTerms(t *testing.T) {
	sv := buildSegment(t, []string{
		"quick brown fox",
		"quick red car",
		"slow brown turtle",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.ANDQuery{Children: []query.Query{
		query.TermQuery{Field: "body", Term: "quick"},
		query.TermQuery{Field: "body", Term: "brown"},
	}}
	assert.Equal(t, []ixtypes.DocID{0}, docIDs(t, q, sv, cfg))
}

func TestCompileORQueryUnionsTerms(t *testing.T) {
	sv := buildSegment(t, []string{
		"quick brown fox",
		"quick red car",
		"slow green turtle",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.ORQuery{Children: []query.Query{
		query.TermQuery{Field: "body", Term: "fox"},
		query.TermQuery{Field: "body", Term: "car"},
	}}
	assert.Equal(t, []ixtypes.DocID{0, 1}, docIDs(t, q, sv, cfg))
}

func TestCompileNOTQueryExcludesTerm(t *testing.T) {
	sv := buildSegment(t, []string{
		"quick brown fox",
		"quick red car",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.NOTQuery{Child: query.TermQuery{Field: "body", Term: "fox"}}
	got := docIDs(t, q, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{1}, got)
}

func TestCompileBooleanQueryMustAndMustNot(t *testing.T) {
	sv := buildSegment(t, []string{
		"quick brown fox",
		"quick brown car",
		"slow brown turtle",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.BooleanQuery{Clauses: []query.BooleanClause{
		{Query: query.TermQuery{Field: "body", Term: "brown"}, Occur: query.Must},
		{Query: query.TermQuery{Field: "body", Term: "car"}, Occur: query.MustNot},
	}}
	got := docIDs(t, q, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0, 2}, got)
}

func TestCompileMatchAllQueryMatchesEveryLiveDoc(t *testing.T) {
	sv := buildSegment(t, []string{"one", "two", "three"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	got := docIDs(t, query.MatchAllQuery{}, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0, 1, 2}, got)
}

func TestCompileFuzzyQueryExpandsWithinEditDistance(t *testing.T) {
	sv := buildSegment(t, []string{"quick brown fox", "quack noisy duck"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.FuzzyQuery{Field: "body", Term: "quick", MaxEdits: 1, Algorithm: "levenshtein"}
	got := docIDs(t, q, sv, cfg)
	assert.Contains(t, got, ixtypes.DocID(0))
}

func TestCompileRangeQueryMatchesTermsWithinBounds(t *testing.T) {
	sv := buildSegment(t, []string{"apple", "banana", "cherry", "date", "fig"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.RangeQuery{Field: "body", Lower: "apple", Upper: "banana", IncludeLower: true, IncludeUpper: true}
	got := docIDs(t, q, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{0, 1}, got)
}

func TestCompileRangeQueryExclusiveBoundsExcludeEndpoints(t *testing.T) {
	sv := buildSegment(t, []string{"apple", "banana", "cherry", "date", "fig"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.RangeQuery{Field: "body", Lower: "apple", Upper: "banana", IncludeLower: false, IncludeUpper: false}
	got := docIDs(t, q, sv, cfg)
	assert.Empty(t, got)
}

func TestCompileRangeQueryOpenUpperBoundMatchesThroughEnd(t *testing.T) {
	sv := buildSegment(t, []string{"apple", "banana", "cherry", "date", "fig"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	q := query.RangeQuery{Field: "body", Lower: "cherry", Upper: "", IncludeLower: true}
	got := docIDs(t, q, sv, cfg)
	assert.Equal(t, []ixtypes.DocID{2, 3, 4}, got)
}

func TestSortCollectorBoundsAndOrdersByScore(t *testing.T) {
	// Equal-length docs share one field norm, so the doc with the most
	// "fox" occurrences scores highest.
	sv := buildSegment(t, []string{
		"fox fox fox",
		"fox dog cat",
		"fox fox dog",
		"no match here",
	})
	defer sv.Close()
	cfg := *ixconfig.Default()

	m, err := Compile(query.TermQuery{Field: "body", Term: "fox"}, sv, cfg)
	require.NoError(t, err)

	c := NewSortCollector(0, 2)
	Run(m, c)
	hits := c.Results()
	require.Len(t, hits, 2)
	assert.Equal(t, ixtypes.DocID(0), hits[0].DocID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestSortCollectorOffsetSkipsLeadingHits(t *testing.T) {
	sv := buildSegment(t, []string{"fox fox fox", "fox fox", "fox"})
	defer sv.Close()
	cfg := *ixconfig.Default()

	m, err := Compile(query.TermQuery{Field: "body", Term: "fox"}, sv, cfg)
	require.NoError(t, err)

	c := NewSortCollector(1, 10)
	Run(m, c)
	hits := c.Results()
	require.Len(t, hits, 2)
	assert.NotEqual(t, ixtypes.DocID(0), hits[0].DocID)
}
