package postings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

func docIDs(docs []Posting) []ixtypes.DocID {
	out := make([]ixtypes.DocID, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}

func TestWriterReaderRoundTripMatchOnly(t *testing.T) {
	folder := storage.NewRAMFolder()
	w, err := NewWriter(folder, "content", ixtypes.PostingMatchOnly, false, 4)
	require.NoError(t, err)

	docs := make([]Posting, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, Posting{DocID: ixtypes.DocID(i * 3)})
	}
	info, err := w.WriteTerm(docs)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := OpenReader(folder, "content", ixtypes.PostingMatchOnly, false)
	require.NoError(t, err)
	defer r.Close()

	m, err := NewTermMatcher(r, info, 4, 1.0, 1.0, 1.0)
	require.NoError(t, err)

	var got []ixtypes.DocID
	for d := m.Next(); d != ixtypes.NoDoc; d = m.Next() {
		got = append(got, d)
	}
	assert.Equal(t, docIDs(docs), got)
}

func TestWriterReaderAdvanceUsesSkipList(t *testing.T) {
	folder := storage.NewRAMFolder()
	w, err := NewWriter(folder, "content", ixtypes.PostingScoreOnly, false, 4)
	require.NoError(t, err)

	docs := make([]Posting, 0, 50)
	for i := 0; i < 50; i++ {
		docs = append(docs, Posting{DocID: ixtypes.DocID(i * 2), Positions: []int32{0, 1}})
	}
	info, err := w.WriteTerm(docs)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := OpenReader(folder, "content", ixtypes.PostingScoreOnly, false)
	require.NoError(t, err)
	defer r.Close()

	m, err := NewTermMatcher(r, info, 4, 1.0, 1.0, 1.0)
	require.NoError(t, err)

	target := ixtypes.DocID(60)
	got := m.Advance(target)
	require.NotEqual(t, ixtypes.NoDoc, got)
	assert.GreaterOrEqual(t, got, target)
	assert.Equal(t, ixtypes.DocID(60), got)

	next := m.Next()
	assert.Equal(t, ixtypes.DocID(62), next)
}

func TestWriterReaderRichPositions(t *testing.T) {
	folder := storage.NewRAMFolder()
	w, err := NewWriter(folder, "body", ixtypes.PostingRich, true, 100)
	require.NoError(t, err)

	docs := []Posting{
		{DocID: 0, Positions: []int32{0, 5, 9}, StartOffsets: []int32{0, 10, 20}, EndOffsets: []int32{3, 13, 24}},
		{DocID: 2, Positions: []int32{1}, StartOffsets: []int32{4}, EndOffsets: []int32{8}},
	}
	info, err := w.WriteTerm(docs)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := OpenReader(folder, "body", ixtypes.PostingRich, true)
	require.NoError(t, err)
	defer r.Close()

	m, err := NewTermMatcher(r, info, 100, 1.0, 1.0, 1.0)
	require.NoError(t, err)

	tm := m.(*termMatcher)
	d := m.Next()
	require.Equal(t, ixtypes.DocID(0), d)
	assert.Equal(t, []int32{0, 5, 9}, tm.Positions())

	d = m.Next()
	require.Equal(t, ixtypes.DocID(2), d)
	assert.Equal(t, []int32{1}, tm.Positions())

	assert.Equal(t, ixtypes.NoDoc, m.Next())
}

func TestAdvancePastEndReturnsNoDoc(t *testing.T) {
	folder := storage.NewRAMFolder()
	w, err := NewWriter(folder, "f", ixtypes.PostingMatchOnly, false, 8)
	require.NoError(t, err)
	docs := []Posting{{DocID: 1}, {DocID: 2}, {DocID: 3}}
	info, err := w.WriteTerm(docs)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := OpenReader(folder, "f", ixtypes.PostingMatchOnly, false)
	require.NoError(t, err)
	defer r.Close()

	m, err := NewTermMatcher(r, info, 8, 1.0, 1.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, ixtypes.NoDoc, m.Advance(100))
}
