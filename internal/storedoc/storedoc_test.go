package storedoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	folder := storage.NewRAMFolder()

	w, err := StartSegment(folder)
	require.NoError(t, err)

	docs := []Doc{
		{Fields: []NamedValue{
			{Name: "title", Value: Text("Ut enim")},
			{Name: "views", Value: Int32(42)},
		}},
		{Fields: []NamedValue{
			{Name: "title", Value: Text("Lorem ipsum")},
			{Name: "score", Value: Float64(3.5)},
			{Name: "raw", Value: Blob([]byte{1, 2, 3})},
		}},
	}
	for _, d := range docs {
		require.NoError(t, w.AddDoc(d))
	}
	count, err := w.Finish()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	r, err := OpenSegment(folder)
	require.NoError(t, err)
	defer r.Close()

	got0, err := r.Get(ixtypes.DocID(0))
	require.NoError(t, err)
	title, ok := got0.Get("title")
	require.True(t, ok)
	assert.Equal(t, "Ut enim", title.Text)
	views, ok := got0.Get("views")
	require.True(t, ok)
	assert.EqualValues(t, 42, views.I32)

	got1, err := r.Get(ixtypes.DocID(1))
	require.NoError(t, err)
	raw, ok := got1.Get("raw")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, raw.Blob)
	score, ok := got1.Get("score")
	require.True(t, ok)
	assert.Equal(t, 3.5, score.F64)
}

func TestGetMissingFieldReturnsFalse(t *testing.T) {
	folder := storage.NewRAMFolder()
	w, err := StartSegment(folder)
	require.NoError(t, err)
	require.NoError(t, w.AddDoc(Doc{Fields: []NamedValue{{Name: "a", Value: Text("x")}}}))
	_, err = w.Finish()
	require.NoError(t, err)

	r, err := OpenSegment(folder)
	require.NoError(t, err)
	defer r.Close()

	d, err := r.Get(ixtypes.DocID(0))
	require.NoError(t, err)
	_, ok := d.Get("nonexistent")
	assert.False(t, ok)
}
