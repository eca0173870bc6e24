package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ixo/internal/storage"
)

func writeSample(t *testing.T, folder storage.Folder, field string, terms []string, interval int) {
	t.Helper()
	w, err := StartField(folder, field, interval)
	require.NoError(t, err)
	for i, term := range terms {
		err := w.AddTerm(term, TermInfo{DocFreq: uint32(i + 1), PostingsOffset: int64(i * 10), SkipOffset: int64(i)})
		require.NoError(t, err)
	}
	_, _, err = w.FinishField()
	require.NoError(t, err)
}

func TestLexiconWriteAndFindEveryTerm(t *testing.T) {
	folder := storage.NewRAMFolder()
	terms := []string{"alpha", "alphabet", "beta", "gamma", "gammaray", "zeta"}
	writeSample(t, folder, "content", terms, 2)

	r, err := OpenField(folder, "content")
	require.NoError(t, err)
	defer r.Close()

	for i, term := range terms {
		info, found, err := r.Find(term)
		require.NoError(t, err)
		require.True(t, found, "expected to find %q", term)
		assert.Equal(t, uint32(i+1), info.DocFreq)
	}

	_, found, err := r.Find("missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = r.Find("aardvark")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLexiconFindWithSingleKeyFrame(t *testing.T) {
	folder := storage.NewRAMFolder()
	terms := []string{"cat", "dog", "fox"}
	writeSample(t, folder, "tags", terms, 1000)

	r, err := OpenField(folder, "tags")
	require.NoError(t, err)
	defer r.Close()

	info, found, err := r.Find("dog")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(2), info.DocFreq)
}
