package ixo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/query"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ixoTestSchema() *segment.Schema {
	s := segment.NewSchema()
	_ = s.AddField("body", segment.TextField())
	return s
}

func bodyDoc(body string) storedoc.Doc {
	return storedoc.Doc{Fields: []storedoc.NamedValue{
		{Name: "body", Value: storedoc.Text(body)},
	}}
}

func TestOpenAddDocCommitThenSearchFindsDoc(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := *ixconfig.Default()
	schema := ixoTestSchema()
	ctx := context.Background()

	idx, err := Open(folder, schema, cfg)
	require.NoError(t, err)
	require.NoError(t, idx.AddDoc(ctx, bodyDoc("the quick brown fox"), 1.0))
	require.NoError(t, idx.AddDoc(ctx, bodyDoc("jumps over the lazy dog"), 1.0))
	require.NoError(t, idx.Commit(ctx))
	require.NoError(t, idx.Close())

	s, err := NewSearcher(folder, schema, cfg)
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.Search(query.TermQuery{Field: "body", Term: "fox"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "the quick brown fox", hits[0].Doc.Fields[0].Value.Text)
}

func TestSearcherReopenSeesNewCommit(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := *ixconfig.Default()
	schema := ixoTestSchema()
	ctx := context.Background()

	idx, err := Open(folder, schema, cfg)
	require.NoError(t, err)
	require.NoError(t, idx.AddDoc(ctx, bodyDoc("alpha beta"), 1.0))
	require.NoError(t, idx.Commit(ctx))
	require.NoError(t, idx.Close())

	s, err := NewSearcher(folder, schema, cfg)
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.Search(query.TermQuery{Field: "body", Term: "gamma"}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	idx2, err := Open(folder, schema, cfg)
	require.NoError(t, err)
	require.NoError(t, idx2.AddDoc(ctx, bodyDoc("gamma delta"), 1.0))
	require.NoError(t, idx2.Commit(ctx))
	require.NoError(t, idx2.Close())

	require.NoError(t, s.Reopen())
	hits, err = s.Search(query.TermQuery{Field: "body", Term: "gamma"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchOnEmptyIndexReturnsNoHitsNotError(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := *ixconfig.Default()
	schema := ixoTestSchema()

	idx, err := Open(folder, schema, cfg)
	require.NoError(t, err)
	require.NoError(t, idx.Commit(context.Background()))
	require.NoError(t, idx.Close())

	s, err := NewSearcher(folder, schema, cfg)
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.Search(query.TermQuery{Field: "body", Term: "anything"}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
