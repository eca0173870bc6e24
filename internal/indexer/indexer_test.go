package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/ixo/internal/analysis"
	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

// TestMain verifies no goroutine an Indexer or its LockFactory spawns
// outlives the test that opened it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSchema() *segment.Schema {
	s := segment.NewSchema()
	_ = s.AddField("body", segment.TextField())
	_ = s.AddField("id", segment.NumericField(ixtypes.PrimitiveInt32))
	return s
}

func doc(id int32, body string) storedoc.Doc {
	return storedoc.Doc{Fields: []storedoc.NamedValue{
		{Name: "id", Value: storedoc.Int32(id)},
		{Name: "body", Value: storedoc.Text(body)},
	}}
}

func TestIndexerAddDocAndCommitProducesSnapshot(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()

	ix, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ix.AddDoc(ctx, doc(1, "the quick brown fox"), 1.0))
	require.NoError(t, ix.AddDoc(ctx, doc(2, "jumps over the lazy dog"), 1.0))
	require.NoError(t, ix.Commit(ctx))
	require.NoError(t, ix.Close())

	assert.True(t, folder.Exists("seg_1"))
	seg1, err := folder.FindFolder("seg_1")
	require.NoError(t, err)
	assert.True(t, seg1.Exists("documents.dat"))
	assert.True(t, seg1.Exists("lexicon-body.dat"))
	assert.True(t, seg1.Exists("norms-body.dat"))
}

func TestIndexerReopenLoadsExistingSegments(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()
	ctx := context.Background()

	ix1, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	require.NoError(t, ix1.AddDoc(ctx, doc(1, "alpha beta"), 1.0))
	require.NoError(t, ix1.Commit(ctx))
	require.NoError(t, ix1.Close())

	ix2, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	require.Len(t, ix2.segments, 1)
	assert.EqualValues(t, 1, ix2.segments[0].meta.DocMax)
	require.NoError(t, ix2.AddDoc(ctx, doc(2, "gamma delta"), 1.0))
	require.NoError(t, ix2.Commit(ctx))
	require.NoError(t, ix2.Close())

	ix3, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	assert.Len(t, ix3.segments, 2)
}

func TestIndexerDeleteDocPersistsBitVectorOnCommit(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()
	ctx := context.Background()

	ix, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	for i := int32(0); i < 10; i++ {
		require.NoError(t, ix.AddDoc(ctx, doc(i, "word"), 1.0))
	}
	require.NoError(t, ix.Commit(ctx))

	for i := ixtypes.DocID(0); i < 10; i += 2 {
		require.NoError(t, ix.DeleteDoc(1, i))
	}
	require.NoError(t, ix.Commit(ctx))
	require.NoError(t, ix.Close())

	ix2, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)
	require.Len(t, ix2.segments, 1)
	assert.Equal(t, 5, ix2.segments[0].deletions.DelCount())
	for i := ixtypes.DocID(0); i < 10; i += 2 {
		assert.True(t, ix2.segments[0].deletions.IsDeleted(i))
	}
	require.NoError(t, ix2.Close())
}

func TestIndexerMergeFoldsSegmentsAndDropsDeleted(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()
	cfg.MergePolicy.MinSegmentsPerTier = 2
	cfg.MergePolicy.MergeFactor = 10
	cfg.MergePolicy.MaxMergedSegmentSize = 0
	ctx := context.Background()

	ix, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)

	require.NoError(t, ix.AddDoc(ctx, doc(1, "one"), 1.0))
	require.NoError(t, ix.Commit(ctx))
	require.NoError(t, ix.DeleteDoc(1, 0))

	require.NoError(t, ix.AddDoc(ctx, doc(2, "two"), 1.0))
	require.NoError(t, ix.Commit(ctx))

	require.Len(t, ix.segments, 1)
	assert.EqualValues(t, 1, ix.segments[0].meta.DocCount())
	require.NoError(t, ix.Close())
}

func TestIndexerTwoOpensContendForWriteLock(t *testing.T) {
	folder := storage.NewRAMFolder()
	cfg := ixconfig.Default()
	cfg.Locks.MaxRetryAttempts = 1
	cfg.Locks.RetryBackoffMs = 1

	ix1, err := Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	require.NoError(t, err)

	_, err = Open(folder, testSchema(), analysis.NewRegistry(), *cfg)
	assert.Error(t, err)

	require.NoError(t, ix1.Close())
}
