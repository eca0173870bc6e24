package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

func TestSnapshotNameRoundTrip(t *testing.T) {
	n, ok := ParseName(Name(ixtypes.SnapshotNum(42)))
	require.True(t, ok)
	assert.EqualValues(t, 42, n)

	_, ok = ParseName("not_a_snapshot.json")
	assert.False(t, ok)
}

func TestWriteReadSortsEntries(t *testing.T) {
	folder := storage.NewRAMFolder()
	s := Snapshot{Num: 1, Entries: []string{"seg_2/foo.dat", "seg_1/bar.dat"}}
	require.NoError(t, Write(folder, s))

	got, err := Read(folder, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"seg_1/bar.dat", "seg_2/foo.dat"}, got.Entries)
}

func TestLatestPicksHighestSnapshot(t *testing.T) {
	folder := storage.NewRAMFolder()
	require.NoError(t, Write(folder, Snapshot{Num: 1, Entries: nil}))
	require.NoError(t, Write(folder, Snapshot{Num: 3, Entries: nil}))
	require.NoError(t, Write(folder, Snapshot{Num: 2, Entries: nil}))

	n, ok, err := Latest(folder)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 3, n)
}

func TestLatestEmptyFolder(t *testing.T) {
	folder := storage.NewRAMFolder()
	_, ok, err := Latest(folder)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockFactoryAcquireAndRelease(t *testing.T) {
	folder := storage.NewRAMFolder()
	lf, err := NewLockFactory(folder, ixconfig.Locks{MaxRetryAttempts: 3, RetryBackoffMs: 1, StaleTimeoutMs: 30_000})
	require.NoError(t, err)

	release, err := lf.AcquireWrite()
	require.NoError(t, err)

	_, err = lf.AcquireWrite()
	require.Error(t, err)

	require.NoError(t, release())

	_, err = lf.AcquireWrite()
	require.NoError(t, err)
}

func TestFilePurgerRemovesUnreferencedSegments(t *testing.T) {
	folder := storage.NewRAMFolder()
	seg1, err := folder.FindFolder("seg_1")
	require.NoError(t, err)
	out, err := seg1.OpenOut("segmeta.json")
	require.NoError(t, err)
	_, err = out.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, out.Close())

	require.NoError(t, Write(folder, Snapshot{Num: 1, Entries: []string{"seg_1/segmeta.json"}}))

	seg2, err := folder.FindFolder("seg_2")
	require.NoError(t, err)
	out2, err := seg2.OpenOut("segmeta.json")
	require.NoError(t, err)
	_, err = out2.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, out2.Close())

	p := NewFilePurger(folder)
	removed, err := p.Purge()
	require.NoError(t, err)
	assert.Contains(t, removed, "seg_2")
	assert.True(t, folder.Exists("seg_1"))
	assert.False(t, folder.Exists("seg_2"))
}

func TestDeletionBitVectorRoundTrip(t *testing.T) {
	bv := NewDeletionBitVector(10)
	for doc := ixtypes.DocID(0); doc < 10; doc += 2 {
		bv.Delete(doc)
	}
	assert.Equal(t, 5, bv.DelCount())

	folder := storage.NewRAMFolder()
	require.NoError(t, WriteDeletions(folder, 1, bv))

	got, err := ReadDeletions(folder, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, got.DelCount())
	assert.True(t, got.IsDeleted(4))
	assert.False(t, got.IsDeleted(5))
}
