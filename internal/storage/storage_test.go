package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRAMFolderWriteReadRoundTrip(t *testing.T) {
	f := NewRAMFolder()
	out, err := f.OpenOut("a.dat")
	require.NoError(t, err)
	_, err = out.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, out.Close())

	in, err := f.OpenIn("a.dat")
	require.NoError(t, err)
	defer in.Close()
	buf := make([]byte, in.Length())
	_, err = io.ReadFull(in, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf))
}

func TestRAMFolderReopenBoundedView(t *testing.T) {
	f := NewRAMFolder()
	out, _ := f.OpenOut("b.dat")
	out.Write([]byte("0123456789"))
	out.Close()

	in, err := f.OpenIn("b.dat")
	require.NoError(t, err)
	view, err := in.Reopen(3, 4)
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(view, buf)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(buf))
}

func TestRAMDirHandleFiltersNothingButSortsEntries(t *testing.T) {
	f := NewRAMFolder()
	o1, _ := f.OpenOut("z.dat")
	o1.Close()
	o2, _ := f.OpenOut("a.dat")
	o2.Close()
	f.Mkdir("sub")

	dir, err := f.OpenDir()
	require.NoError(t, err)
	var names []string
	for dir.Next() {
		names = append(names, dir.Name())
	}
	assert.Equal(t, []string{"a.dat", "sub", "z.dat"}, names)
}

func TestChecksummedStreamDetectsCorruption(t *testing.T) {
	f := NewRAMFolder()
	out, _ := f.OpenOut("c.dat")
	cout := NewChecksummedOutStream(out)
	cout.Write([]byte("payload"))
	require.NoError(t, cout.Close())

	in, err := f.OpenIn("c.dat")
	require.NoError(t, err)
	verified, err := OpenChecksummedIn(in)
	require.NoError(t, err)
	buf := make([]byte, verified.Length())
	io.ReadFull(verified, buf)
	assert.Equal(t, "payload", string(buf))

	// Corrupt the stored bytes and verify detection.
	raw, _ := f.OpenIn("c.dat")
	corrupted := make([]byte, raw.Length())
	io.ReadFull(raw, corrupted)
	corrupted[0] ^= 0xFF
	f.Delete("c.dat")
	out2, _ := f.OpenOut("c.dat")
	out2.Write(corrupted)
	out2.Close()

	in2, _ := f.OpenIn("c.dat")
	_, err = OpenChecksummedIn(in2)
	assert.Error(t, err)
}

func TestWriteCompoundFileAndRead(t *testing.T) {
	src := NewRAMFolder()
	for _, n := range []string{"x.dat", "y.dat"} {
		o, _ := src.OpenOut(n)
		o.Write([]byte("content-of-" + n))
		o.Close()
	}
	dst := NewRAMFolder()
	require.NoError(t, WriteCompoundFile(dst, src, []string{"x.dat", "y.dat"}))

	cf, err := OpenCompoundFileReader(dst)
	require.NoError(t, err)
	in, err := cf.OpenIn("y.dat")
	require.NoError(t, err)
	buf := make([]byte, in.Length())
	io.ReadFull(in, buf)
	assert.Equal(t, "content-of-y.dat", string(buf))
}
