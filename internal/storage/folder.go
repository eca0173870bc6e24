// Package storage implements the Folder abstraction ixo's segments and
// snapshots are persisted through: a hierarchical directory of
// byte-addressable files, with RAM-backed and OS-filesystem-backed
// implementations plus compound-file packing to cut file-handle
// pressure on large segment counts (spec 4.1).
package storage

import (
	"io"

	"github.com/standardbeagle/ixo/internal/ixerrors"
)

// InStream is a positioned, seekable read handle into one file.
type InStream interface {
	io.Reader
	io.ByteReader
	io.Closer
	// Seek repositions the read cursor to an absolute offset.
	Seek(offset int64) error
	// Pos returns the current read offset.
	Pos() int64
	// Length returns the total byte length of the underlying file.
	Length() int64
	// Reopen creates an independent cursor over [offset, offset+length)
	// of the same underlying bytes, sharing the file handle where the
	// implementation allows it.
	Reopen(offset, length int64) (InStream, error)
}

// OutStream is an append-only write handle into one file.
type OutStream interface {
	io.Writer
	io.Closer
	// Pos returns the number of bytes written so far.
	Pos() int64
}

// DirHandle is a restartable iterator over one directory's immediate
// children (spec 4.1): it must filter "." and "..", and report whether
// each entry is itself a directory or a symlink.
type DirHandle interface {
	// Next advances to the next entry, returning false when exhausted.
	Next() bool
	// Name returns the current entry's base name.
	Name() string
	// IsDir reports whether the current entry is a directory.
	IsDir() bool
	// IsSymlink reports whether the current entry is a symlink.
	IsSymlink() bool
	Close() error
}

// Folder abstracts a directory of byte-addressable files.
type Folder interface {
	OpenIn(name string) (InStream, error)
	OpenOut(name string) (OutStream, error)
	Exists(name string) bool
	Delete(name string) error
	// DeleteAll removes name and, if it is a subdirectory, its entire
	// contents (used by the FilePurger to reclaim a whole segment
	// directory in one call).
	DeleteAll(name string) error
	Rename(oldName, newName string) error
	Mkdir(name string) error
	OpenDir() (DirHandle, error)
	// FindFolder returns a Folder rooted at the named subdirectory.
	FindFolder(name string) (Folder, error)
}

func errIO(op string, err error) error {
	return ixerrors.WrapKind(ixerrors.KindIO, op, err)
}
