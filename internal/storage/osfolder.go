package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/standardbeagle/ixo/internal/ixerrors"
)

// OSFolder is a Folder backed by the native filesystem rooted at Path.
type OSFolder struct {
	Path string
}

func NewOSFolder(path string) (*OSFolder, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errIO("NewOSFolder", err)
	}
	return &OSFolder{Path: path}, nil
}

func (f *OSFolder) full(name string) string { return filepath.Join(f.Path, name) }

func (f *OSFolder) OpenIn(name string) (InStream, error) {
	fh, err := os.Open(f.full(name))
	if err != nil {
		return nil, errIO("OpenIn", err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, errIO("OpenIn", err)
	}
	return &osInStream{handle: &sharedHandle{f: fh, refs: 1}, length: info.Size()}, nil
}

func (f *OSFolder) OpenOut(name string) (OutStream, error) {
	fh, err := os.OpenFile(f.full(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errIO("OpenOut", err)
	}
	return &osOutStream{fh: fh}, nil
}

func (f *OSFolder) Exists(name string) bool {
	_, err := os.Stat(f.full(name))
	return err == nil
}

func (f *OSFolder) Delete(name string) error {
	if err := os.Remove(f.full(name)); err != nil {
		return errIO("Delete", err)
	}
	return nil
}

func (f *OSFolder) DeleteAll(name string) error {
	if err := os.RemoveAll(f.full(name)); err != nil {
		return errIO("DeleteAll", err)
	}
	return nil
}

func (f *OSFolder) Rename(oldName, newName string) error {
	if err := os.Rename(f.full(oldName), f.full(newName)); err != nil {
		return errIO("Rename", err)
	}
	return nil
}

func (f *OSFolder) Mkdir(name string) error {
	if err := os.MkdirAll(f.full(name), 0o755); err != nil {
		return errIO("Mkdir", err)
	}
	return nil
}

func (f *OSFolder) FindFolder(name string) (Folder, error) {
	return NewOSFolder(f.full(name))
}

func (f *OSFolder) OpenDir() (DirHandle, error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return nil, errIO("OpenDir", err)
	}
	return &osDirHandle{entries: entries, pos: -1}, nil
}

type osDirHandle struct {
	entries []os.DirEntry
	pos     int
}

func (d *osDirHandle) Next() bool {
	d.pos++
	for d.pos < len(d.entries) {
		n := d.entries[d.pos].Name()
		if n != "." && n != ".." {
			return true
		}
		d.pos++
	}
	return false
}

func (d *osDirHandle) Name() string { return d.entries[d.pos].Name() }

func (d *osDirHandle) IsDir() bool {
	e := d.entries[d.pos]
	if e.Type()&os.ModeSymlink != 0 {
		info, err := e.Info()
		if err != nil {
			return false
		}
		return info.IsDir()
	}
	if e.Type() == 0 || e.IsDir() {
		return e.IsDir()
	}
	// Type is "irregular"/unknown on this platform's dirent; fall back
	// to stat (spec 4.1: avoid stat when the entry type is sufficient,
	// only pay for it on UNKNOWN).
	info, err := e.Info()
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (d *osDirHandle) IsSymlink() bool {
	return d.entries[d.pos].Type()&os.ModeSymlink != 0
}

func (d *osDirHandle) Close() error { return nil }

// sharedHandle lets multiple osInStream cursors (created via Reopen)
// serialize seek+read as one critical section over a single *os.File, as
// required of CompoundFileReader's virtual streams (spec 5).
type sharedHandle struct {
	f      *os.File
	lock   sync.Mutex
	refs   int32
}

func (h *sharedHandle) mu() *sync.Mutex { return &h.lock }

type osOutStream struct {
	fh  *os.File
	pos int64
}

func (o *osOutStream) Write(p []byte) (int, error) {
	n, err := o.fh.Write(p)
	o.pos += int64(n)
	if err != nil {
		return n, errIO("Write", err)
	}
	return n, nil
}

func (o *osOutStream) Pos() int64 { return o.pos }

func (o *osOutStream) Close() error {
	if err := o.fh.Sync(); err != nil {
		return errIO("Close", err)
	}
	if err := o.fh.Close(); err != nil {
		return errIO("Close", err)
	}
	return nil
}

// osInStream is a bounded, positioned view over a shared *os.File: base
// is the absolute start offset within the file, length bounds how far
// Pos may run (Length() of the view, not the underlying file), and pos
// is this cursor's own position relative to base.
type osInStream struct {
	handle *sharedHandle
	base   int64
	length int64
	pos    int64
}

func (s *osInStream) Read(p []byte) (int, error) {
	remaining := s.length - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	s.handle.mu().Lock()
	defer s.handle.mu().Unlock()
	if _, err := s.handle.f.Seek(s.base+s.pos, io.SeekStart); err != nil {
		return 0, errIO("Read", err)
	}
	n, err := s.handle.f.Read(p)
	s.pos += int64(n)
	if err != nil && err != io.EOF {
		return n, errIO("Read", err)
	}
	return n, err
}

func (s *osInStream) ReadByte() (byte, error) {
	var buf [1]byte
	n, err := s.Read(buf[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	return buf[0], nil
}

func (s *osInStream) Seek(offset int64) error {
	if offset < 0 || offset > s.length {
		return ixerrors.New(ixerrors.KindIO, "seek out of range")
	}
	s.pos = offset
	return nil
}

func (s *osInStream) Pos() int64    { return s.pos }
func (s *osInStream) Length() int64 { return s.length }

// Close decrements the shared handle's reference count, closing the
// underlying *os.File once the last clone (from Reopen) has closed.
func (s *osInStream) Close() error {
	s.handle.mu().Lock()
	s.handle.refs--
	closeNow := s.handle.refs <= 0
	s.handle.mu().Unlock()
	if !closeNow {
		return nil
	}
	if err := s.handle.f.Close(); err != nil {
		return errIO("Close", err)
	}
	return nil
}

// Reopen creates an independent cursor sharing the underlying *os.File
// handle; each clone keeps its own position but seek+read on the shared
// handle is serialized via sharedHandle's mutex (spec 5).
func (s *osInStream) Reopen(offset, length int64) (InStream, error) {
	if offset < 0 || length < 0 || offset+length > s.length {
		return nil, ixerrors.New(ixerrors.KindIO, "reopen out of range")
	}
	s.handle.mu().Lock()
	s.handle.refs++
	s.handle.mu().Unlock()
	return &osInStream{handle: s.handle, base: s.base + offset, length: length}, nil
}
