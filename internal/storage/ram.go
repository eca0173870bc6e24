package storage

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/standardbeagle/ixo/internal/ixerrors"
)

// RAMFolder is an in-memory Folder, useful for tests and for the
// temp-mode lexicon writer (spec 4.3) which never hits disk.
type RAMFolder struct {
	mu      sync.RWMutex
	files   map[string]*ramFile
	folders map[string]*RAMFolder
}

type ramFile struct {
	data []byte
}

func NewRAMFolder() *RAMFolder {
	return &RAMFolder{
		files:   make(map[string]*ramFile),
		folders: make(map[string]*RAMFolder),
	}
}

func (f *RAMFolder) OpenIn(name string) (InStream, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rf, ok := f.files[name]
	if !ok {
		return nil, errIO("OpenIn", fmt.Errorf("%s: %w", name, ixerrors.New(ixerrors.KindIO, "file not found")))
	}
	return newRAMInStream(rf.data), nil
}

func (f *RAMFolder) OpenOut(name string) (OutStream, error) {
	rf := &ramFile{}
	f.mu.Lock()
	f.files[name] = rf
	f.mu.Unlock()
	return &ramOutStream{file: rf}, nil
}

func (f *RAMFolder) Exists(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.files[name]
	if ok {
		return true
	}
	_, ok = f.folders[name]
	return ok
}

func (f *RAMFolder) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[name]; !ok {
		return errIO("Delete", fmt.Errorf("%s: not found", name))
	}
	delete(f.files, name)
	return nil
}

func (f *RAMFolder) DeleteAll(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, isFile := f.files[name]
	_, isFolder := f.folders[name]
	if !isFile && !isFolder {
		return errIO("DeleteAll", fmt.Errorf("%s: not found", name))
	}
	delete(f.files, name)
	delete(f.folders, name)
	return nil
}

func (f *RAMFolder) Rename(oldName, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rf, ok := f.files[oldName]
	if !ok {
		return errIO("Rename", fmt.Errorf("%s: not found", oldName))
	}
	f.files[newName] = rf
	delete(f.files, oldName)
	return nil
}

func (f *RAMFolder) Mkdir(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.folders[name]; !ok {
		f.folders[name] = NewRAMFolder()
	}
	return nil
}

func (f *RAMFolder) FindFolder(name string) (Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.folders[name]
	if !ok {
		sub = NewRAMFolder()
		f.folders[name] = sub
	}
	return sub, nil
}

func (f *RAMFolder) OpenDir() (DirHandle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.files)+len(f.folders))
	dirSet := make(map[string]bool, len(f.folders))
	for n := range f.files {
		names = append(names, n)
	}
	for n := range f.folders {
		names = append(names, n)
		dirSet[n] = true
	}
	sort.Strings(names)
	return &ramDirHandle{names: names, dirSet: dirSet, pos: -1}, nil
}

type ramDirHandle struct {
	names  []string
	dirSet map[string]bool
	pos    int
}

func (d *ramDirHandle) Next() bool {
	d.pos++
	return d.pos < len(d.names)
}

func (d *ramDirHandle) Name() string     { return d.names[d.pos] }
func (d *ramDirHandle) IsDir() bool      { return d.dirSet[d.names[d.pos]] }
func (d *ramDirHandle) IsSymlink() bool  { return false }
func (d *ramDirHandle) Close() error     { return nil }

type ramOutStream struct {
	file *ramFile
}

func (o *ramOutStream) Write(p []byte) (int, error) {
	o.file.data = append(o.file.data, p...)
	return len(p), nil
}

func (o *ramOutStream) Pos() int64 { return int64(len(o.file.data)) }
func (o *ramOutStream) Close() error { return nil }

type ramInStream struct {
	data []byte
	pos  int64
}

func newRAMInStream(data []byte) *ramInStream {
	return &ramInStream{data: data}
}

func (r *ramInStream) Read(p []byte) (int, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

func (r *ramInStream) ReadByte() (byte, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *ramInStream) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(r.data)) {
		return fmt.Errorf("storage: seek out of range")
	}
	r.pos = offset
	return nil
}

func (r *ramInStream) Pos() int64    { return r.pos }
func (r *ramInStream) Length() int64 { return int64(len(r.data)) }
func (r *ramInStream) Close() error  { return nil }

func (r *ramInStream) Reopen(offset, length int64) (InStream, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(r.data)) {
		return nil, fmt.Errorf("storage: reopen out of range")
	}
	return newRAMInStream(r.data[offset : offset+length]), nil
}
