package snapshot

import (
	"strings"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

// FilePurger reclaims segment directories and top-level files no live
// snapshot references (spec 4.7): it unions every snapshot's entry set
// and deletes anything else, skipping snapshots a reader currently has
// pinned via locks/<snapshot>.lock.
type FilePurger struct {
	folder storage.Folder
}

func NewFilePurger(folder storage.Folder) *FilePurger {
	return &FilePurger{folder: folder}
}

// Purge deletes every top-level entry that is not write.lock, not the
// locks/ directory, and not referenced by the latest snapshot or by an
// older snapshot a reader still pins via locks/<snapshot>.lock (see
// liveSnapshots). It returns the names it removed.
func (p *FilePurger) Purge() ([]string, error) {
	snapshots, err := p.liveSnapshots()
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]struct{})
	for _, s := range snapshots {
		for _, e := range s.Entries {
			referenced[e] = struct{}{}
			referenced[topLevel(e)] = struct{}{}
		}
	}
	for _, s := range snapshots {
		referenced[Name(s.Num)] = struct{}{}
	}

	dir, err := p.folder.OpenDir()
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	var candidates []string
	for dir.Next() {
		name := dir.Name()
		if name == "locks" || name == WriteLockName {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		candidates = append(candidates, name)
	}

	var removed []string
	for _, name := range candidates {
		if err := p.folder.DeleteAll(name); err != nil {
			// Another process may still have it open. The failure is
			// not recorded anywhere; the entry stays unreferenced, so the
			// next Purge (run on every commit) tries it again, and this
			// pass moves on rather than aborting.
			continue
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// liveSnapshots loads every snapshot_<base36>.json in folder and keeps
// only the ones still relevant to purging: the highest-numbered
// (authoritative) snapshot, plus any older one a reader still has
// pinned via locks/<snapshot>.lock (spec 4.7). Everything else,
// including its own manifest file, becomes eligible for deletion.
func (p *FilePurger) liveSnapshots() ([]Snapshot, error) {
	dir, err := p.folder.OpenDir()
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	locksDir, err := p.folder.FindFolder("locks")
	if err != nil {
		locksDir = nil
	}

	var all []Snapshot
	var latest ixtypes.SnapshotNum
	found := false
	for dir.Next() {
		if dir.IsDir() {
			continue
		}
		num, ok := ParseName(dir.Name())
		if !ok {
			continue
		}
		s, err := Read(p.folder, num)
		if err != nil {
			continue
		}
		all = append(all, s)
		if !found || num > latest {
			latest, found = num, true
		}
	}

	var out []Snapshot
	for _, s := range all {
		pinned := locksDir != nil && locksDir.Exists(Name(s.Num)+".lock")
		if s.Num == latest || pinned {
			out = append(out, s)
		}
	}
	return out, nil
}

// topLevel returns the first path segment of entry (e.g. "seg_3/foo.dat"
// -> "seg_3"), since a snapshot references individual files but the
// purger operates on whole segment directories at the top level.
func topLevel(entry string) string {
	if i := strings.IndexByte(entry, '/'); i >= 0 {
		return entry[:i]
	}
	return entry
}
