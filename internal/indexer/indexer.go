package indexer

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/standardbeagle/ixo/internal/analysis"
	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/snapshot"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

// liveSegment is one segment the Indexer currently considers part of
// the committed index: its folder, metadata, the file set its
// snapshot entry carries, and any deletions already persisted against
// it.
type liveSegment struct {
	num       ixtypes.SegmentNum
	folder    storage.Folder
	meta      segment.Meta
	files     []string
	deletions *snapshot.DeletionBitVector
}

// Indexer is the single write-owner of one index directory (spec 4.6):
// it holds the write-lock for its lifetime, accumulates documents into
// an in-progress segment, and on Commit flushes that segment, folds in
// any elected merge, and atomically publishes a new snapshot.
type Indexer struct {
	folder   storage.Folder
	schema   *segment.Schema
	registry *analysis.Registry
	cfg      ixconfig.Config
	policy   MergePolicy

	lockFactory  *snapshot.LockFactory
	writeRelease snapshot.Release

	mu          sync.Mutex
	segments    []*liveSegment
	nextSegNum  ixtypes.SegmentNum
	nextSnapNum ixtypes.SnapshotNum

	pending       *SegWriter
	pendingFolder storage.Folder
	pendingNum    ixtypes.SegmentNum
}

// Open acquires folder's write-lock and loads the live segment set from
// its latest snapshot, or starts empty if none exists yet (spec 4.6
// "Indexer.open").
func Open(folder storage.Folder, schema *segment.Schema, registry *analysis.Registry, cfg ixconfig.Config) (*Indexer, error) {
	lf, err := snapshot.NewLockFactory(folder, cfg.Locks)
	if err != nil {
		return nil, err
	}
	release, err := lf.AcquireWrite()
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		folder:       folder,
		schema:       schema,
		registry:     registry,
		cfg:          cfg,
		policy:       NewTieredMergePolicy(cfg.MergePolicy),
		lockFactory:  lf,
		writeRelease: release,
		nextSegNum:   1,
		nextSnapNum:  1,
	}

	num, ok, handles, err := LoadSegments(folder)
	if err != nil {
		release()
		return nil, err
	}
	if !ok {
		return ix, nil
	}
	ix.nextSnapNum = num + 1
	for _, h := range handles {
		ix.segments = append(ix.segments, &liveSegment{
			num: h.Num, folder: h.Folder, meta: h.Meta, files: h.Files, deletions: h.Deletions,
		})
		if h.Num >= ix.nextSegNum {
			ix.nextSegNum = h.Num + 1
		}
	}
	return ix, nil
}

// SegmentHandle is one live segment recovered from a snapshot: enough to
// either resume writing to it (Indexer) or open it read-only for queries
// (exec.SegmentView, via a Searcher).
type SegmentHandle struct {
	Num       ixtypes.SegmentNum
	Folder    storage.Folder
	Meta      segment.Meta
	Files     []string
	Deletions *snapshot.DeletionBitVector
}

// LoadSegments reads folder's latest snapshot (if any) and resolves every
// segment it names into an opened SegmentHandle, shared by Indexer.Open
// and a read-only Searcher so the snapshot-to-segment-set resolution
// logic exists in exactly one place.
func LoadSegments(folder storage.Folder) (ixtypes.SnapshotNum, bool, []SegmentHandle, error) {
	num, ok, err := snapshot.Latest(folder)
	if err != nil || !ok {
		return 0, ok, nil, err
	}
	snap, err := snapshot.Read(folder, num)
	if err != nil {
		return 0, false, nil, err
	}

	byTop := make(map[string][]string)
	var order []string
	for _, e := range snap.Entries {
		top := topLevel(e)
		if _, seen := byTop[top]; !seen {
			order = append(order, top)
		}
		byTop[top] = append(byTop[top], e)
	}
	var handles []SegmentHandle
	for _, top := range order {
		segNum, isSeg := segment.ParseName(top)
		if !isSeg {
			continue
		}
		files := byTop[top]
		segFolder, err := folder.FindFolder(top)
		if err != nil {
			return 0, false, nil, err
		}
		meta, err := segment.ReadMeta(segFolder)
		if err != nil {
			return 0, false, nil, err
		}
		h := SegmentHandle{Num: segNum, Folder: segFolder, Meta: meta, Files: files}
		if dels, ok := findDeletionsFile(files); ok {
			bv, err := snapshot.ReadDeletions(segFolder, dels)
			if err != nil {
				return 0, false, nil, err
			}
			h.Deletions = bv
		}
		handles = append(handles, h)
	}
	return num, true, handles, nil
}

// findDeletionsFile looks for a deletions-<base36>.bv entry among a
// segment's snapshot files and, if present, returns the snapshot number
// it was written against.
func findDeletionsFile(files []string) (ixtypes.SnapshotNum, bool) {
	for _, f := range files {
		name := f
		if i := strings.IndexByte(f, '/'); i >= 0 {
			name = f[i+1:]
		}
		const prefix, suffix = "deletions-", ".bv"
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		body := name[len(prefix) : len(name)-len(suffix)]
		n, err := strconv.ParseUint(body, 36, 64)
		if err != nil {
			continue
		}
		return ixtypes.SnapshotNum(n), true
	}
	return 0, false
}

// AddDoc writes doc's stored fields and inverts its indexed fields into
// the in-progress segment, opening one on first use.
func (ix *Indexer) AddDoc(ctx context.Context, doc storedoc.Doc, boost float64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.pending == nil {
		if err := ix.openPendingLocked(); err != nil {
			return err
		}
	}
	_, err := ix.pending.AddDoc(ctx, doc, boost)
	return err
}

func (ix *Indexer) openPendingLocked() error {
	num := ix.nextSegNum
	name := segment.Name(num)
	if err := ix.folder.Mkdir(name); err != nil {
		return err
	}
	segFolder, err := ix.folder.FindFolder(name)
	if err != nil {
		return err
	}
	w, err := NewSegWriter(segFolder, ix.schema, ix.registry, ix.cfg.Performance.ParallelFileWorkers)
	if err != nil {
		return err
	}
	ix.pending = w
	ix.pendingFolder = segFolder
	ix.pendingNum = num
	ix.nextSegNum = num + 1
	return nil
}

// DeleteDoc marks doc as deleted within the already-committed segment
// segNum (spec 4.6's delete path); the tombstone is staged in memory
// and persisted as a deletions-<snapshot>.bv file on the next Commit.
func (ix *Indexer) DeleteDoc(segNum ixtypes.SegmentNum, doc ixtypes.DocID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, ls := range ix.segments {
		if ls.num != segNum {
			continue
		}
		if ls.deletions == nil {
			ls.deletions = snapshot.NewDeletionBitVector(ls.meta.DocMax)
		}
		ls.deletions.Delete(doc)
		return nil
	}
	return ixerrors.Newf(ixerrors.KindBadArgument, "DeleteDoc: segment %d not live", segNum)
}

// Commit flushes the in-progress segment (if any), folds in whatever
// merge the MergePolicy elects, and atomically publishes a new snapshot
// before releasing stale files to the FilePurger (spec 4.6 steps 1-6).
func (ix *Indexer) Commit(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.pending != nil {
		result, err := ix.pending.Flush(ix.pendingFolder)
		if err != nil {
			return err
		}
		files := make([]string, len(result.Files))
		for i, f := range result.Files {
			files[i] = segment.Name(ix.pendingNum) + "/" + f
		}
		ix.segments = append(ix.segments, &liveSegment{
			num: ix.pendingNum, folder: ix.pendingFolder, meta: result.Meta, files: files,
		})
		ix.pending, ix.pendingFolder = nil, nil
	}

	infos := make([]SegmentInfo, len(ix.segments))
	for i, ls := range ix.segments {
		infos[i] = infoFromMeta(ls.num, ls.meta)
	}
	if selected, ok := ix.policy.SelectMerge(infos); ok {
		if err := ix.mergeLocked(ctx, selected); err != nil {
			return err
		}
	}

	snapNum := ix.nextSnapNum
	var entries []string
	for _, ls := range ix.segments {
		entries = append(entries, ls.files...)
		if ls.deletions != nil {
			delName := snapshot.DeletionsFileName(snapNum)
			if err := snapshot.WriteDeletions(ls.folder, snapNum, ls.deletions); err != nil {
				return err
			}
			ls.meta.DelCount = uint32(ls.deletions.DelCount())
			if err := segment.WriteMeta(ls.folder, ls.meta); err != nil {
				return err
			}
			entries = append(entries, segment.Name(ls.num)+"/"+delName)
		}
	}

	if err := snapshot.Write(ix.folder, snapshot.Snapshot{Num: snapNum, Entries: entries}); err != nil {
		return err
	}
	ix.nextSnapNum++

	if _, err := snapshot.NewFilePurger(ix.folder).Purge(); err != nil {
		return err
	}
	return nil
}

// mergeLocked folds the named segments into one fresh segment by
// re-running every live (non-deleted) document of each through a new
// Inverter/SegWriter pipeline: postings.Reader offers per-term lookups
// only and merge does not use lexicon.Reader.Terms, so raw posting
// streams are not spliced; re-indexing is licensed directly by
// spec 4.6's own phrasing ("feed it document-by-document").
func (ix *Indexer) mergeLocked(ctx context.Context, selected []ixtypes.SegmentNum) error {
	want := make(map[ixtypes.SegmentNum]bool, len(selected))
	for _, n := range selected {
		want[n] = true
	}

	mergedNum := ix.nextSegNum
	ix.nextSegNum++
	mergedName := segment.Name(mergedNum)
	if err := ix.folder.Mkdir(mergedName); err != nil {
		return err
	}
	mergedFolder, err := ix.folder.FindFolder(mergedName)
	if err != nil {
		return err
	}
	w, err := NewSegWriter(mergedFolder, ix.schema, ix.registry, ix.cfg.Performance.ParallelFileWorkers)
	if err != nil {
		return err
	}

	var kept []*liveSegment
	for _, ls := range ix.segments {
		if !want[ls.num] {
			kept = append(kept, ls)
			continue
		}
		r, err := storedoc.OpenSegment(ls.folder)
		if err != nil {
			return err
		}
		for doc := ixtypes.DocID(0); uint32(doc) < ls.meta.DocMax; doc++ {
			if ls.deletions != nil && ls.deletions.IsDeleted(doc) {
				continue
			}
			d, err := r.Get(doc)
			if err != nil {
				r.Close()
				return err
			}
			if _, err := w.AddDoc(ctx, d, 1.0); err != nil {
				r.Close()
				return err
			}
		}
		r.Close()
	}

	result, err := w.Flush(mergedFolder)
	if err != nil {
		return err
	}
	files := make([]string, len(result.Files))
	for i, f := range result.Files {
		files[i] = mergedName + "/" + f
	}
	kept = append(kept, &liveSegment{num: mergedNum, folder: mergedFolder, meta: result.Meta, files: files})
	ix.segments = kept
	return nil
}

// Close releases the write-lock. A live Indexer must not be used after
// Close returns.
func (ix *Indexer) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.writeRelease == nil {
		return nil
	}
	err := ix.writeRelease()
	ix.writeRelease = nil
	return err
}

func topLevel(entry string) string {
	if i := strings.IndexByte(entry, '/'); i >= 0 {
		return entry[:i]
	}
	return entry
}
