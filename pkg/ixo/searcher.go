package ixo

import (
	"sort"
	"sync"

	"github.com/standardbeagle/ixo/internal/exec"
	"github.com/standardbeagle/ixo/internal/indexer"
	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/query"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/snapshot"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
	"github.com/standardbeagle/ixo/internal/watch"
)

// Searcher is a read-only view bound to one snapshot (spec 5: "Readers
// see a monotonically consistent view fixed at open time"). Reopen
// atomically swaps in a newer snapshot's view; Close releases every
// segment handle and the snapshot read-lock.
type Searcher struct {
	folder storage.Folder
	schema *segment.Schema
	cfg    ixconfig.Config

	lockFactory *snapshot.LockFactory

	mu          sync.RWMutex
	snapNum     ixtypes.SnapshotNum
	readRelease snapshot.Release
	views       []*exec.SegmentView

	watcher *watch.NRTWatcher
}

// NewSearcher opens folder's latest snapshot, pinning it with a read-lock
// so the FilePurger leaves its files alone while the Searcher is open.
func NewSearcher(folder storage.Folder, schema *segment.Schema, cfg ixconfig.Config) (*Searcher, error) {
	lf, err := snapshot.NewLockFactory(folder, cfg.Locks)
	if err != nil {
		return nil, err
	}
	s := &Searcher{folder: folder, schema: schema, cfg: cfg, lockFactory: lf}
	if err := s.reopenLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reopen swaps in the latest snapshot if a newer one has been committed
// since this Searcher (or its last Reopen) was opened, closing the
// previous view's segment handles and read-lock only after the new view
// is ready.
func (s *Searcher) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reopenLocked()
}

func (s *Searcher) reopenLocked() error {
	num, ok, handles, err := indexer.LoadSegments(s.folder)
	if err != nil {
		return err
	}
	if ok && num == s.snapNum && s.readRelease != nil {
		return nil
	}

	var release snapshot.Release
	if ok {
		release, err = s.lockFactory.AcquireRead(snapshot.Name(num))
		if err != nil {
			return err
		}
	}

	var views []*exec.SegmentView
	for _, h := range handles {
		v, err := exec.OpenSegmentView(h.Num, h.Folder, s.schema)
		if err != nil {
			closeViews(views)
			if release != nil {
				_ = release()
			}
			return err
		}
		v.Deletions = h.Deletions
		views = append(views, v)
	}

	oldViews, oldRelease := s.views, s.readRelease
	s.views, s.snapNum, s.readRelease = views, num, release
	closeViews(oldViews)
	if oldRelease != nil {
		_ = oldRelease()
	}
	return nil
}

func closeViews(views []*exec.SegmentView) {
	for _, v := range views {
		_ = v.Close()
	}
}

// Watch starts an NRTWatcher that calls Reopen whenever a new snapshot
// manifest appears under folder, debounced per cfg.Watch.DebounceMs. Only
// an OSFolder-backed index has a real filesystem path to watch.
func (s *Searcher) Watch() error {
	osf, ok := s.folder.(*storage.OSFolder)
	if !ok {
		return ixerrors.New(ixerrors.KindBadArgument, "Searcher.Watch: folder is not filesystem-backed")
	}
	w, err := watch.New(osf.Path, s.cfg.Watch.DebounceMs, s.Reopen)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// segmentHit is one segment-local candidate, carried alongside the
// SegmentView it came from until the final cross-segment merge (a bare
// DocID is only unique within its own segment).
type segmentHit struct {
	view  *exec.SegmentView
	doc   ixtypes.DocID
	score float64
}

// Search compiles q against every live segment in the current snapshot,
// collects each segment's local top-(offset+numWanted) candidates, then
// merges across segments into one globally top-N-ranked result set.
func (s *Searcher) Search(q query.Query, offset, numWanted int) ([]Hit, error) {
	s.mu.RLock()
	views := s.views
	cfg := s.cfg
	s.mu.RUnlock()

	var all []segmentHit
	for _, v := range views {
		m, err := exec.Compile(q, v, cfg)
		if err != nil {
			return nil, err
		}
		local := exec.NewSortCollector(0, offset+numWanted)
		exec.Run(m, local)
		for _, hit := range local.Results() {
			all = append(all, segmentHit{view: v, doc: hit.DocID, score: hit.Score})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + numWanted
	if end > len(all) {
		end = len(all)
	}

	out := make([]Hit, 0, end-offset)
	for _, h := range all[offset:end] {
		doc, err := s.fetchDoc(h)
		if err != nil {
			return nil, err
		}
		out = append(out, Hit{Doc: doc, Score: h.score})
	}
	return out, nil
}

func (s *Searcher) fetchDoc(h segmentHit) (storedoc.Doc, error) {
	r, err := storedoc.OpenSegment(h.view.Folder)
	if err != nil {
		return storedoc.Doc{}, err
	}
	defer r.Close()
	return r.Get(h.doc)
}

// Close releases every segment handle and the current snapshot's
// read-lock, stopping the NRT watcher first if one is running.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		_ = s.watcher.Stop()
		s.watcher = nil
	}
	closeViews(s.views)
	s.views = nil
	if s.readRelease == nil {
		return nil
	}
	err := s.readRelease()
	s.readRelease = nil
	return err
}
