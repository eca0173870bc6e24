package exec

import (
	"container/heap"
	"sort"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/postings"
)

// HitCollector receives (doc_id, score) callbacks as a matcher is walked
// (spec 4.10). Collect returning false stops the walk early.
type HitCollector interface {
	Collect(doc ixtypes.DocID, score float64) (more bool)
}

// Hit is one collected result: a matched doc and its score.
type Hit struct {
	DocID ixtypes.DocID
	Score float64
}

// hitHeap is a min-heap on Score, letting SortCollector evict its
// current worst hit in O(log k) when a new one arrives.
type hitHeap []Hit

func (h hitHeap) Len() int            { return len(h) }
func (h hitHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h hitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x interface{}) { *h = append(*h, x.(Hit)) }
func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// SortCollector keeps a bounded min-heap of the best offset+num_wanted
// hits seen so far (spec 4.10), sorting and trimming the leading offset
// off only once collection finishes.
type SortCollector struct {
	offset int
	want   int
	cap    int
	h      hitHeap
}

// NewSortCollector returns a collector that will retain the best
// offset+numWanted hits and, via Results, yield numWanted of them after
// skipping the first offset in descending-score order.
func NewSortCollector(offset, numWanted int) *SortCollector {
	capacity := offset + numWanted
	if capacity <= 0 {
		capacity = 0
	}
	return &SortCollector{offset: offset, want: numWanted, cap: capacity}
}

// Collect implements HitCollector: it admits (doc, score) into the bounded
// heap, evicting the current worst hit once the heap is at capacity and
// the new score beats it.
func (c *SortCollector) Collect(doc ixtypes.DocID, score float64) bool {
	if c.cap == 0 {
		return true
	}
	if len(c.h) < c.cap {
		heap.Push(&c.h, Hit{DocID: doc, Score: score})
	} else if len(c.h) > 0 && score > c.h[0].Score {
		c.h[0] = Hit{DocID: doc, Score: score}
		heap.Fix(&c.h, 0)
	}
	return true
}

// Results sorts the retained hits descending by score and returns the
// window [offset, offset+numWanted); equal scores are ordered by
// ascending DocID.
func (c *SortCollector) Results() []Hit {
	out := make([]Hit, len(c.h))
	copy(out, c.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	if c.offset >= len(out) {
		return nil
	}
	end := c.offset + c.want
	if end > len(out) {
		end = len(out)
	}
	return out[c.offset:end]
}

// Run walks m to completion, feeding every live doc's score to collector.
func Run(m postings.Matcher, collector HitCollector) {
	for doc := m.Next(); doc != ixtypes.NoDoc; doc = m.Next() {
		if !collector.Collect(doc, m.Score()) {
			return
		}
	}
}
