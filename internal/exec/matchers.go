package exec

import (
	"container/heap"
	"math"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/postings"
)

// fieldNormMatcher multiplies an inner matcher's per-doc score by the
// current doc's field-length norm, the missing ingredient termMatcher
// itself can't supply since it has no access to the segment-wide norms
// array (spec 4.9: tf^0.5 * idf * field_norm * normalized_weight).
type fieldNormMatcher struct {
	inner postings.Matcher
	norms []float32
}

func withFieldNorm(inner postings.Matcher, norms []float32) postings.Matcher {
	if inner == nil {
		return nil
	}
	return &fieldNormMatcher{inner: inner, norms: norms}
}

func (m *fieldNormMatcher) Advance(target ixtypes.DocID) ixtypes.DocID { return m.inner.Advance(target) }
func (m *fieldNormMatcher) Next() ixtypes.DocID                        { return m.inner.Next() }
func (m *fieldNormMatcher) DocID() ixtypes.DocID                       { return m.inner.DocID() }
func (m *fieldNormMatcher) Score() float64 {
	norm := float32(1)
	if d := int(m.inner.DocID()); d >= 0 && d < len(m.norms) && m.norms[d] != 0 {
		norm = m.norms[d]
	}
	return m.inner.Score() * float64(norm)
}

// Positions forwards to the wrapped matcher when it carries positions,
// so a fieldNormMatcher-wrapped term leaf still satisfies the
// positioned interface phraseMatcher needs.
func (m *fieldNormMatcher) Positions() []int32 {
	if p, ok := m.inner.(positioned); ok {
		return p.Positions()
	}
	return nil
}

// positioned is implemented by matchers that can report the current
// doc's occurrence positions, needed for phrase adjacency checks.
type positioned interface {
	Positions() []int32
}

// matchAllMatcher emits every doc in [0, docMax).
type matchAllMatcher struct {
	docMax  ixtypes.DocID
	cur     ixtypes.DocID
	live    func(ixtypes.DocID) bool
	started bool
}

func newMatchAllMatcher(docMax ixtypes.DocID, live func(ixtypes.DocID) bool) postings.Matcher {
	return &matchAllMatcher{docMax: docMax, live: live}
}

func (m *matchAllMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	m.started = true
	for d := target; d < m.docMax; d++ {
		if m.live == nil || m.live(d) {
			m.cur = d
			return d
		}
	}
	m.cur = ixtypes.NoDoc
	return ixtypes.NoDoc
}
func (m *matchAllMatcher) Next() ixtypes.DocID {
	if !m.started {
		return m.Advance(0)
	}
	if m.cur == ixtypes.NoDoc {
		return ixtypes.NoDoc
	}
	return m.Advance(m.cur + 1)
}
func (m *matchAllMatcher) DocID() ixtypes.DocID { return m.cur }
func (m *matchAllMatcher) Score() float64       { return 1.0 }

// noMatchMatcher emits nothing.
type noMatchMatcher struct{}

func newNoMatchMatcher() postings.Matcher { return noMatchMatcher{} }

func (noMatchMatcher) Advance(ixtypes.DocID) ixtypes.DocID { return ixtypes.NoDoc }
func (noMatchMatcher) Next() ixtypes.DocID                 { return ixtypes.NoDoc }
func (noMatchMatcher) DocID() ixtypes.DocID                { return ixtypes.NoDoc }
func (noMatchMatcher) Score() float64                      { return 0 }

// andMatcher advances its rarest (first) child, then conjunction-advances
// the rest to the same doc, repeating until all agree or one is
// exhausted (spec 4.9). Children must arrive pre-sorted rarest-first.
type andMatcher struct {
	children []postings.Matcher
	cur      ixtypes.DocID
	started  bool
}

func newANDMatcher(children []postings.Matcher) postings.Matcher {
	if len(children) == 0 {
		return newNoMatchMatcher()
	}
	return &andMatcher{children: children}
}

func (m *andMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	m.started = true
	lead := m.children[0].Advance(target)
	for lead != ixtypes.NoDoc {
		agree := true
		for _, c := range m.children[1:] {
			if d := c.Advance(lead); d != lead {
				agree = false
				lead = m.children[0].Advance(d)
				break
			}
		}
		if agree {
			m.cur = lead
			return lead
		}
	}
	m.cur = ixtypes.NoDoc
	return ixtypes.NoDoc
}
func (m *andMatcher) Next() ixtypes.DocID {
	if !m.started {
		return m.Advance(0)
	}
	if m.cur == ixtypes.NoDoc {
		return ixtypes.NoDoc
	}
	return m.Advance(m.cur + 1)
}
func (m *andMatcher) DocID() ixtypes.DocID { return m.cur }
func (m *andMatcher) Score() float64 {
	var sum float64
	for _, c := range m.children {
		sum += c.Score()
	}
	return sum
}

// orHeapEntry is one live child matcher ordered by its current doc-id.
type orHeap []postings.Matcher

func (h orHeap) Len() int            { return len(h) }
func (h orHeap) Less(i, j int) bool  { return h[i].DocID() < h[j].DocID() }
func (h orHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *orHeap) Push(x interface{}) { *h = append(*h, x.(postings.Matcher)) }
func (h *orHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// orMatcher unions its children via a min-heap keyed by current doc-id
// (spec 4.9), scoring the current doc as the sum of every child
// currently positioned there times a coordination factor
// overlap/max_overlap (spec 4.9's Boolean OR formula).
type orMatcher struct {
	children  []postings.Matcher
	maxOverlap int
	h         orHeap
	cur       ixtypes.DocID
	curScore  float64
	primed    bool
}

func newORMatcher(children []postings.Matcher) postings.Matcher {
	children = filterNonNil(children)
	if len(children) == 0 {
		return newNoMatchMatcher()
	}
	return &orMatcher{children: children, maxOverlap: len(children), cur: ixtypes.NoDoc}
}

func filterNonNil(ms []postings.Matcher) []postings.Matcher {
	out := ms[:0]
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (m *orMatcher) initHeap(advance func(postings.Matcher) ixtypes.DocID) {
	m.h = make(orHeap, 0, len(m.children))
	for _, c := range m.children {
		if advance(c) != ixtypes.NoDoc {
			m.h = append(m.h, c)
		}
	}
	heap.Init(&m.h)
	m.primed = true
}

func (m *orMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	if !m.primed {
		m.initHeap(func(c postings.Matcher) ixtypes.DocID { return c.Advance(target) })
	} else {
		for m.h.Len() > 0 && m.h[0].DocID() < target {
			c := m.h[0]
			if c.Advance(target) == ixtypes.NoDoc {
				heap.Pop(&m.h)
			} else {
				heap.Fix(&m.h, 0)
			}
		}
	}
	return m.settle()
}

func (m *orMatcher) Next() ixtypes.DocID {
	if !m.primed {
		m.initHeap(func(c postings.Matcher) ixtypes.DocID { return c.Next() })
		return m.settle()
	}
	if m.h.Len() == 0 {
		m.cur = ixtypes.NoDoc
		return ixtypes.NoDoc
	}
	return m.Advance(m.cur + 1)
}

// settle pops every matcher currently parked at the heap's minimum
// doc-id, sums their scores with a coordination factor, and leaves the
// remainder (if any) at the top of the heap for the next call.
func (m *orMatcher) settle() ixtypes.DocID {
	if m.h.Len() == 0 {
		m.cur = ixtypes.NoDoc
		return ixtypes.NoDoc
	}
	doc := m.h[0].DocID()
	var sum float64
	overlap := 0
	var resurface []postings.Matcher
	for m.h.Len() > 0 && m.h[0].DocID() == doc {
		c := heap.Pop(&m.h).(postings.Matcher)
		sum += c.Score()
		overlap++
		resurface = append(resurface, c)
	}
	for _, c := range resurface {
		heap.Push(&m.h, c)
	}
	m.cur = doc
	m.curScore = sum * (float64(overlap) / float64(m.maxOverlap))
	return doc
}

func (m *orMatcher) DocID() ixtypes.DocID { return m.cur }
func (m *orMatcher) Score() float64       { return m.curScore }

// notMatcher emits every doc in [0, docMax) the child does not produce.
type notMatcher struct {
	child   postings.Matcher
	docMax  ixtypes.DocID
	cur     ixtypes.DocID
	started bool
}

func newNOTMatcher(child postings.Matcher, docMax ixtypes.DocID) postings.Matcher {
	return &notMatcher{child: child, docMax: docMax}
}

func (m *notMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	m.started = true
	childDoc := m.child.Advance(target)
	for d := target; d < m.docMax; d++ {
		if childDoc == d {
			childDoc = m.child.Next()
			continue
		}
		m.cur = d
		return d
	}
	m.cur = ixtypes.NoDoc
	return ixtypes.NoDoc
}
func (m *notMatcher) Next() ixtypes.DocID {
	if !m.started {
		return m.Advance(0)
	}
	if m.cur == ixtypes.NoDoc {
		return ixtypes.NoDoc
	}
	return m.Advance(m.cur + 1)
}
func (m *notMatcher) DocID() ixtypes.DocID { return m.cur }
func (m *notMatcher) Score() float64       { return 1.0 }

// phraseMatcher advances N position-carrying leaf matchers in lock-step,
// verifying their positions form an arithmetic progression with unit
// step once they share a doc (spec 4.9).
type phraseMatcher struct {
	leaves  []postings.Matcher
	pos     []positioned
	cur     ixtypes.DocID
	tf      int
	idf     float64
	boost   float64
	started bool
}

func newPhraseMatcher(leaves []postings.Matcher, idfSum, boost float64) postings.Matcher {
	if len(leaves) == 0 {
		return newNoMatchMatcher()
	}
	if len(leaves) == 1 {
		return leaves[0]
	}
	pos := make([]positioned, len(leaves))
	for i, l := range leaves {
		p, ok := l.(positioned)
		if !ok {
			return newNoMatchMatcher()
		}
		pos[i] = p
	}
	return &phraseMatcher{leaves: leaves, pos: pos, idf: idfSum, boost: boost}
}

func (m *phraseMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	m.started = true
	doc := m.leaves[0].Advance(target)
	for doc != ixtypes.NoDoc {
		agree := true
		for _, l := range m.leaves[1:] {
			if d := l.Advance(doc); d != doc {
				agree = false
				doc = m.leaves[0].Advance(d)
				break
			}
		}
		if agree && m.matchesPhrase() {
			m.cur = doc
			return doc
		}
		if agree {
			doc = m.leaves[0].Next()
		}
	}
	m.cur = ixtypes.NoDoc
	return ixtypes.NoDoc
}

func (m *phraseMatcher) Next() ixtypes.DocID {
	if !m.started {
		return m.Advance(0)
	}
	if m.cur == ixtypes.NoDoc {
		return ixtypes.NoDoc
	}
	return m.Advance(m.cur + 1)
}

// matchesPhrase checks, for the leaves' current shared doc, whether some
// alignment of positions[i] - i is constant across all leaves (a unit-
// step arithmetic progression), recording the match count as tf.
func (m *phraseMatcher) matchesPhrase() bool {
	base := m.pos[0].Positions()
	m.tf = 0
	for _, want := range base {
		ok := true
		for i := 1; i < len(m.pos); i++ {
			if !containsShifted(m.pos[i].Positions(), want+int32(i)) {
				ok = false
				break
			}
		}
		if ok {
			m.tf++
		}
	}
	return m.tf > 0
}

func containsShifted(positions []int32, target int32) bool {
	for _, p := range positions {
		if p == target {
			return true
		}
	}
	return false
}

func (m *phraseMatcher) DocID() ixtypes.DocID { return m.cur }
func (m *phraseMatcher) Score() float64 {
	return math.Sqrt(float64(m.tf)) * m.idf * m.boost
}
