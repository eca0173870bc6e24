// Package postings implements per-(field, term) doc-id + freq + position
// streams with delta encoding, a sparse skip index for O(log n) advance,
// and the Matcher interface the query execution layer drives (spec 4.4).
//
// At index time a RawPostingList accumulates (doc_id, position) pairs per
// term in memory; on flush the indexer sorts by term then doc-id and
// hands each term's doc run to Writer.WriteTerm.
package postings

import (
	"sort"

	"github.com/standardbeagle/ixo/internal/ixtypes"
)

// DefaultSkipInterval is how many docs separate consecutive skip entries.
const DefaultSkipInterval = 128

// Posting is one document's contribution to a term's postings list.
type Posting struct {
	DocID        ixtypes.DocID
	Positions    []int32 // empty unless the variant carries positions
	StartOffsets []int32 // empty unless the variant carries offsets
	EndOffsets   []int32
}

// TF returns the term frequency implied by this posting: explicit
// position count when present, else 1 (match-only/score-only encode
// frequency directly at write time instead).
func (p Posting) TF() int {
	if len(p.Positions) > 0 {
		return len(p.Positions)
	}
	return 1
}

// RawPostingList accumulates postings for one (field, term) pair during
// indexing. The inverter appends (doc_id, position) as it processes each
// document's tokens; Finish sorts by doc_id and merges same-doc entries,
// matching spec 3's Posting data model.
type RawPostingList struct {
	entries map[ixtypes.DocID]*Posting
	order   []ixtypes.DocID
}

func NewRawPostingList() *RawPostingList {
	return &RawPostingList{entries: make(map[ixtypes.DocID]*Posting)}
}

// Add records one occurrence of the term at position pos (with optional
// start/end code-point offsets) in doc.
func (l *RawPostingList) Add(doc ixtypes.DocID, pos int32, startOff, endOff int32) {
	p, ok := l.entries[doc]
	if !ok {
		p = &Posting{DocID: doc}
		l.entries[doc] = p
		l.order = append(l.order, doc)
	}
	p.Positions = append(p.Positions, pos)
	p.StartOffsets = append(p.StartOffsets, startOff)
	p.EndOffsets = append(p.EndOffsets, endOff)
}

// Finish returns the postings sorted ascending by doc-id, ready for
// Writer.WriteTerm.
func (l *RawPostingList) Finish() []Posting {
	sort.Slice(l.order, func(i, j int) bool { return l.order[i] < l.order[j] })
	out := make([]Posting, 0, len(l.order))
	for _, d := range l.order {
		out = append(out, *l.entries[d])
	}
	return out
}
