package postings

import (
	"bufio"
	"math"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/lexicon"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Matcher iterates a doc-id stream, compound queries tree matchers over
// leaves implementing this interface (spec 4.4/4.9).
type Matcher interface {
	// Advance moves to the first doc-id >= target, or ixtypes.NoDoc if
	// none remains.
	Advance(target ixtypes.DocID) ixtypes.DocID
	// Next moves to the next doc-id, or ixtypes.NoDoc if exhausted.
	Next() ixtypes.DocID
	// DocID returns the current doc-id (undefined before the first
	// Advance/Next call).
	DocID() ixtypes.DocID
	// Score returns the contribution of the current doc to the query's
	// total score.
	Score() float64
}

// Reader opens one field's posting stream for random-access term lookup.
type Reader struct {
	folder      storage.Folder
	field       string
	variant     ixtypes.PostingVariant
	withOffsets bool
	datIn       storage.InStream
	skipIn      storage.InStream
}

// OpenReader opens a field's posting streams, verifying and stripping
// each one's trailing xxhash64 checksum footer (spec_full 4.1).
func OpenReader(folder storage.Folder, field string, variant ixtypes.PostingVariant, withOffsets bool) (*Reader, error) {
	rawDat, err := folder.OpenIn("postings-" + field + ".dat")
	if err != nil {
		return nil, err
	}
	datIn, err := storage.OpenChecksummedIn(rawDat)
	if err != nil {
		return nil, err
	}
	rawSkip, err := folder.OpenIn("postings-" + field + ".skip")
	if err != nil {
		datIn.Close()
		return nil, err
	}
	skipIn, err := storage.OpenChecksummedIn(rawSkip)
	if err != nil {
		datIn.Close()
		return nil, err
	}
	return &Reader{folder: folder, field: field, variant: variant, withOffsets: withOffsets, datIn: datIn, skipIn: skipIn}, nil
}

func (r *Reader) Close() error {
	r.datIn.Close()
	return r.skipIn.Close()
}

type skipEntry struct {
	anchorDoc  ixtypes.DocID
	fileOffset int64
	docIndex   int
}

// loadSkipEntries decodes every skip entry for a term, starting at
// skipOffset and running (docFreq-1)/skipInterval entries, the number
// the writer records for a term with docFreq docs. Small per-term skip tables are
// read eagerly; posting lists in this library are segment-local and
// bounded by segment size, so this is not unbounded memory growth.
func (r *Reader) loadSkipEntries(skipOffset int64, docFreq int, skipInterval int) ([]skipEntry, error) {
	if skipOffset < 0 {
		return nil, nil
	}
	if docFreq == 0 {
		return nil, nil
	}
	count := (docFreq - 1) / skipInterval
	if count == 0 {
		return nil, nil
	}
	if err := r.skipIn.Seek(skipOffset); err != nil {
		return nil, err
	}
	br := bufio.NewReader(r.skipIn)
	entries := make([]skipEntry, 0, count)
	for i := 0; i < count; i++ {
		doc, err := varint.ReadC32(br)
		if err != nil {
			return nil, err
		}
		off, err := varint.ReadC64(br)
		if err != nil {
			return nil, err
		}
		idx, err := varint.ReadC32(br)
		if err != nil {
			return nil, err
		}
		entries = append(entries, skipEntry{anchorDoc: ixtypes.DocID(doc), fileOffset: int64(off), docIndex: int(idx)})
	}
	return entries, nil
}

// termMatcher walks one term's posting stream sequentially, using the
// skip list to fast-forward on Advance.
type termMatcher struct {
	r         *Reader
	info      lexicon.TermInfo
	skipIntvl int

	skips    []skipEntry
	skipPos  int

	br      *bufio.Reader
	prevDoc ixtypes.DocID
	docIdx  int
	docFreq int

	curDoc    ixtypes.DocID
	curTF     int
	curPos    []int32
	curStarts []int32
	curEnds   []int32
	idf       float64
	queryNorm float64
	boost     float64
}

// NewTermMatcher builds a Matcher over a single term's postings. idf and
// boost feed Score() (spec 4.8/4.9): score = sqrt(tf) * idf * boost,
// where the caller (exec.Compiler) passes the normalized weight as boost
// and applies the per-doc field norm by wrapping the returned matcher.
// queryNorm is stored but not used by Score.
func NewTermMatcher(r *Reader, info lexicon.TermInfo, skipInterval int, idf, queryNorm, boost float64) (Matcher, error) {
	if skipInterval <= 0 {
		skipInterval = DefaultSkipInterval
	}
	skips, err := r.loadSkipEntries(info.SkipOffset, int(info.DocFreq), skipInterval)
	if err != nil {
		return nil, err
	}
	m := &termMatcher{
		r: r, info: info, skipIntvl: skipInterval, skips: skips,
		docFreq: int(info.DocFreq), idf: idf, queryNorm: queryNorm, boost: boost,
		curDoc: ixtypes.NoDoc - 1,
	}
	if err := m.seekTo(info.PostingsOffset, 0, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *termMatcher) seekTo(offset int64, anchorDoc ixtypes.DocID, docIdx int) error {
	if err := m.r.datIn.Seek(offset); err != nil {
		return err
	}
	m.br = bufio.NewReader(m.r.datIn)
	m.prevDoc = anchorDoc
	m.docIdx = docIdx
	return nil
}

func (m *termMatcher) decodeOne() bool {
	if m.docIdx >= m.docFreq {
		m.curDoc = ixtypes.NoDoc
		return false
	}
	delta, err := varint.ReadC32(m.br)
	if err != nil {
		m.curDoc = ixtypes.NoDoc
		return false
	}
	var doc ixtypes.DocID
	if m.docIdx == 0 && m.prevDoc == 0 {
		doc = ixtypes.DocID(delta)
	} else {
		doc = m.prevDoc + ixtypes.DocID(delta)
	}
	m.prevDoc = doc
	m.docIdx++

	tf := 1
	if m.r.variant != ixtypes.PostingMatchOnly {
		v, err := varint.ReadC32(m.br)
		if err != nil {
			m.curDoc = ixtypes.NoDoc
			return false
		}
		tf = int(v)
	}
	var positions []int32
	if m.r.variant == ixtypes.PostingRich {
		positions = make([]int32, tf)
		var prev int32
		for i := 0; i < tf; i++ {
			d, err := varint.ReadC32(m.br)
			if err != nil {
				m.curDoc = ixtypes.NoDoc
				return false
			}
			var p int32
			if i == 0 {
				p = int32(d)
			} else {
				p = prev + int32(d)
			}
			positions[i] = p
			prev = p
		}
		var starts, ends []int32
		if m.r.withOffsets {
			starts = make([]int32, tf)
			ends = make([]int32, tf)
			var prevStart, prevEnd int32
			for i := 0; i < tf; i++ {
				sd, err := varint.ReadC32(m.br)
				if err != nil {
					m.curDoc = ixtypes.NoDoc
					return false
				}
				ed, err := varint.ReadC32(m.br)
				if err != nil {
					m.curDoc = ixtypes.NoDoc
					return false
				}
				var s, e int32
				if i == 0 {
					s, e = int32(sd), int32(ed)
				} else {
					s, e = prevStart+int32(sd), prevEnd+int32(ed)
				}
				starts[i], ends[i] = s, e
				prevStart, prevEnd = s, e
			}
		}
		m.curStarts = starts
		m.curEnds = ends
	}

	m.curDoc = doc
	m.curTF = tf
	m.curPos = positions
	return true
}

func (m *termMatcher) Next() ixtypes.DocID {
	if !m.decodeOne() {
		return ixtypes.NoDoc
	}
	return m.curDoc
}

func (m *termMatcher) Advance(target ixtypes.DocID) ixtypes.DocID {
	// Use the skip list to jump past whole skip intervals before
	// falling back to linear decode (spec 4.4: O(log) seek).
	for m.skipPos < len(m.skips) && m.skips[m.skipPos].anchorDoc < target {
		m.skipPos++
	}
	if m.skipPos > 0 {
		use := m.skips[m.skipPos-1]
		if use.docIndex > m.docIdx {
			m.seekTo(use.fileOffset, use.anchorDoc, use.docIndex)
		}
	}
	for {
		if !m.decodeOne() {
			return ixtypes.NoDoc
		}
		if m.curDoc >= target {
			return m.curDoc
		}
	}
}

func (m *termMatcher) DocID() ixtypes.DocID { return m.curDoc }

func (m *termMatcher) Positions() []int32 { return m.curPos }

// Offsets returns the current doc's per-occurrence start/end code-point
// offsets, or nil if the field does not carry offsets.
func (m *termMatcher) Offsets() (starts, ends []int32) { return m.curStarts, m.curEnds }

// Score implements spec 4.9's term score formula:
// tf^0.5 * idf * normalizedWeight, with the normalized weight passed in
// as boost; the field norm is multiplied in by exec's fieldNormMatcher.
func (m *termMatcher) Score() float64 {
	return sqrtApprox(float64(m.curTF)) * m.idf * m.boost
}

func sqrtApprox(x float64) float64 {
	return math.Sqrt(x)
}
