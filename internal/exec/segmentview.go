// Package exec compiles a query.Query into a matcher tree against one or
// more segments, scores matches via TF-IDF, and collects the top-N hits
// (spec 4.8-4.10): Compiler, Matcher, Collector, Similarity.
package exec

import (
	"github.com/standardbeagle/ixo/internal/indexer"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/lexicon"
	"github.com/standardbeagle/ixo/internal/postings"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/snapshot"
	"github.com/standardbeagle/ixo/internal/storage"
)

// SegmentView is a read-only, already-open handle onto one committed
// segment: its metadata, schema, and lazily-opened per-field lexicon and
// posting readers, closed together via Close.
type SegmentView struct {
	Num       ixtypes.SegmentNum
	Folder    storage.Folder
	Meta      segment.Meta
	Schema    *segment.Schema
	Deletions *snapshot.DeletionBitVector

	lexicons map[string]*lexicon.Reader
	postings map[string]*postings.Reader
	norms    map[string][]float32
}

// OpenSegmentView opens a segment's metadata for querying; field
// lexicon/posting streams and norms are opened on first use by
// lexiconFor, postingsFor and normsFor.
func OpenSegmentView(num ixtypes.SegmentNum, folder storage.Folder, schema *segment.Schema) (*SegmentView, error) {
	m, err := segment.ReadMeta(folder)
	if err != nil {
		return nil, err
	}
	return &SegmentView{
		Num: num, Folder: folder, Meta: m, Schema: schema,
		lexicons: make(map[string]*lexicon.Reader),
		postings: make(map[string]*postings.Reader),
		norms:    make(map[string][]float32),
	}, nil
}

func (sv *SegmentView) lexiconFor(field string) (*lexicon.Reader, error) {
	if r, ok := sv.lexicons[field]; ok {
		return r, nil
	}
	r, err := lexicon.OpenField(sv.Folder, field)
	if err != nil {
		return nil, err
	}
	sv.lexicons[field] = r
	return r, nil
}

func (sv *SegmentView) postingsFor(field string) (*postings.Reader, error) {
	if r, ok := sv.postings[field]; ok {
		return r, nil
	}
	ft, ok := sv.Schema.Resolve(field)
	if !ok {
		return nil, nil
	}
	r, err := postings.OpenReader(sv.Folder, field, ft.PostingVariant, ft.Highlightable)
	if err != nil {
		return nil, err
	}
	sv.postings[field] = r
	return r, nil
}

func (sv *SegmentView) normsFor(field string) ([]float32, error) {
	if n, ok := sv.norms[field]; ok {
		return n, nil
	}
	n, err := indexer.ReadNorms(sv.Folder, field, sv.Meta.DocMax)
	if err != nil {
		return nil, err
	}
	sv.norms[field] = n
	return n, nil
}

// docFreq returns a term's document frequency in field, or 0 if absent.
func (sv *SegmentView) docFreq(field, term string) (uint32, error) {
	lr, err := sv.lexiconFor(field)
	if err != nil {
		return 0, err
	}
	info, ok, err := lr.Find(term)
	if err != nil || !ok {
		return 0, err
	}
	return info.DocFreq, nil
}

// rangeTerms returns every term hit in field's lexicon within
// [lower, upper] (spec 4.8 RangeQuery), opening the field's lexicon on
// first use the same way docFreq does.
func (sv *SegmentView) rangeTerms(field, lower, upper string, includeLower, includeUpper bool) ([]lexicon.TermHit, error) {
	lr, err := sv.lexiconFor(field)
	if err != nil {
		return nil, err
	}
	return lr.Range(lower, upper, includeLower, includeUpper)
}

// isLive reports whether doc is neither deleted nor past doc_max.
func (sv *SegmentView) isLive(doc ixtypes.DocID) bool {
	if uint32(doc) >= sv.Meta.DocMax {
		return false
	}
	return sv.Deletions == nil || !sv.Deletions.IsDeleted(doc)
}

// Close releases every lexicon/posting stream the view opened.
func (sv *SegmentView) Close() error {
	var first error
	for _, r := range sv.lexicons {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, r := range sv.postings {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
