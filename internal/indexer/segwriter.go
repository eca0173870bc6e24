package indexer

import (
	"context"
	"sort"

	"github.com/standardbeagle/ixo/internal/analysis"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/lexicon"
	"github.com/standardbeagle/ixo/internal/postings"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

// SegWriter accumulates one new segment's documents: stored fields go
// straight to storedoc.Writer as they arrive, while indexed fields
// accumulate in an Inverter until Flush sorts and writes the lexicon +
// posting + norms files (spec 4.6: "Flush postings per field -> sort ->
// write lexicon + posting files. Flush stored fields and term
// vectors.").
type SegWriter struct {
	schema  *segment.Schema
	inv     *Inverter
	stored  *storedoc.Writer
	docMax  ixtypes.DocID
}

// NewSegWriter opens documents.dat/.ix in folder and an Inverter ready
// to accumulate postings for docs added via AddDoc.
func NewSegWriter(folder storage.Folder, schema *segment.Schema, registry *analysis.Registry, numWorkers int) (*SegWriter, error) {
	stored, err := storedoc.StartSegment(folder)
	if err != nil {
		return nil, err
	}
	return &SegWriter{
		schema: schema,
		inv:    NewInverter(schema, registry, numWorkers),
		stored: stored,
	}, nil
}

// AddDoc assigns the next dense doc-id to doc, writes its stored fields,
// and inverts its indexed fields (spec 4.6 "Indexer.add_doc").
func (w *SegWriter) AddDoc(ctx context.Context, doc storedoc.Doc, boost float64) (ixtypes.DocID, error) {
	docID := w.docMax
	if err := w.stored.AddDoc(doc); err != nil {
		return 0, err
	}
	if err := w.inv.InvertDoc(ctx, doc, docID, boost); err != nil {
		return 0, err
	}
	w.docMax++
	return docID, nil
}

// FlushResult is the set of files Flush wrote, for the caller to fold
// into the commit's snapshot entries.
type FlushResult struct {
	Meta  segment.Meta
	Files []string
}

// Flush closes the stored-document streams and, for every field the
// Inverter accumulated postings for, sorts its terms and writes a
// lexicon + posting-list pair plus a norms file, then writes segmeta.json
// (spec 4.6 steps 1-2).
func (w *SegWriter) Flush(folder storage.Folder) (FlushResult, error) {
	docCount, err := w.stored.Finish()
	if err != nil {
		return FlushResult{}, err
	}

	files := []string{"documents.dat", "documents.ix", "segmeta.json"}
	fieldNums := make(map[string]ixtypes.FieldNum, len(w.inv.fields))

	for _, name := range w.inv.FieldNames() {
		ft, _ := w.schema.Resolve(name)
		fieldNums[name] = w.schema.FieldNum(name)

		acc := w.inv.fields[name]
		terms := make([]string, 0, len(acc.terms))
		for term := range acc.terms {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		lw, err := lexicon.StartField(folder, name, ft.IndexInterval)
		if err != nil {
			return FlushResult{}, err
		}
		pw, err := postings.NewWriter(folder, name, ft.PostingVariant, ft.Highlightable, ft.SkipInterval)
		if err != nil {
			return FlushResult{}, err
		}
		for _, term := range terms {
			ti, err := pw.WriteTerm(acc.terms[term].Finish())
			if err != nil {
				return FlushResult{}, err
			}
			if err := lw.AddTerm(term, ti); err != nil {
				return FlushResult{}, err
			}
		}
		if _, _, err := lw.FinishField(); err != nil {
			return FlushResult{}, err
		}
		if err := pw.Finish(); err != nil {
			return FlushResult{}, err
		}
		if err := writeNorms(folder, name, acc.norms); err != nil {
			return FlushResult{}, err
		}
		files = append(files,
			"lexicon-"+name+".dat", "lexicon-"+name+".ix", "lexicon-"+name+".ixix",
			"postings-"+name+".dat", "postings-"+name+".skip",
			"norms-"+name+".dat",
		)
	}

	meta := segment.Meta{DocMax: uint32(docCount), FieldNums: fieldNums}
	if err := segment.WriteMeta(folder, meta); err != nil {
		return FlushResult{}, err
	}
	return FlushResult{Meta: meta, Files: files}, nil
}
