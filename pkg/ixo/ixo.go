// Package ixo is the public facade over the index/search engine: Open
// an Index to write documents, NewSearcher to query a committed
// snapshot, optionally backed by an NRTWatcher for near-real-time
// reopen (spec_full 6 "External interfaces").
package ixo

import (
	"context"

	"github.com/standardbeagle/ixo/internal/analysis"
	"github.com/standardbeagle/ixo/internal/indexer"
	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/segment"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/storedoc"
)

// Hit is one search result: a matched document's stored fields and score.
type Hit struct {
	Doc   storedoc.Doc
	Score float64
}

// Index is the single write-owner of an index directory. It wraps
// indexer.Indexer with the public document/config types so callers never
// need to reach into internal/.
type Index struct {
	ix *indexer.Indexer
}

// Open creates or resumes an index rooted at folder, acquiring its write
// lock for the Index's lifetime (spec 4.6 "Indexer.open").
func Open(folder storage.Folder, schema *segment.Schema, cfg ixconfig.Config) (*Index, error) {
	ix, err := indexer.Open(folder, schema, analysis.NewRegistry(), cfg)
	if err != nil {
		return nil, err
	}
	return &Index{ix: ix}, nil
}

// AddDoc inverts doc's indexed fields and stages its stored fields into
// the current in-progress segment.
func (x *Index) AddDoc(ctx context.Context, doc storedoc.Doc, boost float64) error {
	return x.ix.AddDoc(ctx, doc, boost)
}

// DeleteDoc marks doc (identified by its segment and in-segment id) as
// deleted; the tombstone is durable as of the next Commit.
func (x *Index) DeleteDoc(segNum ixtypes.SegmentNum, doc ixtypes.DocID) error {
	return x.ix.DeleteDoc(segNum, doc)
}

// Commit flushes pending documents, folds in any elected merge, and
// atomically publishes a new snapshot (spec 4.6 "Indexer.commit").
func (x *Index) Commit(ctx context.Context) error {
	return x.ix.Commit(ctx)
}

// Close releases the write lock. The Index must not be used afterward.
func (x *Index) Close() error {
	return x.ix.Close()
}
