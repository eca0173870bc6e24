package postings

import (
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/lexicon"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Writer appends one field's terms to postings-<field>.dat (and an
// accompanying postings-<field>.skip), returning the TermInfo each term
// should be registered under in the field's lexicon.
type Writer struct {
	variant      ixtypes.PostingVariant
	withOffsets  bool
	skipInterval int

	datOut  storage.OutStream
	skipOut storage.OutStream
}

// NewWriter opens a field's posting streams, each wrapped with a
// trailing xxhash64 checksum footer (spec_full 4.1).
func NewWriter(folder storage.Folder, field string, variant ixtypes.PostingVariant, withOffsets bool, skipInterval int) (*Writer, error) {
	if skipInterval <= 0 {
		skipInterval = DefaultSkipInterval
	}
	rawDat, err := folder.OpenOut("postings-" + field + ".dat")
	if err != nil {
		return nil, err
	}
	rawSkip, err := folder.OpenOut("postings-" + field + ".skip")
	if err != nil {
		return nil, err
	}
	datOut := storage.NewChecksummedOutStream(rawDat)
	skipOut := storage.NewChecksummedOutStream(rawSkip)
	return &Writer{variant: variant, withOffsets: withOffsets, skipInterval: skipInterval, datOut: datOut, skipOut: skipOut}, nil
}

// WriteTerm appends docs (already sorted ascending by DocID, e.g. via
// RawPostingList.Finish) to the postings stream and returns the TermInfo
// to register in the lexicon.
func (w *Writer) WriteTerm(docs []Posting) (lexicon.TermInfo, error) {
	postingsOffset := w.datOut.Pos()
	skipOffset := w.skipOut.Pos()
	hasSkipEntries := false

	var buf []byte
	var prevDoc ixtypes.DocID
	for i, d := range docs {
		delta := uint32(d.DocID - prevDoc)
		if i == 0 {
			delta = uint32(d.DocID)
		}
		buf = varint.PutC32(buf, delta)

		if w.variant != ixtypes.PostingMatchOnly {
			buf = varint.PutC32(buf, uint32(d.TF()))
		}
		if w.variant == ixtypes.PostingRich {
			var prevPos int32
			for j, pos := range d.Positions {
				posDelta := pos - prevPos
				if j == 0 {
					posDelta = pos
				}
				buf = varint.PutC32(buf, uint32(posDelta))
				prevPos = pos
			}
			if w.withOffsets && len(d.StartOffsets) == len(d.Positions) {
				var prevStart, prevEnd int32
				for j := range d.Positions {
					sd := d.StartOffsets[j] - prevStart
					ed := d.EndOffsets[j] - prevEnd
					if j == 0 {
						sd = d.StartOffsets[j]
						ed = d.EndOffsets[j]
					}
					buf = varint.PutC32(buf, uint32(sd))
					buf = varint.PutC32(buf, uint32(ed))
					prevStart, prevEnd = d.StartOffsets[j], d.EndOffsets[j]
				}
			}
		}

		prevDoc = d.DocID

		next := i + 1
		if next < len(docs) && next%w.skipInterval == 0 {
			// The skip entry anchors on this doc (prevDoc): seeking to
			// file_offset and seeding the delta chain's base with doc_id
			// lets decoding resume at docs[next] without having walked
			// the entries in between.
			var sbuf []byte
			sbuf = varint.PutC32(sbuf, uint32(prevDoc))
			sbuf = varint.PutC64(sbuf, uint64(postingsOffset+int64(len(buf))))
			sbuf = varint.PutC32(sbuf, uint32(next))
			if _, err := w.skipOut.Write(sbuf); err != nil {
				return lexicon.TermInfo{}, err
			}
			hasSkipEntries = true
		}
	}
	if _, err := w.datOut.Write(buf); err != nil {
		return lexicon.TermInfo{}, err
	}

	ti := lexicon.TermInfo{DocFreq: uint32(len(docs)), PostingsOffset: postingsOffset}
	if hasSkipEntries {
		ti.SkipOffset = skipOffset
	} else {
		ti.SkipOffset = -1
	}
	return ti, nil
}

// Finish closes the underlying streams.
func (w *Writer) Finish() error {
	if err := w.datOut.Close(); err != nil {
		return err
	}
	return w.skipOut.Close()
}
