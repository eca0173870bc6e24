package lexicon

import (
	"encoding/binary"

	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Writer writes one field's lexicon. The caller must pass terms in
// strictly ascending byte-lexicographic order; the writer never retains
// a term (spec 4.3).
type Writer struct {
	folder        storage.Folder
	field         string
	indexInterval int

	datOut  storage.OutStream
	ixOut   storage.OutStream
	ixixOut storage.OutStream

	prevTerm  string
	count     int
	indexCnt  int
	tempMode  bool
	tempOut   storage.OutStream
}

// StartField opens a field's three lexicon streams, each wrapped with a
// trailing xxhash64 checksum footer (spec_full 4.1). indexInterval <= 0
// selects DefaultIndexInterval.
func StartField(folder storage.Folder, field string, indexInterval int) (*Writer, error) {
	if indexInterval <= 0 {
		indexInterval = DefaultIndexInterval
	}
	rawDat, err := folder.OpenOut(datName(field))
	if err != nil {
		return nil, err
	}
	rawIx, err := folder.OpenOut(ixName(field))
	if err != nil {
		return nil, err
	}
	rawIxix, err := folder.OpenOut(ixixName(field))
	if err != nil {
		return nil, err
	}
	datOut := storage.NewChecksummedOutStream(rawDat)
	ixOut := storage.NewChecksummedOutStream(rawIx)
	ixixOut := storage.NewChecksummedOutStream(rawIxix)
	return &Writer{
		folder:        folder,
		field:         field,
		indexInterval: indexInterval,
		datOut:        datOut,
		ixOut:         ixOut,
		ixixOut:       ixixOut,
	}, nil
}

// StartTemp opens a writer in temp mode: it writes only to the supplied
// stream with no key frames, used during merge sorting (spec 4.3).
func StartTemp(out storage.OutStream) *Writer {
	return &Writer{tempMode: true, tempOut: out}
}

// AddTerm appends text's prefix-compressed delta (and, every
// indexInterval-th call in non-temp mode, a key frame to .ix plus an
// offset entry to .ixix).
func (w *Writer) AddTerm(text string, info TermInfo) error {
	out := w.datOut
	if w.tempMode {
		out = w.tempOut
	}

	datOffsetBeforeWrite := out.Pos()

	common := commonPrefixLen(w.prevTerm, text)
	suffix := text[common:]

	var buf []byte
	buf = varint.PutC32(buf, uint32(common))
	buf = varint.PutString(buf, suffix)
	buf = putTermInfo(buf, info)
	if _, err := out.Write(buf); err != nil {
		return err
	}

	if !w.tempMode && w.count%w.indexInterval == 0 {
		ixOffset := w.ixOut.Pos()
		var kbuf []byte
		kbuf = varint.PutString(kbuf, text)
		kbuf = putTermInfo(kbuf, info)
		kbuf = varint.PutC64(kbuf, uint64(datOffsetBeforeWrite))
		if _, err := w.ixOut.Write(kbuf); err != nil {
			return err
		}

		var pbuf [8]byte
		binary.BigEndian.PutUint64(pbuf[:], uint64(ixOffset))
		if _, err := w.ixixOut.Write(pbuf[:]); err != nil {
			return err
		}
		w.indexCnt++
	}

	w.prevTerm = text
	w.count++
	return nil
}

// FinishField closes the three streams and returns the field's term
// count and key-frame (index entry) count.
func (w *Writer) FinishField() (termCount, indexCount int, err error) {
	if w.tempMode {
		return w.count, 0, nil
	}
	// spec 9 open question: the original has a doubled ix_out nil check
	// where the second was plainly meant to check ixix_out; check all
	// three streams distinctly here.
	if w.datOut == nil || w.ixOut == nil || w.ixixOut == nil {
		return 0, 0, errDecode("FinishField", errMissingStream)
	}
	if err := w.datOut.Close(); err != nil {
		return 0, 0, err
	}
	if err := w.ixOut.Close(); err != nil {
		return 0, 0, err
	}
	if err := w.ixixOut.Close(); err != nil {
		return 0, 0, err
	}
	return w.count, w.indexCnt, nil
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
