package storedoc

import (
	"sort"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Writer appends stored documents sequentially to documents.dat,
// recording each one's starting offset to documents.ix so Reader can
// seek directly to doc N (spec 6: "documents.dat / .ix -- stored field
// heap + offsets").
type Writer struct {
	datOut storage.OutStream
	ixOut  storage.OutStream
	count  uint32
}

// StartSegment opens a segment folder's stored-document streams, each
// wrapped with a trailing xxhash64 checksum footer (spec_full 4.1).
func StartSegment(folder storage.Folder) (*Writer, error) {
	rawDat, err := folder.OpenOut(docFileName)
	if err != nil {
		return nil, err
	}
	rawIx, err := folder.OpenOut(ixFileName)
	if err != nil {
		return nil, err
	}
	return &Writer{datOut: storage.NewChecksummedOutStream(rawDat), ixOut: storage.NewChecksummedOutStream(rawIx)}, nil
}

// AddDoc appends one document, writing its starting offset to the
// index stream before the record itself (so doc 0's offset is always
// present even if Finish is never reached, aiding crash diagnosis).
func (w *Writer) AddDoc(d Doc) error {
	offset := w.datOut.Pos()
	var obuf []byte
	obuf = varint.PutI64(obuf, offset)
	if _, err := w.ixOut.Write(obuf); err != nil {
		return err
	}

	keys := make([]string, len(d.Fields))
	byName := make(map[string]FieldValue, len(d.Fields))
	for i, nv := range d.Fields {
		keys[i] = nv.Name
		byName[nv.Name] = nv.Value
	}
	sort.Strings(keys)

	var buf []byte
	buf = varint.WriteStringMap(buf, keys, func(dst []byte, key string) []byte {
		return putFieldValue(dst, byName[key])
	})
	if _, err := w.datOut.Write(buf); err != nil {
		return err
	}
	w.count++
	return nil
}

// Finish closes the underlying streams and returns the number of
// documents written.
func (w *Writer) Finish() (uint32, error) {
	if err := w.datOut.Close(); err != nil {
		return 0, err
	}
	if err := w.ixOut.Close(); err != nil {
		return 0, err
	}
	return w.count, nil
}

func putFieldValue(dst []byte, v FieldValue) []byte {
	dst = append(dst, byte(v.Primitive))
	switch v.Primitive {
	case ixtypes.PrimitiveText:
		dst = varint.PutString(dst, v.Text)
	case ixtypes.PrimitiveBlob:
		dst = varint.PutC32(dst, uint32(len(v.Blob)))
		dst = append(dst, v.Blob...)
	case ixtypes.PrimitiveInt32:
		dst = varint.PutI32(dst, v.I32)
	case ixtypes.PrimitiveInt64:
		dst = varint.PutI64(dst, v.I64)
	case ixtypes.PrimitiveFloat32:
		dst = varint.PutF32(dst, v.F32)
	case ixtypes.PrimitiveFloat64:
		dst = varint.PutF64(dst, v.F64)
	}
	return dst
}
