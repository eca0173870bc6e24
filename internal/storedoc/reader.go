package storedoc

import (
	"bufio"
	"io"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Reader resolves a doc-id to its stored Doc by seeking documents.ix for
// the record's starting offset, then decoding documents.dat from there.
type Reader struct {
	datIn storage.InStream
	ixIn  storage.InStream
}

// OpenSegment opens a segment folder's stored-document streams for
// reading, verifying and stripping each one's trailing xxhash64 checksum
// footer (spec_full 4.1).
func OpenSegment(folder storage.Folder) (*Reader, error) {
	rawDat, err := folder.OpenIn(docFileName)
	if err != nil {
		return nil, err
	}
	datIn, err := storage.OpenChecksummedIn(rawDat)
	if err != nil {
		return nil, err
	}
	rawIx, err := folder.OpenIn(ixFileName)
	if err != nil {
		return nil, err
	}
	ixIn, err := storage.OpenChecksummedIn(rawIx)
	if err != nil {
		return nil, err
	}
	return &Reader{datIn: datIn, ixIn: ixIn}, nil
}

func (r *Reader) Close() error {
	r.datIn.Close()
	return r.ixIn.Close()
}

// Get decodes and returns the document stored at doc.
func (r *Reader) Get(doc ixtypes.DocID) (Doc, error) {
	if err := r.ixIn.Seek(int64(doc) * 8); err != nil {
		return Doc{}, err
	}
	offset, err := varint.ReadI64(r.ixIn)
	if err != nil {
		return Doc{}, ixerrors.WrapKind(ixerrors.KindCorruptFile, "storedoc.Get", err)
	}
	if err := r.datIn.Seek(offset); err != nil {
		return Doc{}, err
	}
	br := bufio.NewReader(r.datIn)

	var d Doc
	err = varint.ReadStringMap(br, br, func(key string) error {
		v, err := readFieldValue(br)
		if err != nil {
			return err
		}
		d.Fields = append(d.Fields, NamedValue{Name: key, Value: v})
		return nil
	}, func(string) {})
	if err != nil {
		return Doc{}, ixerrors.WrapKind(ixerrors.KindDecodeError, "storedoc.Get", err)
	}
	return d, nil
}

func readFieldValue(br *bufio.Reader) (FieldValue, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return FieldValue{}, err
	}
	switch ixtypes.Primitive(tag) {
	case ixtypes.PrimitiveText:
		s, err := varint.ReadString(br, br)
		if err != nil {
			return FieldValue{}, err
		}
		return Text(s), nil
	case ixtypes.PrimitiveBlob:
		n, err := varint.ReadC32(br)
		if err != nil {
			return FieldValue{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return FieldValue{}, err
		}
		return Blob(buf), nil
	case ixtypes.PrimitiveInt32:
		v, err := varint.ReadI32(br)
		if err != nil {
			return FieldValue{}, err
		}
		return Int32(v), nil
	case ixtypes.PrimitiveInt64:
		v, err := varint.ReadI64(br)
		if err != nil {
			return FieldValue{}, err
		}
		return Int64(v), nil
	case ixtypes.PrimitiveFloat32:
		v, err := varint.ReadF32(br)
		if err != nil {
			return FieldValue{}, err
		}
		return Float32(v), nil
	case ixtypes.PrimitiveFloat64:
		v, err := varint.ReadF64(br)
		if err != nil {
			return FieldValue{}, err
		}
		return Float64(v), nil
	default:
		return FieldValue{}, ixerrors.Newf(ixerrors.KindCorruptFile, "storedoc: unknown primitive tag %d", tag)
	}
}
