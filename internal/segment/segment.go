package segment

import (
	"io"
	"strconv"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/jsonwire"
	"github.com/standardbeagle/ixo/internal/storage"
)

// FormatVersion is the current segmeta.json format version this package
// writes; ReadMeta rejects a higher version with ixerrors.KindUnsupportedFmt.
const FormatVersion = 1

const metaFileName = "segmeta.json"

// Meta is a segment's persisted metadata (spec 3: "segmeta.json (doc
// count, field-number→name mapping, format versions)").
type Meta struct {
	FormatVersion int
	DocMax        uint32
	DelCount      uint32
	FieldNums     map[string]ixtypes.FieldNum
}

// DocCount is doc_max - del_count (spec 3 invariant).
func (m Meta) DocCount() uint32 { return m.DocMax - m.DelCount }

// Name returns the base-36 directory name for a segment number (spec 3:
// "serialized as a base-36 directory name seg_<base36>").
func Name(num ixtypes.SegmentNum) string {
	return "seg_" + strconv.FormatUint(uint64(num), 36)
}

// ParseName recovers the segment number from a seg_<base36> directory
// name, returning ok=false if name isn't in that shape.
func ParseName(name string) (ixtypes.SegmentNum, bool) {
	const prefix = "seg_"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	n, err := strconv.ParseUint(name[len(prefix):], 36, 64)
	if err != nil {
		return 0, false
	}
	return ixtypes.SegmentNum(n), true
}

func metaToValue(m Meta) jsonwire.Value {
	fields := make(map[string]jsonwire.Value, len(m.FieldNums))
	for name, num := range m.FieldNums {
		fields[name] = jsonwire.Int(int64(num))
	}
	return jsonwire.Object(map[string]jsonwire.Value{
		"format_version": jsonwire.Int(int64(m.FormatVersion)),
		"doc_max":        jsonwire.Int(int64(m.DocMax)),
		"del_count":      jsonwire.Int(int64(m.DelCount)),
		"fields":         jsonwire.Object(fields),
	})
}

func metaFromValue(v jsonwire.Value) (Meta, error) {
	obj, ok := v.AsObject()
	if !ok {
		return Meta{}, ixerrors.New(ixerrors.KindCorruptFile, "segmeta.json: top level is not an object")
	}
	m := Meta{FieldNums: make(map[string]ixtypes.FieldNum)}
	if fv, ok := obj["format_version"]; ok {
		i, _ := fv.AsInt()
		m.FormatVersion = int(i)
	}
	if dv, ok := obj["doc_max"]; ok {
		i, _ := dv.AsInt()
		m.DocMax = uint32(i)
	}
	if dv, ok := obj["del_count"]; ok {
		i, _ := dv.AsInt()
		m.DelCount = uint32(i)
	}
	if fv, ok := obj["fields"]; ok {
		fobj, ok := fv.AsObject()
		if !ok {
			return Meta{}, ixerrors.New(ixerrors.KindCorruptFile, "segmeta.json: fields is not an object")
		}
		for name, nv := range fobj {
			i, ok := nv.AsInt()
			if !ok {
				return Meta{}, ixerrors.New(ixerrors.KindCorruptFile, "segmeta.json: field number is not an integer")
			}
			m.FieldNums[name] = ixtypes.FieldNum(i)
		}
	}
	if m.FormatVersion > FormatVersion {
		return Meta{}, ixerrors.Newf(ixerrors.KindUnsupportedFmt, "segmeta.json format_version %d newer than reader %d", m.FormatVersion, FormatVersion)
	}
	return m, nil
}

// WriteMeta serializes m as segmeta.json into folder.
func WriteMeta(folder storage.Folder, m Meta) error {
	if m.FormatVersion == 0 {
		m.FormatVersion = FormatVersion
	}
	data, err := jsonwire.Marshal(metaToValue(m))
	if err != nil {
		return ixerrors.WrapKind(ixerrors.KindInternal, "segment.WriteMeta", err)
	}
	out, err := folder.OpenOut(metaFileName)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadMeta loads segmeta.json from folder.
func ReadMeta(folder storage.Folder) (Meta, error) {
	in, err := folder.OpenIn(metaFileName)
	if err != nil {
		return Meta{}, err
	}
	defer in.Close()
	buf := make([]byte, in.Length())
	if _, err := io.ReadFull(in, buf); err != nil {
		return Meta{}, ixerrors.WrapKind(ixerrors.KindIO, "segment.ReadMeta", err)
	}
	v, err := jsonwire.Unmarshal(buf, jsonwire.Options{})
	if err != nil {
		return Meta{}, ixerrors.WrapKind(ixerrors.KindCorruptFile, "segment.ReadMeta", err)
	}
	return metaFromValue(v)
}

// Segment is an immutable, already-written unit of index state (spec
// 3): a folder rooted at seg_<base36> plus its parsed metadata.
type Segment struct {
	Num    ixtypes.SegmentNum
	Folder storage.Folder
	Meta   Meta
}

// Open loads a segment's metadata from its folder (already rooted at
// seg_<base36> by the caller).
func Open(num ixtypes.SegmentNum, folder storage.Folder) (*Segment, error) {
	m, err := ReadMeta(folder)
	if err != nil {
		return nil, err
	}
	return &Segment{Num: num, Folder: folder, Meta: m}, nil
}
