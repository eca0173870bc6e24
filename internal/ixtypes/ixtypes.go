// Package ixtypes defines the small value types shared across every layer
// of the index: document and segment identity, field numbering, and the
// sentinel values the matcher tree relies on.
package ixtypes

import "math"

// DocID is a doc-id dense within a single segment, assigned from 0 by
// the writer; NoDoc marks "past the end" for matcher iteration.
type DocID uint32

// NoDoc is the sentinel returned by Matcher.Advance/Next once exhausted.
const NoDoc DocID = math.MaxUint32

// FieldNum is a per-segment field number. Zero is reserved for "missing".
type FieldNum uint32

// NoField marks an unassigned field number.
const NoField FieldNum = 0

// SegmentNum is the monotonically increasing integer identifying a
// segment, serialized as a base-36 directory name seg_<base36>.
type SegmentNum uint64

// SnapshotNum is the monotonically increasing integer identifying a
// snapshot manifest, serialized as snapshot_<base36>.json.
type SnapshotNum uint64

// Primitive enumerates the value containers a FieldType may select for a
// document field.
type Primitive uint8

const (
	PrimitiveText Primitive = iota
	PrimitiveBlob
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveFloat32
	PrimitiveFloat64
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveText:
		return "text"
	case PrimitiveBlob:
		return "blob"
	case PrimitiveInt32:
		return "i32"
	case PrimitiveInt64:
		return "i64"
	case PrimitiveFloat32:
		return "f32"
	case PrimitiveFloat64:
		return "f64"
	default:
		return "unknown"
	}
}

// PostingVariant selects how much per-doc detail a term's posting stream
// carries.
type PostingVariant uint8

const (
	// PostingMatchOnly carries doc-ids alone (no freq, no positions).
	PostingMatchOnly PostingVariant = iota
	// PostingScoreOnly carries doc-ids and term frequency.
	PostingScoreOnly
	// PostingRich carries doc-ids, term frequency, and positions (plus
	// offsets when the field is highlightable).
	PostingRich
)
