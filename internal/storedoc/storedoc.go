// Package storedoc implements the stored-field heap + offset index a
// segment's documents.dat / documents.ix pair holds (spec 3, 6): the
// source-of-truth copy of every field a FieldType marked Stored,
// retrievable by doc-id independent of the inverted index. Layout
// mirrors the lexicon package's split between a sequential data stream
// and a fixed-width pointer table, the same layering convention applied
// to a different record shape.
package storedoc

import "github.com/standardbeagle/ixo/internal/ixtypes"

// FieldValue is one stored field's value, tagged by the Primitive it
// was written under (spec 3: Document values are "UTF-8 text, opaque
// bytes, or one of four numeric widths").
type FieldValue struct {
	Primitive ixtypes.Primitive
	Text      string
	Blob      []byte
	I32       int32
	I64       int64
	F32       float32
	F64       float64
}

func Text(s string) FieldValue  { return FieldValue{Primitive: ixtypes.PrimitiveText, Text: s} }
func Blob(b []byte) FieldValue  { return FieldValue{Primitive: ixtypes.PrimitiveBlob, Blob: b} }
func Int32(v int32) FieldValue  { return FieldValue{Primitive: ixtypes.PrimitiveInt32, I32: v} }
func Int64(v int64) FieldValue  { return FieldValue{Primitive: ixtypes.PrimitiveInt64, I64: v} }
func Float32(v float32) FieldValue {
	return FieldValue{Primitive: ixtypes.PrimitiveFloat32, F32: v}
}
func Float64(v float64) FieldValue {
	return FieldValue{Primitive: ixtypes.PrimitiveFloat64, F64: v}
}

// Doc is the stored-field view of one document: field name to value.
// Writer.AddDoc stores the fields sorted by name, so a Doc read back
// lists them in name order, not in the order they were added.
type Doc struct {
	Fields []NamedValue
}

// NamedValue pairs a field name with its stored value.
type NamedValue struct {
	Name  string
	Value FieldValue
}

// Get returns the value stored under name, if any.
func (d Doc) Get(name string) (FieldValue, bool) {
	for _, nv := range d.Fields {
		if nv.Name == name {
			return nv.Value, true
		}
	}
	return FieldValue{}, false
}

const (
	docFileName = "documents.dat"
	ixFileName  = "documents.ix"
)
