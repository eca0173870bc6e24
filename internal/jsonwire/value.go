// Package jsonwire implements the exact-format JSON codec ixo's snapshot
// manifests and segment metadata are persisted with: UTF-8, sorted
// object keys, 2-space indentation, trailing newline, and a strict
// escape set. It is hand-rolled rather than built on a third-party JSON
// library because the corpus has none that emits this precise,
// byte-stable wire format (deterministic key order, the specific escape
// set, BMP-only \u escapes, tolerant-mode top-level relaxation) — see
// DESIGN.md for the stdlib-vs-library note. Everything else in ixo that
// merely needs "a JSON blob" (e.g. config loading) reaches for a real
// library instead; this package exists because the spec pins the wire
// format itself as a testable property (spec 8).
package jsonwire

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is the tagged union every JSON document decodes into and every
// document is built from before encoding. It covers exactly the type
// family spec 8's round-trip property quantifies over: null, bool, int,
// float, UTF-8 string, sequences, and string-keyed maps.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value    { return Value{kind: KindArray, arr: vs} }
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool   { return v.b }
func (v Value) Int() int64   { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Str() string  { return v.s }
func (v Value) Arr() []Value { return v.arr }
func (v Value) Obj() map[string]Value { return v.obj }

// Get returns the field named key from an object Value, or Null if
// absent or v is not an object.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Null()
	}
	if val, ok := v.obj[key]; ok {
		return val
	}
	return Null()
}

// AsObject returns v's backing map and true if v is an object.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// AsArray returns v's backing slice and true if v is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsInt returns v's integer value and true if v is an int.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsString returns v's string value and true if v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Equal performs a deep structural comparison, used by the round-trip
// property tests (spec 8: from_json(to_json(x)) == x).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
