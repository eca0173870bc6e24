// Package varint is the no-dependency primitive codec layer: every
// on-disk structure in ixo (lexicon, postings, segment metadata) is built
// from these wire-exact encoders. It mirrors the teacher's layering
// convention of a zero-dependency low-level package (see
// internal/encoding/base63.go in the retrieval pack) with typed callers
// built on top — here the typed callers are package lexicon, postings,
// and segment rather than idcodec.
//
// Wire rules (spec 4.2): C32/C64 are little-endian-payload, 7-bits-per-byte,
// high bit means "more bytes follow", no sign extension. Fixed-width
// integers and floats are big-endian. Strings are C32 length + raw UTF-8
// bytes, and decoding must reject invalid UTF-8.
package varint

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"
)

// ErrOverflow is returned when a C32/C64 value would need more than 5/10
// continuation bytes respectively.
var ErrOverflow = errors.New("varint: value overflows target width")

// ErrInvalidUTF8 is returned by ReadString when the decoded bytes are not
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("varint: invalid UTF-8 in string")

// PutC32 appends the C32 encoding of v to dst and returns the result.
func PutC32(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// PutC64 appends the C64 encoding of v to dst and returns the result.
func PutC64(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// SizeC32 returns the number of bytes PutC32 would emit for v.
func SizeC32(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// SizeC64 returns the number of bytes PutC64 would emit for v.
func SizeC64(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// ReadC32 decodes a C32 value from r.
func ReadC32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverflow
}

// ReadC64 decodes a C64 value from r.
func ReadC64(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < 10; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverflow
}

// PutI8/I16/I32/I64/F32/F64 append big-endian fixed-width encodings.

func PutI8(dst []byte, v int8) []byte { return append(dst, byte(v)) }

func PutI16(dst []byte, v int16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	return append(dst, buf[:]...)
}

func PutI32(dst []byte, v int32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return append(dst, buf[:]...)
}

func PutI64(dst []byte, v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return append(dst, buf[:]...)
}

func PutF32(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

func PutF64(dst []byte, v float64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(dst, buf[:]...)
}

// PutString appends a C32 length prefix followed by the raw UTF-8 bytes.
func PutString(dst []byte, s string) []byte {
	dst = PutC32(dst, uint32(len(s)))
	return append(dst, s...)
}

// ReadString reads a C32-length-prefixed string and validates UTF-8.
func ReadString(r io.Reader, br io.ByteReader) (string, error) {
	n, err := ReadC32(br)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}
