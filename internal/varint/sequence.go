package varint

import "io"

// WriteSequence encodes a sparse sequence using spec 4.2's run-length
// null encoding: a C32 size, then for every present element a C32 gap to
// the next non-null slot followed by writeElem, then a final C32
// trailing gap after the last present element.
//
// present must report whether index i holds a value; writeElem appends
// the encoding of the value at index i to dst.
func WriteSequence(dst []byte, size int, present func(i int) bool, writeElem func(dst []byte, i int) []byte) []byte {
	dst = PutC32(dst, uint32(size))
	last := -1
	for i := 0; i < size; i++ {
		if !present(i) {
			continue
		}
		dst = PutC32(dst, uint32(i-last-1))
		dst = writeElem(dst, i)
		last = i
	}
	dst = PutC32(dst, uint32(size-last-1))
	return dst
}

// ReadSequence decodes a run-length-null sequence, invoking onElem(i) for
// each present index in ascending order. It returns the total declared
// size.
func ReadSequence(br io.ByteReader, readElem func() error, onElem func(i int)) (int, error) {
	size, err := ReadC32(br)
	if err != nil {
		return 0, err
	}
	pos := -1
	for {
		gap, err := ReadC32(br)
		if err != nil {
			return 0, err
		}
		pos += int(gap) + 1
		if pos >= int(size) {
			break
		}
		if err := readElem(); err != nil {
			return 0, err
		}
		onElem(pos)
	}
	return int(size), nil
}
