package varint

import "io"

// WriteStringMap encodes a map with spec 4.2's map layout: total size,
// then the count of string-keyed entries, then the (key, value) pairs in
// the order keys is given. ixo only ever needs string-keyed maps
// (the per-document stored-field maps of package storedoc); the
// any-keyed remainder the spec describes has no caller in this
// implementation, so WriteStringMap always emits zero trailing
// any-keyed entries.
func WriteStringMap(dst []byte, keys []string, writeVal func(dst []byte, key string) []byte) []byte {
	dst = PutC32(dst, uint32(len(keys)))
	dst = PutC32(dst, uint32(len(keys))) // string-keyed count == total count
	for _, k := range keys {
		dst = PutString(dst, k)
		dst = writeVal(dst, k)
	}
	return dst
}

// ReadStringMap decodes a map written by WriteStringMap, invoking
// onEntry for each (key, value) pair in stream order.
func ReadStringMap(r io.Reader, br io.ByteReader, readVal func(key string) error, onEntry func(key string)) error {
	total, err := ReadC32(br)
	if err != nil {
		return err
	}
	strCount, err := ReadC32(br)
	if err != nil {
		return err
	}
	for i := uint32(0); i < strCount; i++ {
		key, err := ReadString(r, br)
		if err != nil {
			return err
		}
		if err := readVal(key); err != nil {
			return err
		}
		onEntry(key)
	}
	_ = total // remaining any-keyed entries: none in this implementation
	return nil
}
