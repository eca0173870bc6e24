package varint

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestC32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 1 << 31, 0xFFFFFFFF}
	for _, v := range values {
		buf := PutC32(nil, v)
		assert.Equal(t, SizeC32(v), len(buf))
		got, err := ReadC32(bufio.NewReader(bytes.NewReader(buf)))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestC64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1 << 40, 0xFFFFFFFFFFFFFFFF}
	for _, v := range values {
		buf := PutC64(nil, v)
		assert.Equal(t, SizeC64(v), len(buf))
		got, err := ReadC64(bufio.NewReader(bytes.NewReader(buf)))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestStringRoundTripRejectsInvalidUTF8(t *testing.T) {
	buf := PutString(nil, "héllo, 世界")
	r := bytes.NewReader(buf)
	br := bufio.NewReader(r)
	got, err := ReadString(br, br)
	require.NoError(t, err)
	assert.Equal(t, "héllo, 世界", got)

	var bad []byte
	bad = PutC32(bad, 2)
	bad = append(bad, 0xFF, 0xFE)
	br2 := bufio.NewReader(bytes.NewReader(bad))
	_, err = ReadString(br2, br2)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSequenceRoundTripWithNulls(t *testing.T) {
	values := map[int]int32{2: 42}
	size := 4
	buf := WriteSequence(nil, size, func(i int) bool {
		_, ok := values[i]
		return ok
	}, func(dst []byte, i int) []byte {
		return PutI32(dst, values[i])
	})

	br := bufio.NewReader(bytes.NewReader(buf))
	got := map[int]int32{}
	n, err := ReadSequence(br, func() error {
		v, err := ReadI32(br)
		if err != nil {
			return err
		}
		got[-1] = v // placeholder, replaced by onElem below
		return nil
	}, func(i int) {
		got[i] = got[-1]
		delete(got, -1)
	})
	require.NoError(t, err)
	assert.Equal(t, size, n)
	assert.Equal(t, values, got)
}

func TestStringMapRoundTrip(t *testing.T) {
	data := map[string]uint32{"alpha": 1, "beta": 2, "gamma": 3}
	keys := []string{"alpha", "beta", "gamma"}
	buf := WriteStringMap(nil, keys, func(dst []byte, key string) []byte {
		return PutC32(dst, data[key])
	})

	r := bytes.NewReader(buf)
	br := bufio.NewReader(r)
	got := map[string]uint32{}
	var lastVal uint32
	err := ReadStringMap(br, br, func(key string) error {
		v, err := ReadC32(br)
		if err != nil {
			return err
		}
		lastVal = v
		return nil
	}, func(key string) {
		got[key] = lastVal
	})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
