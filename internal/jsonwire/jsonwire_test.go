package jsonwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortedKeysAndIndent(t *testing.T) {
	v := Object(map[string]Value{"b": Int(1), "a": Int(2)})
	out, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 2,\n  \"b\": 1\n}\n", string(out))
}

func TestRoundTripScalarsAndContainers(t *testing.T) {
	values := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(-42),
		Float(3.5),
		String("hello \"world\"\n"),
		Array(Int(1), Int(2), Null()),
		Object(map[string]Value{"x": Array(String("a"), String("b"))}),
	}
	for _, v := range values {
		out, err := Marshal(v)
		require.NoError(t, err)
		got, err := Unmarshal(out, Options{})
		require.NoError(t, err)
		assert.True(t, Equal(v, got), "round trip mismatch for %#v", v)
	}
}

func TestUnmarshalRejectsNonContainerTopLevelUnlessTolerant(t *testing.T) {
	_, err := Unmarshal([]byte(`"just a string"`), Options{})
	assert.Error(t, err)

	v, err := Unmarshal([]byte(`"just a string"`), Options{Tolerant: true})
	require.NoError(t, err)
	assert.Equal(t, "just a string", v.Str())
}

func TestUnmarshalRejectsRawControlBytes(t *testing.T) {
	_, err := Unmarshal([]byte("[\"a\x01b\"]"), Options{})
	assert.Error(t, err)
}

func TestUnmarshalRejectsSurrogatePairEscape(t *testing.T) {
	_, err := Unmarshal([]byte("[\"\\uD83D\\uDE00\"]"), Options{})
	assert.Error(t, err)
}

func TestMarshalEmitsNonBMPRaw(t *testing.T) {
	out, err := Marshal(Array(String("😀")))
	require.NoError(t, err)
	assert.Contains(t, string(out), "😀")
}
