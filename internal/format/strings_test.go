package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeString(t *testing.T) {
	data := EncodeString("ab")
	assert.Equal(t, []byte{'a', 0, 'b', 0, 0, 0}, data)

	s, err := DecodeString(data)
	require.NoError(t, err)
	assert.Equal(t, "ab", s)
}

func TestDecodeStringStopsAtNUL(t *testing.T) {
	s, err := DecodeString([]byte{'x', 0, 0, 0, 'y', 0})
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}

func TestDecodeStringOddLength(t *testing.T) {
	s, err := DecodeString([]byte{'x', 0, 'y'})
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}

func TestMultiString(t *testing.T) {
	in := []string{`C:\Windows\a.sys`, "β-driver", "third"}
	data := EncodeMultiString(in)

	out, err := DecodeMultiString(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMultiStringEmpty(t *testing.T) {
	data := EncodeMultiString(nil)
	assert.Equal(t, []byte{0, 0}, data)

	out, err := DecodeMultiString(data)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMultiStringKeepsEmptyMiddleElement(t *testing.T) {
	data, err := EncodeUTF16LE("a\x00\x00b\x00\x00")
	require.NoError(t, err)

	out, err := DecodeMultiString(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, out)
	assert.Equal(t, data, EncodeMultiString(out))
}

func TestMultiStringExtraTerminators(t *testing.T) {
	data, err := EncodeUTF16LE("a\x00\x00\x00\x00")
	require.NoError(t, err)

	out, err := DecodeMultiString(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out)
}
