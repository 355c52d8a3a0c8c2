package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint16(t *testing.T) {
	b := make([]byte, 2)
	PutUint16(b, 0xBEEF)
	assert.Equal(t, []byte{0xBE, 0xEF}, b)
	assert.Equal(t, uint16(0xBEEF), Uint16(b))
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		input    string
		expected []byte
	}{
		{name: "padded", width: 6, input: "abc", expected: []byte{'a', 'b', 'c', 0, 0, 0}},
		{name: "exact", width: 3, input: "abc", expected: []byte("abc")},
		{name: "truncated", width: 2, input: "abc", expected: []byte("ab")},
		{name: "utf8 bytes", width: 4, input: "ä", expected: []byte{0xC3, 0xA4, 0, 0}},
		{name: "empty", width: 2, input: "", expected: []byte{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.width)
			for i := range dst {
				dst[i] = 0xFF
			}
			EncodeText(dst, tt.input)
			assert.Equal(t, tt.expected, dst)
		})
	}
}

func TestEncodeASCII(t *testing.T) {
	dst := make([]byte, 8)
	EncodeASCII(dst, "Jörg")
	assert.Equal(t, []byte{'J', '?', 'r', 'g', 0, 0, 0, 0}, dst)

	short := make([]byte, 2)
	EncodeASCII(short, "DJ0ABR")
	assert.Equal(t, []byte("DJ"), short)
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "abc", DecodeText([]byte{'a', 'b', 'c', 0, 0}))
	assert.Equal(t, "ab", DecodeText([]byte{'a', 0, 'b'}))
	assert.Equal(t, "", DecodeText([]byte{0, 0, 0}))
	assert.Equal(t, "ä", DecodeText([]byte{0xC3, 0xA4, 0}))
}
