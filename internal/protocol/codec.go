package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// PutUint16 stores v big-endian in the first two bytes of b
func PutUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// Uint16 reads a big-endian 16-bit field
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// EncodeText writes s as UTF-8 into the fixed-width field dst.
// Text longer than the field is truncated at the byte level, the rest of
// the field is zero filled.
func EncodeText(dst []byte, s string) {
	n := copy(dst, s)
	clear(dst[n:])
}

// EncodeASCII writes s into the fixed-width field dst, replacing every
// non-ASCII rune with '?'. The field is zero padded like EncodeText.
func EncodeASCII(dst []byte, s string) {
	n := 0
	for _, r := range s {
		if n >= len(dst) {
			break
		}
		if r >= utf8.RuneSelf {
			r = '?'
		}
		dst[n] = byte(r)
		n++
	}
	clear(dst[n:])
}

// DecodeText returns the text held in a zero padded field. Every zero byte
// is dropped, not only the trailing padding.
func DecodeText(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != 0 {
			out = append(out, c)
		}
	}
	return string(out)
}
