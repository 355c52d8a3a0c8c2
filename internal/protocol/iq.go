package protocol

import "encoding/binary"

const IQ_WINDOW_LENGTH = 12

// IQ_SYNC is the marker that precedes every I/Q pair, newest byte first
var IQ_SYNC = [4]byte{0xE8, 0x03, 0x00, 0x00}

// IQWindow finds I/Q samples in the constellation byte stream. Bytes shift
// in one at a time, newest at index 0. Once the four newest bytes equal
// IQ_SYNC the next eight hold I and Q as little-endian int32 (window order).
//
// The zero value is ready to use. Not safe for concurrent use.
type IQWindow struct {
	window [IQ_WINDOW_LENGTH]byte
}

// Push shifts one byte in and reports a sample when the window is aligned
func (w *IQWindow) Push(b byte) (i, q int32, ok bool) {
	copy(w.window[1:], w.window[:IQ_WINDOW_LENGTH-1])
	w.window[0] = b

	if w.window[0] != IQ_SYNC[0] || w.window[1] != IQ_SYNC[1] ||
		w.window[2] != IQ_SYNC[2] || w.window[3] != IQ_SYNC[3] {
		return 0, 0, false
	}

	i = int32(binary.LittleEndian.Uint32(w.window[4:8]))
	q = int32(binary.LittleEndian.Uint32(w.window[8:12]))
	return i, q, true
}

// Feed pushes every byte of data and calls emit for each aligned sample
func (w *IQWindow) Feed(data []byte, emit func(i, q int32)) {
	for _, b := range data {
		if i, q, ok := w.Push(b); ok {
			emit(i, q)
		}
	}
}
