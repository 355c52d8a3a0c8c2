package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrShortRecord = errors.New("record too short")
	ErrBadLength   = errors.New("bad record length")
	ErrBadReply    = errors.New("malformed broadcast reply")
)

// BroadcastReply is the modem's answer to a discovery probe
type BroadcastReply struct {
	AudioInitStatus byte     // bitmask, audio device init result
	VoiceInitStatus byte     // bitmask, voice device init result
	Playback        []string // playback device names
	Capture         []string // capture device names
	Raw             string   // device list text as received, used for change detection
}

// Init status bits, for both the audio and the voice device pair
const (
	INIT_PLAYBACK_OK = 0x01
	INIT_CAPTURE_OK  = 0x02
)

// AudioOK reports whether the modem opened its data playback and capture devices
func (r *BroadcastReply) AudioOK() (playback, capture bool) {
	return r.AudioInitStatus&INIT_PLAYBACK_OK != 0, r.AudioInitStatus&INIT_CAPTURE_OK != 0
}

// VoiceOK reports whether the modem opened its loudspeaker and microphone
func (r *BroadcastReply) VoiceOK() (playback, capture bool) {
	return r.VoiceInitStatus&INIT_PLAYBACK_OK != 0, r.VoiceInitStatus&INIT_CAPTURE_OK != 0
}

// ParseBroadcastReply decodes a reply body (tag byte already removed):
// two status bytes followed by "pb1~pb2^cap1~cap2" as UTF-8.
func ParseBroadcastReply(b []byte) (*BroadcastReply, error) {
	if len(b) < REPLY_STATUS_LENGTH {
		return nil, fmt.Errorf("broadcast reply: %w (%d bytes)", ErrShortRecord, len(b))
	}

	raw := DecodeText(b[REPLY_STATUS_LENGTH:])
	groups := strings.Split(raw, DEVICE_GROUP_SEPARATOR)
	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: no %q between device groups", ErrBadReply, DEVICE_GROUP_SEPARATOR)
	}

	return &BroadcastReply{
		AudioInitStatus: b[0],
		VoiceInitStatus: b[1],
		Playback:        strings.Split(groups[0], DEVICE_NAME_SEPARATOR),
		Capture:         strings.Split(groups[1], DEVICE_NAME_SEPARATOR),
		Raw:             raw,
	}, nil
}

// BufferOccupancy is the modem status carried at the head of every
// spectrum record. It replaces the previous value wholesale.
type BufferOccupancy struct {
	TxFifo        int // playback (TX) fifo usage, percent
	RxFifo        int // capture (RX) fifo usage, percent
	LevelDetected int
	InSync        int
	MaxRxLevel    int
	MaxTxLevel    int
}

// Spectrum is one decoded spectrum record
type Spectrum struct {
	Occupancy BufferOccupancy
	Bins      []uint16
}

// ParseSpectrum decodes a spectrum record body: six status bytes followed
// by big-endian 16-bit magnitude bins. A trailing odd byte is ignored.
func ParseSpectrum(b []byte) (*Spectrum, error) {
	if len(b) < SPECTRUM_STATUS_LENGTH {
		return nil, fmt.Errorf("spectrum: %w (%d bytes)", ErrShortRecord, len(b))
	}

	s := &Spectrum{
		Occupancy: BufferOccupancy{
			TxFifo:        int(b[0]),
			RxFifo:        int(b[1]),
			LevelDetected: int(b[2]),
			InSync:        int(b[3]),
			MaxRxLevel:    int(b[4]),
			MaxTxLevel:    int(b[5]),
		},
	}

	data := b[SPECTRUM_STATUS_LENGTH:]
	s.Bins = make([]uint16, len(data)/2)
	for i := range s.Bins {
		s.Bins[i] = Uint16(data[2*i:])
	}

	return s, nil
}

// PayloadFrame is a payload record split into its status sub-header and data
type PayloadFrame struct {
	Type     byte
	Sequence uint16
	ModeInfo byte // frame sequence marker (SEQ_*)
	RxStatus byte
	Speed    uint16
	Reserved [3]byte
	Data     []byte
}

// ParsePayloadFrame decodes the 10-byte status sub-header of a payload
// record. Data aliases b.
func ParsePayloadFrame(b []byte) (*PayloadFrame, error) {
	if len(b) < PAYLOAD_HEADER_LENGTH {
		return nil, fmt.Errorf("payload: %w (%d bytes)", ErrShortRecord, len(b))
	}

	f := &PayloadFrame{
		Type:     b[0],
		Sequence: Uint16(b[1:3]),
		ModeInfo: b[3],
		RxStatus: b[4],
		Speed:    Uint16(b[5:7]),
		Data:     b[PAYLOAD_HEADER_LENGTH:],
	}
	copy(f.Reserved[:], b[7:10])

	return f, nil
}

// UserInfo is the body of a FRAME_USERINFO payload frame
type UserInfo struct {
	Callsign string
	Locator  string
	Name     string
}

// ParseUserInfo decodes callsign(20) + locator(10) + name(20)
func ParseUserInfo(data []byte) (*UserInfo, error) {
	const length = USERINFO_CALLSIGN_LENGTH + USERINFO_LOCATOR_LENGTH + USERINFO_NAME_LENGTH
	if len(data) < length {
		return nil, fmt.Errorf("userinfo: %w (%d bytes)", ErrShortRecord, len(data))
	}

	locStart := USERINFO_CALLSIGN_LENGTH
	nameStart := locStart + USERINFO_LOCATOR_LENGTH

	return &UserInfo{
		Callsign: DecodeText(data[:locStart]),
		Locator:  DecodeText(data[locStart:nameStart]),
		Name:     DecodeText(data[nameStart:length]),
	}, nil
}

func (u UserInfo) String() string {
	return fmt.Sprintf("%s %s %s", u.Callsign, u.Name, u.Locator)
}
