package protocol

import "fmt"

// Control command builders. Every result is a complete control datagram
// ready for the control queue.

// Command returns a single-byte command such as CMD_RESET_MODEM or CMD_TERMINATE
func Command(cmd byte) []byte {
	return []byte{cmd}
}

// SetVolume builds one of the four volume commands
func SetVolume(cmd byte, level byte) ([]byte, error) {
	switch cmd {
	case CMD_SET_PB_VOLUME, CMD_SET_CAP_VOLUME, CMD_SET_LS_VOLUME, CMD_SET_MIC_VOLUME:
	default:
		return nil, fmt.Errorf("command %d is not a volume command", cmd)
	}
	if level > 100 {
		return nil, fmt.Errorf("volume %d out of range 0..100", level)
	}
	return []byte{cmd, level}, nil
}

// Tuning starts the tuning carrier pattern selected by mode
func Tuning(mode byte) []byte {
	return []byte{CMD_TUNING, mode}
}

// SetFrequency sets the RTTY audio frequency in Hz
func SetFrequency(freq int16) []byte {
	b := []byte{CMD_SET_FREQ, 0, 0}
	PutUint16(b[1:], uint16(freq))
	return b
}

// NudgeFrequency moves the RTTY frequency one step up or down
func NudgeFrequency(up bool) []byte {
	if up {
		return []byte{CMD_SET_FREQ, 255 - 10}
	}
	return []byte{CMD_SET_FREQ, 10}
}

// RttyKey sends one character typed in real-time RTTY mode
func RttyKey(c byte) []byte {
	return []byte{CMD_RTTY_KEY, c}
}

// RttyString sends a prepared RTTY text. The modem switches TX on first
// ('#' marker); the length field does not count the marker.
func RttyString(text []byte) []byte {
	b := make([]byte, 4+len(text))
	b[0] = CMD_RTTY_STRING
	PutUint16(b[1:3], uint16(len(text)))
	b[3] = '#'
	copy(b[4:], text)
	return b
}

// TxOnOff switches the RTTY transmitter
func TxOnOff(on bool) []byte {
	return []byte{CMD_TX_ON_OFF, boolByte(on)}
}

// Voice mode command layout
const (
	VOICE_MODE_LENGTH   = 203
	VOICE_LS_OFFSET     = 3
	VOICE_MIC_OFFSET    = 103
	VOICE_DEVICE_LENGTH = 100
	VOICE_CODEC_OPUS    = 0
	VOICE_CODEC_CODEC2  = 1
)

// VoiceMode selects the voice operating mode, codec and the loudspeaker
// and microphone devices
func VoiceMode(mode, codec byte, loudspeaker, mic string) []byte {
	b := make([]byte, VOICE_MODE_LENGTH)
	b[0] = CMD_SET_VOICE_MODE
	b[1] = mode
	b[2] = codec
	EncodeText(b[VOICE_LS_OFFSET:VOICE_LS_OFFSET+VOICE_DEVICE_LENGTH], loudspeaker)
	EncodeText(b[VOICE_MIC_OFFSET:VOICE_MIC_OFFSET+VOICE_DEVICE_LENGTH], mic)
	return b
}
