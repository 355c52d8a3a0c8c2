package protocol

import "fmt"

// hsmodem UDP link constants

const (
	// Ports (application side)
	BROADCAST_PORT = 40131 // discovery probes, app -> modem
	TX_PORT        = 40132 // control and payload, app -> modem
	RX_PORT        = 40133 // all records, modem -> app

	// Address used while no modem has answered a probe
	UNKNOWN_MODEM_ADDRESS = "1.2.3.4"
	BROADCAST_ADDRESS     = "255.255.255.255"

	// Largest UDP datagram, so a record is never cut short on receive
	BUFFER_LENGTH = 65535

	// Flow control
	TX_FIFO_LOW_WATER = 2 // Payload is sent only while the modem TX fifo is below this (percent)

	// Discovery
	MAX_PROBE_MISSES = 3 // Unanswered probes before the modem is considered gone
)

// RecordTag is the leading byte of every datagram received from the modem.
type RecordTag byte

const (
	TagPayload        RecordTag = 1
	TagBroadcastReply RecordTag = 3
	TagSpectrum       RecordTag = 4
	TagConstellation  RecordTag = 5
	TagRttyChar       RecordTag = 6
	TagDone           RecordTag = 99
)

func (t RecordTag) String() string {
	switch t {
	case TagPayload:
		return "payload"
	case TagBroadcastReply:
		return "broadcast-reply"
	case TagSpectrum:
		return "spectrum"
	case TagConstellation:
		return "constellation"
	case TagRttyChar:
		return "rtty"
	case TagDone:
		return "done"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// Payload frame types (first byte of the payload status sub-header).
// Values 0..15 travel over the air.
const (
	FRAME_NO_TX       = 0
	FRAME_BER_TEST    = 1
	FRAME_IMAGE       = 2
	FRAME_ASCII_FILE  = 3
	FRAME_HTML_FILE   = 4
	FRAME_BINARY_FILE = 5
	FRAME_AUDIO       = 6
	FRAME_USERINFO    = 7
	FRAME_EXTERNAL    = 8
)

// Frame sequence markers carried in the modeInfo byte
const (
	SEQ_FIRST_FRAME  = 0
	SEQ_NEXT_FRAME   = 1
	SEQ_LAST_FRAME   = 2
	SEQ_SINGLE_FRAME = 3
)

// Control commands (first byte of a control datagram)
const (
	CMD_BULLETIN_FILE   = 16
	CMD_AUTOSEND_FILE   = 17
	CMD_AUTOSEND_FOLDER = 18
	CMD_MODEM_SHUTDOWN  = 19
	CMD_RESET_MODEM     = 20
	CMD_SET_PB_VOLUME   = 21
	CMD_SET_CAP_VOLUME  = 22
	CMD_SET_LS_VOLUME   = 23
	CMD_SET_MIC_VOLUME  = 24
	CMD_SET_VOICE_MODE  = 25
	CMD_TERMINATE       = 26
	CMD_TUNING          = 27
	CMD_MARKER          = 28
	CMD_SET_FREQ        = 29
	CMD_RTTY_KEY        = 30
	CMD_RTTY_STRING     = 31
	CMD_TX_ON_OFF       = 32
	CMD_RTTY_STOP_TX    = 33
)

// Record layouts
const (
	PAYLOAD_HEADER_LENGTH  = 10 // type, seq hi/lo, modeInfo, rxStatus, speed hi/lo, 3 reserved
	SPECTRUM_STATUS_LENGTH = 6  // txFifo, rxFifo, levelDetected, inSync, maxRxLevel, maxTxLevel
	REPLY_STATUS_LENGTH    = 2  // audio init status, voice init status

	USERINFO_CALLSIGN_LENGTH = 20
	USERINFO_LOCATOR_LENGTH  = 10
	USERINFO_NAME_LENGTH     = 20

	// Broadcast reply device list separators
	DEVICE_GROUP_SEPARATOR = "^"
	DEVICE_NAME_SEPARATOR  = "~"
)
