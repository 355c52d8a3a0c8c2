package protocol

import "fmt"

// Discovery request layout
const (
	DISCOVERY_REQUEST_TAG    = 0x3c
	DISCOVERY_REQUEST_LENGTH = 270

	SPEED_INDETERMINATE = 255 // speed index value the modem ignores

	DR_PB_VOLUME_OFFSET   = 1
	DR_CAP_VOLUME_OFFSET  = 2
	DR_ANNOUNCE_OFFSET    = 3
	DR_LS_VOLUME_OFFSET   = 4
	DR_MIC_VOLUME_OFFSET  = 5
	DR_RESERVED_OFFSET    = 6
	DR_INTRO_OFFSET       = 7
	DR_AUTOSYNC_OFFSET    = 8
	DR_SPEED_OFFSET       = 9
	DR_EXTERNAL_IF_OFFSET = 10
	DR_PB_DEVICE_OFFSET   = 20
	DR_CAP_DEVICE_OFFSET  = 120
	DR_CALLSIGN_OFFSET    = 220
	DR_LOCATOR_OFFSET     = 240
	DR_NAME_OFFSET        = 250
	DR_DEVICE_NAME_LENGTH = 100
	DR_CALLSIGN_LENGTH    = 20
	DR_LOCATOR_LENGTH     = 10
	DR_NAME_LENGTH        = 20
)

// DiscoveryRequest is the probe the application sends to find the modem.
// It also pushes the current station settings to the modem on every probe.
type DiscoveryRequest struct {
	PlaybackVolume    byte
	CaptureVolume     byte
	Announcement      byte // announcement mode / duration index
	LoudspeakerVolume byte
	MicVolume         byte
	SendIntro         bool
	RttyAutosync      bool
	SpeedIndex        byte // SPEED_INDETERMINATE while no speed is selected
	ExternalIF        bool

	PlaybackDevice string // UTF-8
	CaptureDevice  string // UTF-8
	Callsign       string // ASCII
	Locator        string // ASCII
	Name           string // ASCII
}

// MarshalBinary encodes the fixed 270-byte request
func (r *DiscoveryRequest) MarshalBinary() ([]byte, error) {
	b := make([]byte, DISCOVERY_REQUEST_LENGTH)

	b[0] = DISCOVERY_REQUEST_TAG
	b[DR_PB_VOLUME_OFFSET] = r.PlaybackVolume
	b[DR_CAP_VOLUME_OFFSET] = r.CaptureVolume
	b[DR_ANNOUNCE_OFFSET] = r.Announcement
	b[DR_LS_VOLUME_OFFSET] = r.LoudspeakerVolume
	b[DR_MIC_VOLUME_OFFSET] = r.MicVolume
	b[DR_INTRO_OFFSET] = boolByte(r.SendIntro)
	b[DR_AUTOSYNC_OFFSET] = boolByte(r.RttyAutosync)
	b[DR_SPEED_OFFSET] = r.SpeedIndex
	b[DR_EXTERNAL_IF_OFFSET] = boolByte(r.ExternalIF)

	EncodeText(b[DR_PB_DEVICE_OFFSET:DR_PB_DEVICE_OFFSET+DR_DEVICE_NAME_LENGTH], r.PlaybackDevice)
	EncodeText(b[DR_CAP_DEVICE_OFFSET:DR_CAP_DEVICE_OFFSET+DR_DEVICE_NAME_LENGTH], r.CaptureDevice)
	EncodeASCII(b[DR_CALLSIGN_OFFSET:DR_CALLSIGN_OFFSET+DR_CALLSIGN_LENGTH], r.Callsign)
	EncodeASCII(b[DR_LOCATOR_OFFSET:DR_LOCATOR_OFFSET+DR_LOCATOR_LENGTH], r.Locator)
	EncodeASCII(b[DR_NAME_OFFSET:DR_NAME_OFFSET+DR_NAME_LENGTH], r.Name)

	return b, nil
}

// UnmarshalBinary decodes a 270-byte request
func (r *DiscoveryRequest) UnmarshalBinary(b []byte) error {
	if len(b) != DISCOVERY_REQUEST_LENGTH {
		return fmt.Errorf("discovery request: %w: expected %d bytes, got %d", ErrBadLength, DISCOVERY_REQUEST_LENGTH, len(b))
	}
	if b[0] != DISCOVERY_REQUEST_TAG {
		return fmt.Errorf("discovery request: unexpected tag 0x%02x", b[0])
	}

	r.PlaybackVolume = b[DR_PB_VOLUME_OFFSET]
	r.CaptureVolume = b[DR_CAP_VOLUME_OFFSET]
	r.Announcement = b[DR_ANNOUNCE_OFFSET]
	r.LoudspeakerVolume = b[DR_LS_VOLUME_OFFSET]
	r.MicVolume = b[DR_MIC_VOLUME_OFFSET]
	r.SendIntro = b[DR_INTRO_OFFSET] != 0
	r.RttyAutosync = b[DR_AUTOSYNC_OFFSET] != 0
	r.SpeedIndex = b[DR_SPEED_OFFSET]
	r.ExternalIF = b[DR_EXTERNAL_IF_OFFSET] != 0

	r.PlaybackDevice = DecodeText(b[DR_PB_DEVICE_OFFSET : DR_PB_DEVICE_OFFSET+DR_DEVICE_NAME_LENGTH])
	r.CaptureDevice = DecodeText(b[DR_CAP_DEVICE_OFFSET : DR_CAP_DEVICE_OFFSET+DR_DEVICE_NAME_LENGTH])
	r.Callsign = DecodeText(b[DR_CALLSIGN_OFFSET : DR_CALLSIGN_OFFSET+DR_CALLSIGN_LENGTH])
	r.Locator = DecodeText(b[DR_LOCATOR_OFFSET : DR_LOCATOR_OFFSET+DR_LOCATOR_LENGTH])
	r.Name = DecodeText(b[DR_NAME_OFFSET : DR_NAME_OFFSET+DR_NAME_LENGTH])

	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
