package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
)

// ModemSighting is one modem address that answered a discovery probe
type ModemSighting struct {
	Address         string    `gorm:"primarykey;size:45" json:"address"`
	AudioInitStatus uint8     `json:"audio_init_status"`
	VoiceInitStatus uint8     `json:"voice_init_status"`
	PlaybackDevices string    `gorm:"size:1024" json:"playback_devices"` // names joined by "~"
	CaptureDevices  string    `gorm:"size:1024" json:"capture_devices"`
	ReplyCount      uint64    `json:"reply_count"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `gorm:"index" json:"last_seen"`
}

// TableName specifies the table name for GORM
func (ModemSighting) TableName() string {
	return "modem_sightings"
}

// NewModemSighting builds a sighting from a broadcast reply
func NewModemSighting(address string, reply *protocol.BroadcastReply, at time.Time) *ModemSighting {
	return &ModemSighting{
		Address:         address,
		AudioInitStatus: reply.AudioInitStatus,
		VoiceInitStatus: reply.VoiceInitStatus,
		PlaybackDevices: strings.Join(reply.Playback, protocol.DEVICE_NAME_SEPARATOR),
		CaptureDevices:  strings.Join(reply.Capture, protocol.DEVICE_NAME_SEPARATOR),
		ReplyCount:      1,
		FirstSeen:       at,
		LastSeen:        at,
	}
}

// PlaybackList returns the playback device names
func (s ModemSighting) PlaybackList() []string {
	return splitDevices(s.PlaybackDevices)
}

// CaptureList returns the capture device names
func (s ModemSighting) CaptureList() []string {
	return splitDevices(s.CaptureDevices)
}

func splitDevices(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, protocol.DEVICE_NAME_SEPARATOR)
}

// String returns a formatted string representation
func (s ModemSighting) String() string {
	return fmt.Sprintf("%s (%d replies, last %s) audio=0x%02x voice=0x%02x",
		s.Address, s.ReplyCount, s.LastSeen.Format(time.RFC3339), s.AudioInitStatus, s.VoiceInitStatus)
}

// IsValid checks if the sighting has required fields
func (s ModemSighting) IsValid() bool {
	return s.Address != "" && s.Address != protocol.UNKNOWN_MODEM_ADDRESS
}
