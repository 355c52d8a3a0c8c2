package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
)

// Config represents the oscarlink configuration
type Config struct {
	filename string

	// Modem section
	localAddress     string
	broadcastAddress string
	broadcastPort    uint32
	txPort           uint32
	rxPort           uint32
	probeInterval    uint32 // milliseconds

	// Station section
	callsign string
	locator  string
	name     string

	// Audio section
	playbackDevice    string
	captureDevice     string
	playbackVolume    uint8
	captureVolume     uint8
	loudspeakerVolume uint8
	micVolume         uint8
	announcement      uint8
	sendIntro         bool
	rttyAutosync      bool
	speedIndex        uint8
	externalIF        bool

	// Database section
	databaseEnabled bool
	databasePath    string
	databaseDebug   bool

	// Log section
	logLevel string
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,
		// Set reasonable defaults
		broadcastAddress: protocol.BROADCAST_ADDRESS,
		broadcastPort:    protocol.BROADCAST_PORT,
		txPort:           protocol.TX_PORT,
		rxPort:           protocol.RX_PORT,
		probeInterval:    1000,

		playbackVolume:    50,
		captureVolume:     50,
		loudspeakerVolume: 50,
		micVolume:         50,
		speedIndex:        protocol.SPEED_INDETERMINATE,

		databaseEnabled: false,
		databasePath:    "data/oscarlink.db",

		logLevel: "info",
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	defer file.Close()

	return c.parseINIScanner(bufio.NewScanner(file))
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parseINIScanner(bufio.NewScanner(strings.NewReader(data)))
}

func (c *Config) parseINIScanner(scanner *bufio.Scanner) error {
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch currentSection {
		case "Modem":
			c.parseModemSection(key, value)
		case "Station":
			c.parseStationSection(key, value)
		case "Audio":
			c.parseAudioSection(key, value)
		case "Database":
			c.parseDatabaseSection(key, value)
		case "Log":
			c.parseLogSection(key, value)
		}
	}

	return scanner.Err()
}

func (c *Config) parseModemSection(key, value string) {
	switch key {
	case "LocalAddress":
		c.localAddress = value
	case "BroadcastAddress":
		c.broadcastAddress = value
	case "BroadcastPort":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.broadcastPort = uint32(v)
		}
	case "TxPort":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.txPort = uint32(v)
		}
	case "RxPort":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.rxPort = uint32(v)
		}
	case "ProbeInterval":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.probeInterval = uint32(v)
		}
	}
}

func (c *Config) parseStationSection(key, value string) {
	switch key {
	case "Callsign":
		c.callsign = strings.ToUpper(value)
	case "Locator":
		c.locator = value
	case "Name":
		c.name = value
	}
}

func (c *Config) parseAudioSection(key, value string) {
	switch key {
	case "PlaybackDevice":
		c.playbackDevice = value
	case "CaptureDevice":
		c.captureDevice = value
	case "PlaybackVolume":
		c.playbackVolume = c.parseUint8(value, c.playbackVolume)
	case "CaptureVolume":
		c.captureVolume = c.parseUint8(value, c.captureVolume)
	case "LoudspeakerVolume":
		c.loudspeakerVolume = c.parseUint8(value, c.loudspeakerVolume)
	case "MicVolume":
		c.micVolume = c.parseUint8(value, c.micVolume)
	case "Announcement":
		c.announcement = c.parseUint8(value, c.announcement)
	case "SendIntro":
		c.sendIntro = c.parseBool(value)
	case "RttyAutosync":
		c.rttyAutosync = c.parseBool(value)
	case "SpeedIndex":
		c.speedIndex = c.parseUint8(value, c.speedIndex)
	case "ExternalIF":
		c.externalIF = c.parseBool(value)
	}
}

func (c *Config) parseDatabaseSection(key, value string) {
	switch key {
	case "Enable", "Enabled":
		c.databaseEnabled = c.parseBool(value)
	case "Path":
		c.databasePath = value
	case "Debug":
		c.databaseDebug = c.parseBool(value)
	}
}

func (c *Config) parseLogSection(key, value string) {
	switch key {
	case "Level":
		c.logLevel = strings.ToLower(value)
	}
}

func (c *Config) parseBool(value string) bool {
	return value == "1" || strings.ToLower(value) == "true" || strings.ToLower(value) == "yes"
}

func (c *Config) parseUint8(value string, fallback uint8) uint8 {
	if v, err := strconv.ParseUint(value, 10, 8); err == nil {
		return uint8(v)
	}
	return fallback
}

// Validate checks values the modem or the sockets would reject
func (c *Config) Validate() error {
	ports := map[string]uint32{
		"BroadcastPort": c.broadcastPort,
		"TxPort":        c.txPort,
		"RxPort":        c.rxPort,
	}
	for key, port := range ports {
		if port == 0 || port > 65535 {
			return fmt.Errorf("[Modem] %s out of range: %d", key, port)
		}
	}

	// Host names are resolved when the link starts
	if strings.ContainsAny(c.localAddress, " \t") {
		return fmt.Errorf("[Modem] LocalAddress is not a host: %q", c.localAddress)
	}
	if c.broadcastAddress == "" || strings.ContainsAny(c.broadcastAddress, " \t") {
		return fmt.Errorf("[Modem] BroadcastAddress is not a host: %q", c.broadcastAddress)
	}
	if c.probeInterval < 100 {
		return fmt.Errorf("[Modem] ProbeInterval must be at least 100ms, got %d", c.probeInterval)
	}

	volumes := map[string]uint8{
		"PlaybackVolume":    c.playbackVolume,
		"CaptureVolume":     c.captureVolume,
		"LoudspeakerVolume": c.loudspeakerVolume,
		"MicVolume":         c.micVolume,
	}
	for key, v := range volumes {
		if v > 100 {
			return fmt.Errorf("[Audio] %s out of range: %d", key, v)
		}
	}

	if len(c.callsign) > protocol.DR_CALLSIGN_LENGTH {
		return fmt.Errorf("[Station] Callsign longer than %d characters", protocol.DR_CALLSIGN_LENGTH)
	}
	if len(c.locator) > protocol.DR_LOCATOR_LENGTH {
		return fmt.Errorf("[Station] Locator longer than %d characters", protocol.DR_LOCATOR_LENGTH)
	}

	switch c.logLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("[Log] unknown Level %q", c.logLevel)
	}

	return nil
}

// DiscoveryRequest builds the probe from the current station and audio settings
func (c *Config) DiscoveryRequest() protocol.DiscoveryRequest {
	return protocol.DiscoveryRequest{
		PlaybackVolume:    c.playbackVolume,
		CaptureVolume:     c.captureVolume,
		Announcement:      c.announcement,
		LoudspeakerVolume: c.loudspeakerVolume,
		MicVolume:         c.micVolume,
		SendIntro:         c.sendIntro,
		RttyAutosync:      c.rttyAutosync,
		SpeedIndex:        c.speedIndex,
		ExternalIF:        c.externalIF,
		PlaybackDevice:    c.playbackDevice,
		CaptureDevice:     c.captureDevice,
		Callsign:          c.callsign,
		Locator:           c.locator,
		Name:              c.name,
	}
}

// Getter methods for Modem section
func (c *Config) GetLocalAddress() string     { return c.localAddress }
func (c *Config) GetBroadcastAddress() string { return c.broadcastAddress }
func (c *Config) GetBroadcastPort() uint32    { return c.broadcastPort }
func (c *Config) GetTxPort() uint32           { return c.txPort }
func (c *Config) GetRxPort() uint32           { return c.rxPort }
func (c *Config) GetProbeInterval() time.Duration {
	return time.Duration(c.probeInterval) * time.Millisecond
}

// Getter methods for Station section
func (c *Config) GetCallsign() string { return c.callsign }
func (c *Config) GetLocator() string  { return c.locator }
func (c *Config) GetName() string     { return c.name }

// Getter methods for Audio section
func (c *Config) GetPlaybackDevice() string   { return c.playbackDevice }
func (c *Config) GetCaptureDevice() string    { return c.captureDevice }
func (c *Config) GetPlaybackVolume() uint8    { return c.playbackVolume }
func (c *Config) GetCaptureVolume() uint8     { return c.captureVolume }
func (c *Config) GetLoudspeakerVolume() uint8 { return c.loudspeakerVolume }
func (c *Config) GetMicVolume() uint8         { return c.micVolume }
func (c *Config) GetAnnouncement() uint8      { return c.announcement }
func (c *Config) GetSendIntro() bool          { return c.sendIntro }
func (c *Config) GetRttyAutosync() bool       { return c.rttyAutosync }
func (c *Config) GetSpeedIndex() uint8        { return c.speedIndex }
func (c *Config) GetExternalIF() bool         { return c.externalIF }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string  { return c.databasePath }
func (c *Config) GetDatabaseDebug() bool   { return c.databaseDebug }

// Getter methods for Log section
func (c *Config) GetLogLevel() string { return c.logLevel }
