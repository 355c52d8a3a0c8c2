package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dbehnke/oscarlink/internal/config"
	"github.com/dbehnke/oscarlink/internal/database"
	"github.com/dbehnke/oscarlink/internal/network"
	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/sirupsen/logrus"
)

const (
	DRAIN_PERIOD     = 10 * time.Millisecond
	STATS_PERIOD     = 30 * time.Second
	TERMINATE_WAIT   = 500 * time.Millisecond
	SIGHTING_BACKLOG = 64 // sightings kept while the database lags
)

// Station owns the modem link and consumes what it delivers
type Station struct {
	config *config.Config
	link   *network.Link

	// Sighting history, nil when the database is disabled
	db        *database.DB
	sightings *database.SightingRepository
	pending   *queue.Queue[*database.ModemSighting]

	terminateModem bool

	// Counters
	payloadFrames atomic.Uint64
	spectra       atomic.Uint64
	snapshots     atomic.Uint64
	rttyChars     atomic.Uint64
	doneSignals   atomic.Uint64

	rttyLine  strings.Builder
	lastState network.ModemState
	stateSeen bool
}

// NewStation creates the link and, if enabled, the sighting database
func NewStation(cfg *config.Config, terminateModem bool) (*Station, error) {
	link, err := network.NewLink(network.LinkConfig{
		LocalAddress:     cfg.GetLocalAddress(),
		RxPort:           int(cfg.GetRxPort()),
		TxPort:           int(cfg.GetTxPort()),
		BroadcastPort:    int(cfg.GetBroadcastPort()),
		BroadcastAddress: cfg.GetBroadcastAddress(),
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create modem link: %w", err)
	}

	s := &Station{
		config:         cfg,
		link:           link,
		pending:        queue.New[*database.ModemSighting]("sightings"),
		terminateModem: terminateModem,
	}

	if cfg.GetDatabaseEnabled() {
		db, err := database.NewDB(database.Config{
			Path:  cfg.GetDatabasePath(),
			Debug: cfg.GetDatabaseDebug(),
		}, logrus.StandardLogger())
		if err != nil {
			return nil, fmt.Errorf("failed to open sighting database: %w", err)
		}
		s.db = db
		s.sightings = database.NewSightingRepository(db.GetDB())
		link.OnReply(s.onReply)
	}

	return s, nil
}

// onReply runs on the receive worker; the database write happens in Run
func (s *Station) onReply(address string, reply *protocol.BroadcastReply) {
	if s.pending.Count() >= SIGHTING_BACKLOG {
		return
	}
	s.pending.Enqueue(database.NewModemSighting(address, reply, time.Now()))
}

// Run starts the link and services it until ctx is done
func (s *Station) Run(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"version":  VERSION,
		"callsign": s.config.GetCallsign(),
		"locator":  s.config.GetLocator(),
	}).Info("oscarlink starting")

	// The link outlives ctx so shutdown can still send a terminate command
	if err := s.link.Start(context.WithoutCancel(ctx)); err != nil {
		s.close()
		return err
	}
	defer s.close()

	probeTicker := time.NewTicker(s.config.GetProbeInterval())
	drainTicker := time.NewTicker(DRAIN_PERIOD)
	statsTicker := time.NewTicker(STATS_PERIOD)
	defer func() {
		probeTicker.Stop()
		drainTicker.Stop()
		statsTicker.Stop()
	}()

	s.probe()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Shutdown requested")
			s.shutdown()
			return nil

		case <-probeTicker.C:
			s.probe()

		case <-drainTicker.C:
			s.drain()

		case <-statsTicker.C:
			s.printStats()
		}
	}
}

func (s *Station) probe() {
	if err := s.link.Probe(); err != nil {
		logrus.WithError(err).Warn("Discovery probe failed")
	}

	if s.noteState(s.link.ModemState()) {
		logrus.Info("Searching for modem")
	}
}

// noteState records the modem state after a probe and reports whether the
// search for a modem has just started, at startup or after a loss
func (s *Station) noteState(state network.ModemState) bool {
	searching := state == network.ModemUnknown && (!s.stateSeen || s.lastState != state)
	s.lastState = state
	s.stateSeen = true
	return searching
}

// drain empties every inbound queue once
func (s *Station) drain() {
	for b := s.link.NextPayload(); b != nil; b = s.link.NextPayload() {
		s.payloadFrames.Add(1)
		logrus.WithField("frame", describePayload(b)).Debug("Payload received")
	}

	for bins := s.link.NextSpectrum(); bins != nil; bins = s.link.NextSpectrum() {
		s.spectra.Add(1)
	}

	for snap := s.link.NextConstellation(); snap != nil; snap = s.link.NextConstellation() {
		s.snapshots.Add(1)
	}

	for b := s.link.NextRtty(); b != nil; b = s.link.NextRtty() {
		s.rttyChars.Add(uint64(len(b)))
		s.rttyText(b)
	}

	for s.link.NextDone() {
		s.doneSignals.Add(1)
		logrus.Info("Modem finished sending")
	}

	if s.link.DeviceListChanged() {
		if lists, ok := s.link.DeviceLists(); ok {
			pb, capture := lists.AudioOK()
			logrus.WithFields(logrus.Fields{
				"playback":    strings.Join(lists.Playback, ", "),
				"capture":     strings.Join(lists.Capture, ", "),
				"playback_ok": pb,
				"capture_ok":  capture,
			}).Info("Modem audio devices")
		}
	}

	for sighting, ok := s.pending.Dequeue(); ok; sighting, ok = s.pending.Dequeue() {
		if err := s.sightings.Record(sighting); err != nil {
			logrus.WithError(err).WithField("addr", sighting.Address).Warn("Failed to record modem sighting")
		}
	}
}

// rttyText collects received RTTY characters and logs complete lines
func (s *Station) rttyText(b []byte) {
	for _, c := range b {
		if c == '\n' || c == '\r' {
			if s.rttyLine.Len() > 0 {
				logrus.WithField("text", s.rttyLine.String()).Info("RTTY")
				s.rttyLine.Reset()
			}
			continue
		}
		s.rttyLine.WriteByte(c)
	}
}

func (s *Station) printStats() {
	modem := s.link.Modem()
	occ := s.link.Occupancy()

	logrus.WithFields(logrus.Fields{
		"modem":      modem.Address,
		"state":      modem.State.String(),
		"tx_fifo":    occ.TxFifo,
		"rx_fifo":    occ.RxFifo,
		"in_sync":    occ.InSync != 0,
		"payload":    s.payloadFrames.Load(),
		"spectra":    s.spectra.Load(),
		"snapshots":  s.snapshots.Load(),
		"rtty_chars": s.rttyChars.Load(),
		"tx_pending": s.link.PendingPayload(),
	}).Info("Stats")
}

// shutdown optionally tells the modem to exit, then stops the link
func (s *Station) shutdown() {
	if s.terminateModem && s.link.ModemState() == network.ModemKnown {
		logrus.WithField("addr", s.link.ModemAddress()).Info("Terminating modem")
		s.link.SendControl(protocol.Command(protocol.CMD_TERMINATE))

		deadline := time.Now().Add(TERMINATE_WAIT)
		for s.link.PendingControl() > 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
	s.link.Stop()
}

func (s *Station) close() {
	s.link.Stop()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
}

// describePayload renders the status sub-header of a payload record
func describePayload(b []byte) string {
	frame, err := protocol.ParsePayloadFrame(b)
	if err != nil {
		return err.Error()
	}

	desc := fmt.Sprintf("%s seq=%d marker=%d speed=%d len=%d",
		frameTypeName(frame.Type), frame.Sequence, frame.ModeInfo, frame.Speed, len(frame.Data))

	if frame.Type == protocol.FRAME_USERINFO {
		if info, err := protocol.ParseUserInfo(frame.Data); err == nil {
			desc += " from " + info.String()
		}
	}

	return desc
}

func frameTypeName(t byte) string {
	switch t {
	case protocol.FRAME_NO_TX:
		return "idle"
	case protocol.FRAME_BER_TEST:
		return "ber-test"
	case protocol.FRAME_IMAGE:
		return "image"
	case protocol.FRAME_ASCII_FILE:
		return "ascii-file"
	case protocol.FRAME_HTML_FILE:
		return "html-file"
	case protocol.FRAME_BINARY_FILE:
		return "binary-file"
	case protocol.FRAME_AUDIO:
		return "audio"
	case protocol.FRAME_USERINFO:
		return "userinfo"
	case protocol.FRAME_EXTERNAL:
		return "external"
	}
	return fmt.Sprintf("type(%d)", t)
}
