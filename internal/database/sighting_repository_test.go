package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepository(t *testing.T) *SightingRepository {
	t.Helper()

	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "data", "test.db")}, logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Health())
	return NewSightingRepository(db.GetDB())
}

func testReply(devices ...string) *protocol.BroadcastReply {
	return &protocol.BroadcastReply{
		AudioInitStatus: protocol.INIT_PLAYBACK_OK | protocol.INIT_CAPTURE_OK,
		VoiceInitStatus: protocol.INIT_PLAYBACK_OK,
		Playback:        devices,
		Capture:         []string{"Microphone"},
	}
}

func TestSightingRecordAndGet(t *testing.T) {
	repo := newTestRepository(t)
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(NewModemSighting("192.168.1.50", testReply("Speakers", "HDMI"), first)))

	s, err := repo.GetByAddress("192.168.1.50")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.ReplyCount)
	assert.Equal(t, []string{"Speakers", "HDMI"}, s.PlaybackList())
	assert.Equal(t, []string{"Microphone"}, s.CaptureList())
	assert.Equal(t, uint8(3), s.AudioInitStatus)
	assert.WithinDuration(t, first, s.FirstSeen, time.Second)

	later := first.Add(time.Hour)
	require.NoError(t, repo.Record(NewModemSighting("192.168.1.50", testReply("Speakers"), later)))
	require.NoError(t, repo.Record(NewModemSighting("192.168.1.50", testReply("Speakers"), later)))

	s, err = repo.GetByAddress("192.168.1.50")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s.ReplyCount)
	assert.Equal(t, []string{"Speakers"}, s.PlaybackList())
	assert.WithinDuration(t, first, s.FirstSeen, time.Second, "first seen is kept")
	assert.WithinDuration(t, later, s.LastSeen, time.Second)

	_, err = repo.GetByAddress("10.9.9.9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSightingRecordRejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)

	assert.Error(t, repo.Record(nil))
	assert.Error(t, repo.Record(&ModemSighting{}))
	assert.Error(t, repo.Record(NewModemSighting(protocol.UNKNOWN_MODEM_ADDRESS, testReply(), time.Now())))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSightingListAndPrune(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, addr := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Record(NewModemSighting(addr, testReply("A"), at)))
	}

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "10.0.0.3", all[0].Address, "newest first")
	assert.Equal(t, "10.0.0.1", all[2].Address)

	top, err := repo.List(1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "10.0.0.3", top[0].Address)

	removed, err := repo.DeleteOlderThan(base.Add(90 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestModemSightingEmptyDevices(t *testing.T) {
	s := NewModemSighting("10.0.0.1", &protocol.BroadcastReply{}, time.Now())
	assert.Nil(t, s.PlaybackList())
	assert.Nil(t, s.CaptureList())
	assert.Contains(t, s.String(), "10.0.0.1")
}
