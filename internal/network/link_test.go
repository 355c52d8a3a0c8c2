package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkRejectsBadBroadcastAddress(t *testing.T) {
	cfg := DefaultLinkConfig()
	cfg.BroadcastAddress = "no-such-lan.invalid"

	_, err := NewLink(cfg, ProbeSourceFunc(testRequest))
	assert.Error(t, err)
}

func TestNewLinkResolvesBroadcastHost(t *testing.T) {
	cfg := DefaultLinkConfig()
	cfg.BroadcastAddress = "localhost"

	link, err := NewLink(cfg, ProbeSourceFunc(testRequest))
	require.NoError(t, err)
	assert.True(t, link.beacon.broadcast.IsLoopback())
}

func TestDefaultLinkConfig(t *testing.T) {
	cfg := DefaultLinkConfig()
	assert.Equal(t, 40131, cfg.BroadcastPort)
	assert.Equal(t, 40132, cfg.TxPort)
	assert.Equal(t, 40133, cfg.RxPort)
	assert.Equal(t, "255.255.255.255", cfg.BroadcastAddress)
}

// fakeModem is a loopback socket standing in for hsmodem
type fakeModem struct {
	t    *testing.T
	conn *net.UDPConn
}

func newFakeModem(t *testing.T) *fakeModem {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &fakeModem{t: t, conn: conn}
}

func (m *fakeModem) port() int {
	return m.conn.LocalAddr().(*net.UDPAddr).Port
}

func (m *fakeModem) receive() []byte {
	buf := make([]byte, protocol.BUFFER_LENGTH)
	require.NoError(m.t, m.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := m.conn.ReadFromUDP(buf)
	require.NoError(m.t, err)
	return buf[:n]
}

func (m *fakeModem) send(to *net.UDPAddr, data []byte) {
	_, err := m.conn.WriteToUDP(data, to)
	require.NoError(m.t, err)
}

func TestLinkLoopback(t *testing.T) {
	modem := newFakeModem(t)

	link, err := NewLink(LinkConfig{
		LocalAddress:     "127.0.0.1",
		RxPort:           0,
		TxPort:           modem.port(),
		BroadcastPort:    modem.port(),
		BroadcastAddress: "127.0.0.1",
	}, ProbeSourceFunc(testRequest))
	require.NoError(t, err)

	replies := make(chan string, 4)
	link.OnReply(func(address string, reply *protocol.BroadcastReply) {
		replies <- address
	})

	require.NoError(t, link.Start(context.Background()))
	defer link.Stop()

	assert.Error(t, link.Start(context.Background()), "already running")

	rx := link.LocalRxAddr()
	require.NotNil(t, rx)

	// Discovery
	require.NoError(t, link.Probe())
	var req protocol.DiscoveryRequest
	require.NoError(t, req.UnmarshalBinary(modem.receive()))
	assert.Equal(t, "DJ0ABR", req.Callsign)

	modem.send(rx, replyDatagram(3, 0, "Speakers~HDMI^Microphone"))
	select {
	case addr := <-replies:
		assert.Equal(t, "127.0.0.1", addr)
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast reply seen")
	}
	assert.Equal(t, "127.0.0.1", link.ModemAddress())
	assert.Equal(t, ModemKnown, link.Modem().State)
	assert.True(t, link.DeviceListChanged())
	lists, ok := link.DeviceLists()
	require.True(t, ok)
	assert.Equal(t, []string{"Speakers", "HDMI"}, lists.Playback)

	// Outbound control
	link.SendControl(protocol.TxOnOff(true))
	assert.Equal(t, protocol.TxOnOff(true), modem.receive())

	// Outbound payload, modem fifo empty
	link.SendPayload([]byte{protocol.FRAME_BER_TEST, 1, 2, 3})
	assert.Equal(t, []byte{protocol.FRAME_BER_TEST, 1, 2, 3}, modem.receive())
	assert.Equal(t, 0, link.PendingPayload())

	// Inbound records
	modem.send(rx, []byte{byte(protocol.TagSpectrum), 5, 0, 1, 1, 9, 9, 0x01, 0x00})
	require.Eventually(t, func() bool {
		return link.Occupancy().TxFifo == 5
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, []uint16{256}, link.NextSpectrum())

	// Modem busy: payload held back
	link.SendPayload([]byte{0xAA})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, link.PendingPayload())

	modem.send(rx, []byte{byte(protocol.TagPayload), protocol.FRAME_ASCII_FILE, 0, 0})
	modem.send(rx, []byte{byte(protocol.TagRttyChar), 'Q'})
	modem.send(rx, []byte{byte(protocol.TagDone)})
	require.Eventually(t, func() bool {
		return link.NextDone()
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, []byte{protocol.FRAME_ASCII_FILE, 0, 0}, link.NextPayload())
	assert.Equal(t, []byte{'Q'}, link.NextRtty())
	assert.Nil(t, link.NextPayload())
	assert.Nil(t, link.NextConstellation())

	// A record larger than any fixed frame arrives intact
	big := make([]byte, 3000)
	for i := range big {
		big[i] = byte(i % 251)
	}
	modem.send(rx, append([]byte{byte(protocol.TagPayload)}, big...))
	var got []byte
	require.Eventually(t, func() bool {
		got = link.NextPayload()
		return got != nil
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, big, got)

	link.Stop()
	link.Stop()
}
