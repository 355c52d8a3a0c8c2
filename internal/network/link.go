package network

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/dbehnke/oscarlink/internal/constellation"
	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/sirupsen/logrus"
)

// LinkConfig holds the UDP endpoints of the modem link
type LinkConfig struct {
	LocalAddress     string // interface for the receive socket, empty for any
	RxPort           int    // records from the modem arrive here
	TxPort           int    // control and payload go to the modem on this port
	BroadcastPort    int    // discovery probes go to the modem on this port
	BroadcastAddress string
}

// DefaultLinkConfig returns the standard hsmodem ports
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		RxPort:           protocol.RX_PORT,
		TxPort:           protocol.TX_PORT,
		BroadcastPort:    protocol.BROADCAST_PORT,
		BroadcastAddress: protocol.BROADCAST_ADDRESS,
	}
}

// Link is the transport between the application and the modem: one
// receive worker, one transmit worker and the discovery beacon sharing the
// modem endpoint state.
type Link struct {
	config LinkConfig

	rxSocket *UDPSocket
	txSocket *UDPSocket

	endpoint  *ModemEndpoint
	occupancy *OccupancyStore
	devices   *DeviceRegistry

	control       *queue.Queue[[]byte]
	payloadOut    *queue.Queue[[]byte]
	payloadIn     *queue.Queue[[]byte]
	spectrum      *queue.Queue[[]uint16]
	constellation *queue.Queue[*constellation.Snapshot]
	rtty          *queue.Queue[[]byte]
	done          *queue.Queue[[]byte]

	dispatcher *Dispatcher
	pump       *Pump
	beacon     *Beacon

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewLink creates a link; nothing is opened until Start
func NewLink(config LinkConfig, source ProbeSource) (*Link, error) {
	bcast, err := ResolveUDPAddr(config.BroadcastAddress, config.BroadcastPort)
	if err != nil {
		return nil, fmt.Errorf("invalid broadcast address %q: %w", config.BroadcastAddress, err)
	}

	l := &Link{
		config:        config,
		rxSocket:      NewUDPSocket(config.LocalAddress, config.RxPort),
		txSocket:      NewBroadcastSocket(),
		endpoint:      NewModemEndpoint(),
		occupancy:     &OccupancyStore{},
		devices:       &DeviceRegistry{},
		control:       queue.New[[]byte]("control"),
		payloadOut:    queue.New[[]byte]("payload-tx"),
		payloadIn:     queue.New[[]byte]("payload-rx"),
		spectrum:      queue.New[[]uint16]("spectrum"),
		constellation: queue.New[*constellation.Snapshot]("constellation"),
		rtty:          queue.New[[]byte]("rtty"),
		done:          queue.New[[]byte]("done"),
	}

	l.dispatcher = &Dispatcher{
		conn:          l.rxSocket,
		endpoint:      l.endpoint,
		occupancy:     l.occupancy,
		devices:       l.devices,
		payload:       l.payloadIn,
		spectrum:      l.spectrum,
		rtty:          l.rtty,
		done:          l.done,
		constellation: constellation.NewAccumulator(l.constellation),
	}

	l.pump = &Pump{
		conn:      l.txSocket,
		port:      config.TxPort,
		control:   l.control,
		payload:   l.payloadOut,
		endpoint:  l.endpoint,
		occupancy: l.occupancy,
	}

	l.beacon = &Beacon{
		conn:      l.txSocket,
		source:    source,
		endpoint:  l.endpoint,
		port:      config.BroadcastPort,
		broadcast: bcast.IP,
	}

	return l, nil
}

// OnReply registers a handler for parsed broadcast replies. It runs on the
// receive worker and must not block. Set it before Start.
func (l *Link) OnReply(h ReplyHandler) {
	l.dispatcher.onReply = h
}

// Start opens both sockets and launches the receive and transmit workers
func (l *Link) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("link already running")
	}

	if err := l.rxSocket.Open(); err != nil {
		return fmt.Errorf("failed to open receive socket: %w", err)
	}
	if err := l.txSocket.Open(); err != nil {
		l.rxSocket.Close()
		return fmt.Errorf("failed to open transmit socket: %w", err)
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.running = true

	l.wg.Add(2)
	go func() {
		defer l.wg.Done()
		l.dispatcher.Run(ctx)
	}()
	go func() {
		defer l.wg.Done()
		l.pump.Run(ctx)
	}()

	logrus.WithFields(logrus.Fields{
		"rx":      l.rxSocket.LocalAddr().String(),
		"tx_port": l.config.TxPort,
		"bcast":   fmt.Sprintf("%s:%d", l.config.BroadcastAddress, l.config.BroadcastPort),
	}).Info("Modem link started")

	return nil
}

// Stop cancels the workers, closes the sockets to release any pending
// read and waits for both workers to return
func (l *Link) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}

	l.cancel()
	l.rxSocket.Close()
	l.wg.Wait()
	l.txSocket.Close()
	l.running = false

	logrus.Info("Modem link stopped")
}

// Probe sends one discovery probe; call it periodically
func (l *Link) Probe() error {
	return l.beacon.Probe()
}

// SendControl queues a control datagram; control preempts payload
func (l *Link) SendControl(b []byte) {
	l.control.Enqueue(b)
}

// SendPayload queues a payload datagram, sent as the modem TX fifo drains
func (l *Link) SendPayload(b []byte) {
	l.payloadOut.Enqueue(b)
}

// PendingPayload returns the number of payload datagrams not yet sent
func (l *Link) PendingPayload() int {
	return l.payloadOut.Count()
}

// PendingControl returns the number of control datagrams not yet sent
func (l *Link) PendingControl() int {
	return l.control.Count()
}

// NextPayload returns the next received payload record (status sub-header
// included), or nil
func (l *Link) NextPayload() []byte {
	b, _ := l.payloadIn.Dequeue()
	return b
}

// NextSpectrum returns the next spectrum magnitude set, or nil
func (l *Link) NextSpectrum() []uint16 {
	s, _ := l.spectrum.Dequeue()
	return s
}

// NextConstellation returns the next constellation snapshot, or nil
func (l *Link) NextConstellation() *constellation.Snapshot {
	s, _ := l.constellation.Dequeue()
	return s
}

// NextRtty returns the next received RTTY record, or nil
func (l *Link) NextRtty() []byte {
	b, _ := l.rtty.Dequeue()
	return b
}

// NextDone reports whether the modem signalled the end of a transmission
func (l *Link) NextDone() bool {
	_, ok := l.done.Dequeue()
	return ok
}

// ModemAddress returns the modem address, the sentinel while unknown
func (l *Link) ModemAddress() string {
	return l.endpoint.Address()
}

// ModemState returns whether the modem address is known
func (l *Link) ModemState() ModemState {
	return l.endpoint.State()
}

// Modem returns a copy of the modem endpoint
func (l *Link) Modem() ModemInfo {
	return l.endpoint.Snapshot()
}

// DeviceListChanged reports and clears the device list change flag
func (l *Link) DeviceListChanged() bool {
	return l.devices.TakeChanged()
}

// DeviceLists returns the last reported device lists
func (l *Link) DeviceLists() (protocol.BroadcastReply, bool) {
	return l.devices.Current()
}

// Occupancy returns the last reported modem buffer occupancy
func (l *Link) Occupancy() protocol.BufferOccupancy {
	return l.occupancy.Load()
}

// LocalRxAddr returns the bound receive address, nil before Start
func (l *Link) LocalRxAddr() *net.UDPAddr {
	return l.rxSocket.LocalAddr()
}
