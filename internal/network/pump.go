package network

import (
	"context"
	"net"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/sirupsen/logrus"
)

const IDLE_WAIT = time.Millisecond

// packetWriter is the send side of a UDP socket
type packetWriter interface {
	Write(buffer []byte, addr *net.UDPAddr) error
}

// Pump drains the control and payload queues towards the modem. Control
// always goes first; payload only while the modem reports room in its
// TX fifo, so the modem paces the link rather than a bitrate clock.
type Pump struct {
	conn      packetWriter
	port      int
	control   *queue.Queue[[]byte]
	payload   *queue.Queue[[]byte]
	endpoint  *ModemEndpoint
	occupancy *OccupancyStore
}

// Step performs one tick of the send policy and reports whether a
// datagram was sent
func (p *Pump) Step() bool {
	if b, ok := p.control.Dequeue(); ok {
		p.send(b)
		return true
	}

	if p.occupancy.Load().TxFifo < protocol.TX_FIFO_LOW_WATER {
		if b, ok := p.payload.Dequeue(); ok {
			p.send(b)
			return true
		}
	}

	return false
}

// Run ticks until ctx is done. An idle tick sleeps IDLE_WAIT, or less if
// a control message arrives meanwhile.
func (p *Pump) Run(ctx context.Context) {
	idle := time.NewTimer(IDLE_WAIT)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if p.Step() {
			continue
		}

		idle.Reset(IDLE_WAIT)
		select {
		case <-ctx.Done():
			return
		case <-p.control.Ready():
		case <-idle.C:
		}
	}
}

// send is fire and forget, errors are logged and dropped
func (p *Pump) send(b []byte) {
	address := p.endpoint.Address()
	ip := net.ParseIP(address)
	if ip == nil {
		logrus.WithField("addr", address).Debug("Dropped datagram, bad modem address")
		return
	}

	if err := p.conn.Write(b, &net.UDPAddr{IP: ip, Port: p.port}); err != nil {
		logrus.WithFields(logrus.Fields{
			"addr": address,
			"len":  len(b),
		}).WithError(err).Debug("Send to modem failed")
	}
}
