package network

import (
	"fmt"
	"net"

	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/sirupsen/logrus"
)

// ProbeSource supplies the station settings sent with every probe
type ProbeSource interface {
	DiscoveryRequest() protocol.DiscoveryRequest
}

// ProbeSourceFunc adapts a function to ProbeSource
type ProbeSourceFunc func() protocol.DiscoveryRequest

func (f ProbeSourceFunc) DiscoveryRequest() protocol.DiscoveryRequest { return f() }

// Beacon sends discovery probes. It owns no loop; the caller decides how
// often Probe runs.
type Beacon struct {
	conn      packetWriter
	source    ProbeSource
	endpoint  *ModemEndpoint
	port      int
	broadcast net.IP
}

// Probe sends one discovery request: broadcast while the modem is unknown,
// unicast to the modem otherwise. Every probe counts as a miss until a
// reply resets the counter.
func (b *Beacon) Probe() error {
	req := b.source.DiscoveryRequest()
	data, err := req.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to build discovery request: %w", err)
	}

	info := b.endpoint.Snapshot()
	dst := &net.UDPAddr{IP: b.broadcast, Port: b.port}
	if info.State == ModemKnown {
		dst.IP = net.ParseIP(info.Address)
	}

	sendErr := b.conn.Write(data, dst)

	if b.endpoint.Miss() {
		logrus.WithFields(logrus.Fields{
			"addr":   info.Address,
			"misses": protocol.MAX_PROBE_MISSES,
		}).Warn("Modem lost, searching by broadcast")
	}

	if sendErr != nil {
		return fmt.Errorf("failed to send discovery probe to %s: %w", dst, sendErr)
	}

	logrus.WithFields(logrus.Fields{
		"addr":  dst.String(),
		"state": info.State.String(),
	}).Debug("Discovery probe sent")

	return nil
}
