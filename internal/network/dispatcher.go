package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dbehnke/oscarlink/internal/constellation"
	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/sirupsen/logrus"
)

const READ_WAIT = 100 * time.Millisecond

// ErrUnknownTag is returned for datagrams with an unrecognised leading byte
var ErrUnknownTag = errors.New("unknown record tag")

// packetReader is the receive side of a UDP socket
type packetReader interface {
	Read(buffer []byte, wait time.Duration) (int, *net.UDPAddr, error)
}

// ReplyHandler is called from the receive loop for every parsed broadcast reply
type ReplyHandler func(address string, reply *protocol.BroadcastReply)

// Dispatcher reads datagrams from the modem and routes each record by its
// tag byte into the matching queue or state holder.
type Dispatcher struct {
	conn packetReader

	endpoint  *ModemEndpoint
	occupancy *OccupancyStore
	devices   *DeviceRegistry

	payload  *queue.Queue[[]byte]
	spectrum *queue.Queue[[]uint16]
	rtty     *queue.Queue[[]byte]
	done     *queue.Queue[[]byte]

	iq            protocol.IQWindow
	constellation *constellation.Accumulator

	onReply ReplyHandler
}

// Run reads until ctx is done or the socket is closed. Bad datagrams are
// dropped one at a time and never end the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	buffer := make([]byte, protocol.BUFFER_LENGTH)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, from, err := d.conn.Read(buffer, READ_WAIT)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logrus.WithError(err).Warn("Modem receive error")
			continue
		}
		if n == 0 {
			continue
		}

		if err := d.Dispatch(buffer[:n], from); err != nil {
			logrus.WithFields(logrus.Fields{
				"from": from.String(),
				"len":  n,
			}).WithError(err).Debug("Dropped datagram")
		}
	}
}

// Dispatch classifies one datagram. data may be reused by the caller
// afterwards; anything queued is copied.
func (d *Dispatcher) Dispatch(data []byte, from *net.UDPAddr) error {
	if len(data) == 0 {
		return fmt.Errorf("empty datagram: %w", protocol.ErrShortRecord)
	}

	tag := protocol.RecordTag(data[0])
	body := data[1:]

	switch tag {
	case protocol.TagPayload:
		d.payload.Enqueue(clone(body))
		return nil

	case protocol.TagBroadcastReply:
		return d.handleReply(body, from)

	case protocol.TagSpectrum:
		s, err := protocol.ParseSpectrum(body)
		if err != nil {
			return err
		}
		d.occupancy.Store(s.Occupancy)
		d.spectrum.Enqueue(s.Bins)
		return nil

	case protocol.TagConstellation:
		d.iq.Feed(body, func(i, q int32) {
			d.constellation.Add(i, q)
		})
		return nil

	case protocol.TagRttyChar:
		d.rtty.Enqueue(clone(body))
		return nil

	case protocol.TagDone:
		d.done.Enqueue(clone(body))
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownTag, tag)
}

func (d *Dispatcher) handleReply(body []byte, from *net.UDPAddr) error {
	if from == nil {
		return errors.New("broadcast reply without sender address")
	}

	// The sender is the modem even if the body turns out to be malformed
	address := from.IP.String()
	if d.endpoint.Reply(address) {
		logrus.WithField("addr", address).Info("Modem found")
	}

	reply, err := protocol.ParseBroadcastReply(body)
	if err != nil {
		return err
	}

	if d.devices.Update(reply) {
		logrus.WithFields(logrus.Fields{
			"playback": reply.Playback,
			"capture":  reply.Capture,
		}).Info("Modem audio device list changed")
	}

	if d.onReply != nil {
		d.onReply(address, reply)
	}

	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
