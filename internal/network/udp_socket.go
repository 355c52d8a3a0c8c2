package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// UDPSocket wraps a UDP connection with bounded-wait reads
type UDPSocket struct {
	conn      *net.UDPConn
	address   string
	port      int
	broadcast bool
}

// NewUDPSocket creates a socket bound to address:port. An empty address
// binds to any interface, port 0 lets the OS pick one.
func NewUDPSocket(address string, port int) *UDPSocket {
	return &UDPSocket{
		address: address,
		port:    port,
	}
}

// NewBroadcastSocket creates an unbound socket allowed to send to the
// broadcast address
func NewBroadcastSocket() *UDPSocket {
	return &UDPSocket{broadcast: true}
}

// Open binds the socket. The receive port is opened with SO_REUSEADDR so a
// restarted application can rebind while the old socket lingers.
func (s *UDPSocket) Open() error {
	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: s.port}
	if s.address != "" {
		addr, err := ResolveUDPAddr(s.address, s.port)
		if err != nil {
			return fmt.Errorf("invalid address %s: %w", s.address, err)
		}
		laddr = addr
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if serr == nil && s.broadcast {
					serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
				}
			})
			if err != nil {
				return err
			}
			return serr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", laddr.String())
	if err != nil {
		return fmt.Errorf("failed to open UDP socket %s: %w", laddr, err)
	}
	s.conn = pc.(*net.UDPConn)

	logrus.WithFields(logrus.Fields{
		"addr":      s.conn.LocalAddr().String(),
		"broadcast": s.broadcast,
	}).Debug("UDP socket open")

	return nil
}

// Read waits at most wait for one datagram.
// Returns 0 bytes and no error when nothing arrived in time.
func (s *UDPSocket) Read(buffer []byte, wait time.Duration) (int, *net.UDPAddr, error) {
	if s.conn == nil {
		return 0, nil, net.ErrClosed
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return 0, nil, err
	}

	n, addr, err := s.conn.ReadFromUDP(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	return n, addr, nil
}

// Write sends one datagram to addr
func (s *UDPSocket) Write(buffer []byte, addr *net.UDPAddr) error {
	if s.conn == nil {
		return net.ErrClosed
	}

	_, err := s.conn.WriteToUDP(buffer, addr)
	return err
}

// LocalAddr returns the bound address, nil before Open
func (s *UDPSocket) LocalAddr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Close closes the socket, unblocking a pending Read
func (s *UDPSocket) Close() {
	if s.conn != nil {
		s.conn.Close()
		logrus.WithField("addr", s.conn.LocalAddr().String()).Debug("UDP socket closed")
	}
}

// ResolveUDPAddr turns a host (IP or name) and port into an IPv4 address
func ResolveUDPAddr(host string, port int) (*net.UDPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return &net.UDPAddr{IP: ip, Port: port}, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return &net.UDPAddr{IP: ip, Port: port}, nil
		}
	}

	return nil, fmt.Errorf("no IPv4 address found for %s", host)
}
