package network

import (
	"net"
	"sync"
	"time"
)

type datagram struct {
	data []byte
	addr *net.UDPAddr
}

// fakeConn records writes and replays queued reads
type fakeConn struct {
	mu      sync.Mutex
	sent    []datagram
	inbox   []datagram
	closed  bool
	sendErr error
}

func (f *fakeConn) Write(buffer []byte, addr *net.UDPAddr) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, datagram{data: clone(buffer), addr: addr})
	return nil
}

func (f *fakeConn) Read(buffer []byte, wait time.Duration) (int, *net.UDPAddr, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, nil, net.ErrClosed
	}
	if len(f.inbox) == 0 {
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil, nil
	}
	d := f.inbox[0]
	f.inbox = f.inbox[1:]
	f.mu.Unlock()

	return copy(buffer, d.data), d.addr, nil
}

func (f *fakeConn) push(data []byte, addr *net.UDPAddr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, datagram{data: data, addr: addr})
}

func (f *fakeConn) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) sentCopy() []datagram {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]datagram, len(f.sent))
	copy(out, f.sent)
	return out
}
