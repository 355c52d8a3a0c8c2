package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbehnke/oscarlink/internal/protocol"
	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPump(conn packetWriter) *Pump {
	return &Pump{
		conn:      conn,
		port:      protocol.TX_PORT,
		control:   queue.New[[]byte]("control"),
		payload:   queue.New[[]byte]("payload"),
		endpoint:  NewModemEndpoint(),
		occupancy: &OccupancyStore{},
	}
}

func TestPumpControlPreemptsPayload(t *testing.T) {
	tests := []struct {
		name   string
		txFifo int
	}{
		{"fifo empty", 0},
		{"fifo full", 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{}
			p := newTestPump(conn)
			p.occupancy.Store(protocol.BufferOccupancy{TxFifo: tt.txFifo})

			for i := 0; i < 10; i++ {
				p.payload.Enqueue([]byte{'p', byte(i)})
			}
			p.control.Enqueue([]byte{'c', 0})
			p.control.Enqueue([]byte{'c', 1})

			require.True(t, p.Step())
			require.True(t, p.Step())

			sent := conn.sentCopy()
			require.Len(t, sent, 2)
			assert.Equal(t, []byte{'c', 0}, sent[0].data)
			assert.Equal(t, []byte{'c', 1}, sent[1].data)
			assert.Equal(t, 10, p.payload.Count())
		})
	}
}

func TestPumpFlowControl(t *testing.T) {
	conn := &fakeConn{}
	p := newTestPump(conn)
	for i := 0; i < 3; i++ {
		p.payload.Enqueue([]byte{byte(i)})
	}

	for _, fifo := range []int{protocol.TX_FIFO_LOW_WATER, 3, 50, 100} {
		p.occupancy.Store(protocol.BufferOccupancy{TxFifo: fifo})
		assert.False(t, p.Step(), "txFifo %d", fifo)
	}
	assert.Empty(t, conn.sentCopy())

	p.occupancy.Store(protocol.BufferOccupancy{TxFifo: 1})
	assert.True(t, p.Step())
	assert.Len(t, conn.sentCopy(), 1, "one payload per tick")

	p.occupancy.Store(protocol.BufferOccupancy{TxFifo: 0})
	assert.True(t, p.Step())
	assert.True(t, p.Step())
	assert.False(t, p.Step(), "queue drained")

	sent := conn.sentCopy()
	require.Len(t, sent, 3)
	for i, d := range sent {
		assert.Equal(t, []byte{byte(i)}, d.data)
	}
}

func TestPumpAddressesModem(t *testing.T) {
	conn := &fakeConn{}
	p := newTestPump(conn)

	p.control.Enqueue([]byte{protocol.CMD_TX_ON_OFF, 1})
	p.Step()

	p.endpoint.Reply("192.168.1.50")
	p.control.Enqueue([]byte{protocol.CMD_TX_ON_OFF, 0})
	p.Step()

	sent := conn.sentCopy()
	require.Len(t, sent, 2)
	assert.Equal(t, protocol.UNKNOWN_MODEM_ADDRESS, sent[0].addr.IP.String())
	assert.Equal(t, "192.168.1.50", sent[1].addr.IP.String())
	assert.Equal(t, protocol.TX_PORT, sent[1].addr.Port)
}

func TestPumpSendErrorsAreSwallowed(t *testing.T) {
	conn := &fakeConn{sendErr: errors.New("network unreachable")}
	p := newTestPump(conn)

	p.control.Enqueue([]byte{1})
	p.payload.Enqueue([]byte{2})

	assert.True(t, p.Step())
	assert.True(t, p.Step())
	assert.Equal(t, 0, p.control.Count())
	assert.Equal(t, 0, p.payload.Count())
}

func TestPumpRun(t *testing.T) {
	conn := &fakeConn{}
	p := newTestPump(conn)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(stopped)
	}()

	p.payload.Enqueue([]byte{'p'})
	p.control.Enqueue([]byte{'c'})

	require.Eventually(t, func() bool {
		return len(conn.sentCopy()) == 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop after cancel")
	}
}
