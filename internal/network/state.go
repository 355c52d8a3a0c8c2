package network

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dbehnke/oscarlink/internal/protocol"
)

// ModemState tells whether the modem address is known
type ModemState int

const (
	ModemUnknown ModemState = iota
	ModemKnown
)

func (s ModemState) String() string {
	if s == ModemKnown {
		return "known"
	}
	return "unknown"
}

// ModemInfo is a point-in-time copy of the modem endpoint
type ModemInfo struct {
	State     ModemState
	Address   string
	MissCount int
}

// ModemEndpoint tracks the modem address learned through discovery.
// The receive loop reports replies, the beacon reports probes.
type ModemEndpoint struct {
	mu        sync.RWMutex
	state     ModemState
	address   string
	missCount int
}

// NewModemEndpoint creates an endpoint in the Unknown state
func NewModemEndpoint() *ModemEndpoint {
	return &ModemEndpoint{
		state:   ModemUnknown,
		address: protocol.UNKNOWN_MODEM_ADDRESS,
	}
}

// Reply records a broadcast reply from address. Any reply counts, no
// matter which probe it answers. Returns true if the address changed or
// the modem was unknown before.
func (m *ModemEndpoint) Reply(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.state != ModemKnown || m.address != address
	m.state = ModemKnown
	m.address = address
	m.missCount = 0
	return changed
}

// Miss records one probe sent. When MAX_PROBE_MISSES probes went
// unanswered the endpoint reverts to Unknown; the return value is true
// only for the probe that caused that transition.
func (m *ModemEndpoint) Miss() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.missCount++
	if m.missCount < protocol.MAX_PROBE_MISSES {
		return false
	}

	lost := m.state == ModemKnown
	m.state = ModemUnknown
	m.address = protocol.UNKNOWN_MODEM_ADDRESS
	return lost
}

// Snapshot returns a copy of the current endpoint
func (m *ModemEndpoint) Snapshot() ModemInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ModemInfo{State: m.state, Address: m.address, MissCount: m.missCount}
}

// Address returns the current modem address (the sentinel while unknown)
func (m *ModemEndpoint) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

// State returns the current modem state
func (m *ModemEndpoint) State() ModemState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OccupancyStore holds the latest BufferOccupancy. Writes replace the whole value.
type OccupancyStore struct {
	v atomic.Pointer[protocol.BufferOccupancy]
}

// Store replaces the current occupancy
func (o *OccupancyStore) Store(occ protocol.BufferOccupancy) {
	o.v.Store(&occ)
}

// Load returns the current occupancy, all zero before the first report
func (o *OccupancyStore) Load() protocol.BufferOccupancy {
	if p := o.v.Load(); p != nil {
		return *p
	}
	return protocol.BufferOccupancy{}
}

// DeviceRegistry caches the audio device lists from the last broadcast
// reply and raises a flag when they change
type DeviceRegistry struct {
	mu      sync.Mutex
	current protocol.BroadcastReply
	seen    bool
	changed bool
}

// Update stores reply and reports whether the device list text differs
// from the previous one. The first reply always counts as a change.
func (d *DeviceRegistry) Update(reply *protocol.BroadcastReply) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := !d.seen || reply.Raw != d.current.Raw
	d.current = *reply
	d.seen = true
	if changed {
		d.changed = true
	}
	return changed
}

// TakeChanged returns the change flag and clears it
func (d *DeviceRegistry) TakeChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.changed
	d.changed = false
	return c
}

// Current returns a copy of the cached reply; ok is false before the first reply
func (d *DeviceRegistry) Current() (protocol.BroadcastReply, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.current
	r.Playback = slices.Clone(r.Playback)
	r.Capture = slices.Clone(r.Capture)
	return r, d.seen
}
