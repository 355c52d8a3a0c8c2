// Package constellation batches decoded I/Q samples into snapshots that a
// display can draw in one go.
package constellation

import "image"

const (
	SNAPSHOT_POINTS = 160     // samples per snapshot
	FULL_SCALE      = 1 << 24 // I and Q span +/- FULL_SCALE
	PANEL_SIZE      = 75      // default display panel, pixels
)

// Point is one I/Q sample
type Point struct {
	I int32
	Q int32
}

// Snapshot is a batch of samples, oldest first
type Snapshot struct {
	Points []Point
}

// Pixels maps every point onto a w x h panel with the origin in the centre
func (s *Snapshot) Pixels(w, h int) []image.Point {
	out := make([]image.Point, len(s.Points))
	for n, p := range s.Points {
		x := float64(p.I) * float64(w) / 2 / FULL_SCALE
		y := float64(p.Q) * float64(h) / 2 / FULL_SCALE
		out[n] = image.Point{X: w/2 + int(x), Y: h/2 + int(y)}
	}
	return out
}

// Sink receives finished snapshots. Count reports how many the consumer
// has not picked up yet.
type Sink interface {
	Enqueue(*Snapshot)
	Count() int
}

// Accumulator collects samples until SNAPSHOT_POINTS are held and the
// consumer has at most one snapshot pending, then flushes. While the
// consumer lags, only the newest SNAPSHOT_POINTS samples are kept.
//
// Not safe for concurrent use; the receive loop owns it.
type Accumulator struct {
	sink   Sink
	points []Point
	next   int // overwrite position once points is full
}

// NewAccumulator creates an accumulator flushing into sink
func NewAccumulator(sink Sink) *Accumulator {
	return &Accumulator{
		sink:   sink,
		points: make([]Point, 0, SNAPSHOT_POINTS),
	}
}

// Add records one sample. (0,0) means no signal and is dropped.
// Returns true if the sample completed a snapshot.
func (a *Accumulator) Add(i, q int32) bool {
	if i == 0 && q == 0 {
		return false
	}

	if len(a.points) < SNAPSHOT_POINTS {
		a.points = append(a.points, Point{I: i, Q: q})
	} else {
		a.points[a.next] = Point{I: i, Q: q}
		a.next = (a.next + 1) % SNAPSHOT_POINTS
	}

	if len(a.points) < SNAPSHOT_POINTS || a.sink.Count() > 1 {
		return false
	}

	a.flush()
	return true
}

// Pending returns the number of samples not yet flushed
func (a *Accumulator) Pending() int {
	return len(a.points)
}

func (a *Accumulator) flush() {
	snap := &Snapshot{Points: make([]Point, 0, len(a.points))}
	snap.Points = append(snap.Points, a.points[a.next:]...)
	snap.Points = append(snap.Points, a.points[:a.next]...)
	a.sink.Enqueue(snap)

	a.points = make([]Point, 0, SNAPSHOT_POINTS)
	a.next = 0
}
