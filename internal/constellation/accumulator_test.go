package constellation

import (
	"image"
	"testing"

	"github.com/dbehnke/oscarlink/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorDropsZeroSample(t *testing.T) {
	q := queue.New[*Snapshot]("iq")
	acc := NewAccumulator(q)

	for n := 0; n < 500; n++ {
		assert.False(t, acc.Add(0, 0))
	}
	assert.Equal(t, 0, acc.Pending())
	assert.Equal(t, 0, q.Count())
}

func TestAccumulatorFlushesAtSnapshotSize(t *testing.T) {
	q := queue.New[*Snapshot]("iq")
	acc := NewAccumulator(q)

	for n := 1; n < SNAPSHOT_POINTS; n++ {
		require.False(t, acc.Add(int32(n), 1))
	}
	assert.Equal(t, 0, q.Count())

	assert.True(t, acc.Add(SNAPSHOT_POINTS, 1))
	require.Equal(t, 1, q.Count())
	assert.Equal(t, 0, acc.Pending())

	snap, ok := q.Dequeue()
	require.True(t, ok)
	require.Len(t, snap.Points, SNAPSHOT_POINTS)
	assert.Equal(t, Point{I: 1, Q: 1}, snap.Points[0])
	assert.Equal(t, Point{I: SNAPSHOT_POINTS, Q: 1}, snap.Points[SNAPSHOT_POINTS-1])
}

func TestAccumulatorHoldsWhileConsumerLags(t *testing.T) {
	q := queue.New[*Snapshot]("iq")
	q.Enqueue(&Snapshot{})
	q.Enqueue(&Snapshot{})
	acc := NewAccumulator(q)

	// Consumer has two snapshots pending: keep accumulating, bounded
	for n := 1; n <= 3*SNAPSHOT_POINTS; n++ {
		require.False(t, acc.Add(int32(n), 2))
	}
	assert.Equal(t, SNAPSHOT_POINTS, acc.Pending())
	assert.Equal(t, 2, q.Count())

	// Consumer catches up: next sample flushes the newest points in order
	q.Dequeue()
	require.True(t, acc.Add(int32(3*SNAPSHOT_POINTS+1), 2))
	q.Dequeue()

	snap, ok := q.Dequeue()
	require.True(t, ok)
	require.Len(t, snap.Points, SNAPSHOT_POINTS)
	assert.Equal(t, int32(2*SNAPSHOT_POINTS+2), snap.Points[0].I)
	assert.Equal(t, int32(3*SNAPSHOT_POINTS+1), snap.Points[SNAPSHOT_POINTS-1].I)
	for n := 1; n < len(snap.Points); n++ {
		assert.Equal(t, snap.Points[n-1].I+1, snap.Points[n].I)
	}
}

func TestSnapshotPixels(t *testing.T) {
	s := &Snapshot{Points: []Point{
		{I: 0, Q: 1},
		{I: FULL_SCALE, Q: FULL_SCALE},
		{I: -FULL_SCALE, Q: -FULL_SCALE / 2},
	}}

	px := s.Pixels(PANEL_SIZE, PANEL_SIZE)
	assert.Equal(t, []image.Point{
		{X: 37, Y: 37},
		{X: 74, Y: 74},
		{X: 0, Y: 19},
	}, px)
}
