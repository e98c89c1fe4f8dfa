package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressSchedule(t *testing.T) {
	p := NewProgressAggregator()
	assert.Equal(t, 0.0, p.Value())

	v, ok := p.Begin()
	assert.True(t, ok)
	assert.Equal(t, 0.10, v)

	v, _ = p.Transfer(0.5)
	assert.InDelta(t, 0.45, v, 1e-9)
	v, _ = p.Transfer(1)
	assert.InDelta(t, 0.80, v, 1e-9)

	v, _ = p.Acknowledge()
	assert.Equal(t, 0.90, v)
	v, _ = p.ThumbnailResolved()
	assert.Equal(t, 0.95, v)
	v, _ = p.Complete()
	assert.Equal(t, 1.0, v)
}

func TestProgressClampsRegressions(t *testing.T) {
	p := NewProgressAggregator()
	p.Update(0.6)

	v, ok := p.Update(0.3)
	assert.False(t, ok)
	assert.Equal(t, 0.6, v)

	// an early transfer fraction arriving after acknowledgement must not pull the value back
	p.Acknowledge()
	v, ok = p.Transfer(0.2)
	assert.False(t, ok)
	assert.Equal(t, 0.90, v)

	v, _ = p.Update(7)
	assert.Equal(t, 1.0, v)
	v, ok = p.Update(math.NaN())
	assert.False(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestProgressTransferBounds(t *testing.T) {
	p := NewProgressAggregator()
	v, _ := p.Transfer(-1)
	assert.Equal(t, 0.10, v)
	v, _ = p.Transfer(2)
	assert.InDelta(t, 0.80, v, 1e-9)

	p.Reset()
	assert.Equal(t, 0.0, p.Value())
}
