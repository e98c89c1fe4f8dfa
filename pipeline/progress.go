package pipeline

import "sync"

// External progress schedule. Stage 1 byte transfer maps linearly onto [TransferStart, TransferEnd].
const (
	ProgressInitial           = 0.0
	ProgressTransferStart     = 0.10
	ProgressTransferEnd       = 0.80
	ProgressAcknowledged      = 0.90
	ProgressThumbnailResolved = 0.95
	ProgressComplete          = 1.0
)

// ProgressAggregator folds per-stage fractions into one monotonically non-decreasing value in [0,1].
// Regressive updates are clamped to the last value, never rejected.
type ProgressAggregator struct {
	mu   sync.Mutex
	last float64
}

func NewProgressAggregator() *ProgressAggregator {
	return &ProgressAggregator{last: ProgressInitial}
}

// Update proposes v and returns the value now in effect and whether it advanced.
func (p *ProgressAggregator) Update(v float64) (float64, bool) {
	v = clamp(v)
	p.mu.Lock()
	defer p.mu.Unlock()
	if v <= p.last {
		return p.last, false
	}
	p.last = v
	return v, true
}

func (p *ProgressAggregator) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reset puts the value back to its initial 0.
func (p *ProgressAggregator) Reset() {
	p.mu.Lock()
	p.last = ProgressInitial
	p.mu.Unlock()
}

func (p *ProgressAggregator) Begin() (float64, bool) {
	return p.Update(ProgressTransferStart)
}

// Transfer maps the stage 1 byte fraction f onto 0.10..0.80.
func (p *ProgressAggregator) Transfer(f float64) (float64, bool) {
	return p.Update(ProgressTransferStart + (ProgressTransferEnd-ProgressTransferStart)*clamp(f))
}

func (p *ProgressAggregator) Acknowledge() (float64, bool) {
	return p.Update(ProgressAcknowledged)
}

func (p *ProgressAggregator) ThumbnailResolved() (float64, bool) {
	return p.Update(ProgressThumbnailResolved)
}

func (p *ProgressAggregator) Complete() (float64, bool) {
	return p.Update(ProgressComplete)
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
