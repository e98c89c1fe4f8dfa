package transfer

import (
	"sync"
	"sync/atomic"
)

// CancellationToken is a cooperative cancel signal shared by all stages of one run.
// It moves from active to cancelled once and never back.
type CancellationToken struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Cancel marks the token cancelled. Calling it again has no effect.
func (t *CancellationToken) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// IsCancelled is a non-blocking read.
func (t *CancellationToken) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done is closed when the token is cancelled.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.done
}
