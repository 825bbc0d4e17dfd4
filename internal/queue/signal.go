package queue

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Signal is a one-shot handshake between an asynchronous callback and a
// goroutine waiting for it. Only the first Fire has an effect.
type Signal struct {
	fired atomic.Bool
	ch    chan struct{}
}

// NewSignal creates an unfired signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Fire fires the signal. It reports whether this call was the first.
func (s *Signal) Fire() bool {
	if !s.fired.CompareAndSwap(false, true) {
		return false
	}
	close(s.ch)
	return true
}

// Fired reports whether the signal has fired.
func (s *Signal) Fired() bool {
	return s.fired.Load()
}

// Done returns a channel closed when the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal fires or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks until the signal fires or timeout elapses and
// reports whether it fired. A non-positive timeout waits forever.
func (s *Signal) WaitTimeout(timeout time.Duration) bool {
	if timeout <= 0 {
		<-s.ch
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ch:
		return true
	case <-timer.C:
		return false
	}
}
