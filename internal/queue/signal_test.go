package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_FireOnce(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	assert.False(t, s.Fired())

	assert.True(t, s.Fire())
	assert.False(t, s.Fire())
	assert.True(t, s.Fired())

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestSignal_ConcurrentFire(t *testing.T) {
	t.Parallel()

	s := NewSignal()

	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Fire() {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, firsts)
}

func TestSignal_Wait(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Fire()
	}()

	require.NoError(t, s.Wait(context.Background()))
}

func TestSignal_WaitContextDone(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestSignal_WaitTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fire    bool
		timeout time.Duration
		want    bool
	}{
		{name: "fired before bounded wait", fire: true, timeout: time.Second, want: true},
		{name: "fired before unbounded wait", fire: true, timeout: 0, want: true},
		{name: "never fired", fire: false, timeout: 5 * time.Millisecond, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSignal()
			if tt.fire {
				s.Fire()
			}
			assert.Equal(t, tt.want, s.WaitTimeout(tt.timeout))
		})
	}
}
