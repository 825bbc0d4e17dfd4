package queue

import (
	"sync"
)

// AccessQueue guards shared state. Writes submitted with Barrier are
// applied asynchronously, one at a time, under the write lock. Reads
// first wait until every write submitted before them has been applied,
// then run under the read lock so they may overlap each other.
type AccessQueue struct {
	rw sync.RWMutex

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []func()
	enqueued uint64
	applied  uint64
	closed   bool
	done     chan struct{}
}

// NewAccessQueue creates and starts an access queue.
func NewAccessQueue() *AccessQueue {
	q := &AccessQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Barrier submits write. It returns immediately; false means the queue
// is closed and write was discarded.
func (q *AccessQueue) Barrier(write func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.pending = append(q.pending, write)
	q.enqueued++
	q.cond.Broadcast()
	return true
}

// Read runs read after all previously submitted writes, concurrently
// with other reads.
func (q *AccessQueue) Read(read func()) {
	q.mu.Lock()
	target := q.enqueued
	for q.applied < target {
		q.cond.Wait()
	}
	q.mu.Unlock()

	q.rw.RLock()
	defer q.rw.RUnlock()
	read()
}

// Close stops accepting writes and waits for submitted ones to apply.
func (q *AccessQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

// loop applies writes in submission order.
func (q *AccessQueue) loop() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, write := range batch {
			q.apply(write)
		}
	}
}

// apply runs one write under the write lock and publishes its completion.
func (q *AccessQueue) apply(write func()) {
	defer func() {
		q.mu.Lock()
		q.applied++
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	q.rw.Lock()
	defer q.rw.Unlock()
	write()
}
