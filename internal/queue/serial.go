package queue

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// PanicHandler is called when a task panics. The queue keeps running.
type PanicHandler func(queue string, value any, stack []byte)

// SerialQueue executes tasks one at a time, in submission order, on a
// single goroutine. The queue is unbounded so submission never blocks.
type SerialQueue struct {
	name   string
	logger observability.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}

	pending      atomic.Int64
	processed    atomic.Uint64
	panicked     atomic.Uint64
	panicHandler PanicHandler
	depthHook    func(int)
}

// SerialOption configures a SerialQueue.
type SerialOption func(*SerialQueue)

// WithSerialLogger sets the logger.
func WithSerialLogger(logger observability.Logger) SerialOption {
	return func(q *SerialQueue) {
		q.logger = logger
	}
}

// WithPanicHandler sets the handler invoked after a task panic.
func WithPanicHandler(h PanicHandler) SerialOption {
	return func(q *SerialQueue) {
		q.panicHandler = h
	}
}

// WithDepthHook sets a callback receiving the number of waiting tasks
// whenever it changes.
func WithDepthHook(hook func(int)) SerialOption {
	return func(q *SerialQueue) {
		q.depthHook = hook
	}
}

// NewSerialQueue creates and starts a serial queue.
func NewSerialQueue(name string, opts ...SerialOption) *SerialQueue {
	q := &SerialQueue{
		name:   name,
		logger: observability.NopLogger(),
		done:   make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	for _, opt := range opts {
		opt(q)
	}

	go q.loop()

	return q
}

// Name returns the queue name.
func (q *SerialQueue) Name() string {
	return q.name
}

// Async enqueues task. It returns false if the queue is closed.
func (q *SerialQueue) Async(task func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, task)
	depth := len(q.tasks)
	q.pending.Inc()
	q.cond.Signal()
	q.mu.Unlock()

	q.observeDepth(depth)
	return true
}

// Sync enqueues task and blocks until it has run. Calling Sync from a
// task running on the same queue deadlocks.
func (q *SerialQueue) Sync(task func()) bool {
	done := make(chan struct{})
	if !q.Async(func() {
		defer close(done)
		task()
	}) {
		return false
	}
	<-done
	return true
}

// Execute implements Executor. Tasks submitted after Close are dropped
// and logged.
func (q *SerialQueue) Execute(task func()) {
	if !q.Async(task) {
		q.logger.Warn("task submitted to closed queue dropped",
			observability.String("queue", q.name),
		)
	}
}

// Len returns the number of accepted tasks that have not finished,
// including the one currently running.
func (q *SerialQueue) Len() int {
	return int(q.pending.Load())
}

// Processed returns the number of tasks that finished running.
func (q *SerialQueue) Processed() uint64 {
	return q.processed.Load()
}

// Panicked returns the number of tasks that panicked.
func (q *SerialQueue) Panicked() uint64 {
	return q.panicked.Load()
}

// Drain blocks until every task accepted before the call has finished
// or ctx is done.
func (q *SerialQueue) Drain(ctx context.Context) error {
	marker := make(chan struct{})
	if !q.Async(func() { close(marker) }) {
		select {
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, lets queued tasks finish and waits for the
// queue goroutine to exit or ctx to be done.
func (q *SerialQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the queue goroutine.
func (q *SerialQueue) loop() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		depth := len(q.tasks)
		q.mu.Unlock()

		q.observeDepth(depth)
		q.run(task)
	}
}

// run executes one task with panic recovery.
func (q *SerialQueue) run(task func()) {
	defer func() {
		q.pending.Dec()
		q.processed.Inc()

		if r := recover(); r != nil {
			stack := debug.Stack()
			q.panicked.Inc()
			q.logger.Error("task panicked",
				observability.String("queue", q.name),
				observability.Any("panic", r),
				observability.String("stack", string(stack)),
			)
			if q.panicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					q.panicHandler(q.name, r, stack)
				}()
			}
		}
	}()

	task()
}

func (q *SerialQueue) observeDepth(depth int) {
	if q.depthHook != nil {
		q.depthHook(depth)
	}
}
