package queue

// Executor is an execution context. Execute must eventually run task;
// it must not block the caller until task completes.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func())

// Execute calls f(task).
func (f ExecutorFunc) Execute(task func()) {
	f(task)
}

// InlineExecutor runs tasks synchronously on the submitting goroutine.
// For the router that is the routing goroutine, so a handler running
// inline must not wait on another resolution.
type InlineExecutor struct{}

// Execute runs task immediately.
func (InlineExecutor) Execute(task func()) {
	task()
}

// GoroutineExecutor runs every task on a fresh goroutine.
type GoroutineExecutor struct{}

// Execute starts task on a new goroutine.
func (GoroutineExecutor) Execute(task func()) {
	go task()
}

var (
	_ Executor = (*SerialQueue)(nil)
	_ Executor = InlineExecutor{}
	_ Executor = GoroutineExecutor{}
	_ Executor = ExecutorFunc(nil)
)
