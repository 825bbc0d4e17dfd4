// Package queue provides the synchronization primitives the router is
// built on.
//
//   - AccessQueue serializes writes to shared state behind a barrier
//     while letting reads run concurrently. A write is asynchronous for
//     its caller, but every read waits for all writes enqueued before it.
//   - SerialQueue runs tasks one at a time in FIFO order on a dedicated
//     goroutine. The router uses one to sequence resolutions and, by
//     default, one as the execution context for user handlers.
//   - Executor is the execution context abstraction handlers run on.
//   - Signal is a one-shot, exactly-once completion handshake.
package queue
