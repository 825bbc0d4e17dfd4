// Package util provides utility functions and types shared by the router
// packages.
//
// # Context Helpers
//
// Context utilities for dispatch-scoped data:
//
//	ctx = util.ContextWithDispatchID(ctx, id)
//	id := util.DispatchIDFromContext(ctx)
//
// # Error Conventions
//
// Sentinel errors (errors.New) cover stable conditions that callers check
// with errors.Is(). Structured error types carry additional fields and
// implement Error(), Unwrap() when wrapping, and Is(). Ad-hoc context is
// added with fmt.Errorf and %w.
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - HandlerTimeoutError: a handler never signalled within the timeout
//   - HandlerPanicError: a handler panicked
//   - PatternError: a pattern failed to compile
//   - ConfigError: configuration validation errors
//   - Common sentinel errors: ErrNoMatch, ErrMalformedURL, etc.
package util
