package util

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors.
var (
	ErrMalformedURL          = errors.New("malformed url")
	ErrNoMatch               = errors.New("no matching route")
	ErrHandlerNonTermination = errors.New("handler did not signal completion")
	ErrHandlerPanic          = errors.New("handler panicked")
	ErrRoutingPanic          = errors.New("routing task panicked")
	ErrInvalidPattern        = errors.New("invalid pattern")
	ErrNilHandler            = errors.New("nil handler")
	ErrRouterClosed          = errors.New("router closed")
	ErrConfigInvalid         = errors.New("invalid configuration")
)

// HandlerKind names the registration variant a handler error refers to.
type HandlerKind string

// Handler kinds.
const (
	HandlerKindRoute HandlerKind = "route"
	HandlerKindProxy HandlerKind = "proxy"
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// PatternError reports a pattern that could not be compiled.
type PatternError struct {
	Pattern string
	Cause   error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Cause)
	}
	return fmt.Sprintf("invalid pattern %q", e.Pattern)
}

// Unwrap returns the underlying error.
func (e *PatternError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *PatternError) Is(target error) bool {
	if target == ErrInvalidPattern {
		return true
	}
	_, ok := target.(*PatternError)
	return ok || errors.Is(e.Cause, target)
}

// NewPatternError creates a new PatternError.
func NewPatternError(pattern string, cause error) *PatternError {
	return &PatternError{Pattern: pattern, Cause: cause}
}

// HandlerTimeoutError reports a route or proxy handler that did not
// signal within the configured handler timeout.
type HandlerTimeoutError struct {
	Kind       HandlerKind
	Pattern    string
	DispatchID string
	Timeout    time.Duration
}

// Error implements the error interface.
func (e *HandlerTimeoutError) Error() string {
	return fmt.Sprintf("%s handler for %q did not signal within %v (dispatch %s)",
		e.Kind, e.Pattern, e.Timeout, e.DispatchID)
}

// Is checks if the error matches the target.
func (e *HandlerTimeoutError) Is(target error) bool {
	if target == ErrHandlerNonTermination {
		return true
	}
	_, ok := target.(*HandlerTimeoutError)
	return ok
}

// NewHandlerTimeoutError creates a new HandlerTimeoutError.
func NewHandlerTimeoutError(kind HandlerKind, pattern, dispatchID string, timeout time.Duration) *HandlerTimeoutError {
	return &HandlerTimeoutError{Kind: kind, Pattern: pattern, DispatchID: dispatchID, Timeout: timeout}
}

// HandlerPanicError reports a route or proxy handler that panicked.
type HandlerPanicError struct {
	Kind       HandlerKind
	Pattern    string
	DispatchID string
	Value      any
}

// Error implements the error interface.
func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("%s handler for %q panicked: %v (dispatch %s)",
		e.Kind, e.Pattern, e.Value, e.DispatchID)
}

// Is checks if the error matches the target.
func (e *HandlerPanicError) Is(target error) bool {
	if target == ErrHandlerPanic {
		return true
	}
	_, ok := target.(*HandlerPanicError)
	return ok
}

// NewHandlerPanicError creates a new HandlerPanicError.
func NewHandlerPanicError(kind HandlerKind, pattern, dispatchID string, value any) *HandlerPanicError {
	return &HandlerPanicError{Kind: kind, Pattern: pattern, DispatchID: dispatchID, Value: value}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCallerContractViolation reports whether err was caused by a handler
// breaking its signalling contract (never signalling or panicking).
func IsCallerContractViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrHandlerNonTermination) || errors.Is(err, ErrHandlerPanic)
}
