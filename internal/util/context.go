package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyDispatchID ctxKey = "dispatch_id"
	ctxKeyStartTime  ctxKey = "start_time"
	ctxKeyPattern    ctxKey = "pattern"
	ctxKeyPath       ctxKey = "path"
)

// ContextWithDispatchID adds a dispatch ID to the context.
func ContextWithDispatchID(ctx context.Context, dispatchID string) context.Context {
	return context.WithValue(ctx, ctxKeyDispatchID, dispatchID)
}

// DispatchIDFromContext extracts the dispatch ID from context.
func DispatchIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyDispatchID).(string); ok {
		return v
	}
	return ""
}

// ContextWithStartTime adds a start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ContextWithPattern adds the matched pattern to the context.
func ContextWithPattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, ctxKeyPattern, pattern)
}

// PatternFromContext extracts the matched pattern from context.
func PatternFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPattern).(string); ok {
		return v
	}
	return ""
}

// ContextWithPath adds the resolved path to the context.
func ContextWithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxKeyPath, path)
}

// PathFromContext extracts the resolved path from context.
func PathFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPath).(string); ok {
		return v
	}
	return ""
}

// ElapsedTime returns the elapsed time since the start time in context.
func ElapsedTime(ctx context.Context) time.Duration {
	startTime := StartTimeFromContext(ctx)
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}
