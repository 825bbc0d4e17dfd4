package config

import "reflect"

// Change describes how a reloaded configuration differs from the one it
// replaces.
type Change struct {
	Previous *Config
	Current  *Config

	// LogLevel is set when logging.level changed.
	LogLevel bool
	// HandlerTimeout is set when router.handlerTimeout changed.
	HandlerTimeout bool
	// Registrations is set when routes or rules changed. A router cannot
	// drop registrations, so these only take effect on restart.
	Registrations bool
	// Restart is set when any other section changed.
	Restart bool
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return !c.LogLevel && !c.HandlerTimeout && !c.Registrations && !c.Restart
}

// Diff compares two configurations. A nil prev yields a change with
// every flag set.
func Diff(prev, next *Config) Change {
	change := Change{Previous: prev, Current: next}
	if prev == nil {
		change.LogLevel = true
		change.HandlerTimeout = true
		change.Registrations = true
		change.Restart = true
		return change
	}

	change.LogLevel = prev.Logging.Level != next.Logging.Level
	change.HandlerTimeout = prev.Router.HandlerTimeout != next.Router.HandlerTimeout
	change.Registrations = !reflect.DeepEqual(prev.Routes, next.Routes) ||
		!reflect.DeepEqual(prev.Rules, next.Rules)

	prevRouter, nextRouter := prev.Router, next.Router
	prevRouter.HandlerTimeout, nextRouter.HandlerTimeout = 0, 0
	prevLogging, nextLogging := prev.Logging, next.Logging
	prevLogging.Level, nextLogging.Level = "", ""

	change.Restart = prevRouter != nextRouter ||
		prevLogging != nextLogging ||
		prev.Metrics != next.Metrics ||
		!reflect.DeepEqual(prev.Tracing, next.Tracing)

	return change
}
