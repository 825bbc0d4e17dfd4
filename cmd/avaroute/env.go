package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Flag defaults may come from these variables.
const (
	envConfigPath     = "AVAROUTE_CONFIG_PATH"
	envLogLevel       = "AVAROUTE_LOG_LEVEL"
	envLogFormat      = "AVAROUTE_LOG_FORMAT"
	envMetricsEnabled = "AVAROUTE_METRICS_ENABLED"
	envWatchConfig    = "AVAROUTE_WATCH_CONFIG"
	envDrainTimeout   = "AVAROUTE_DRAIN_TIMEOUT"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does, plus yes/no and
// on/off. Unparseable values yield the default.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
