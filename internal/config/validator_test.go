package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:     "negative handler timeout",
			mutate:   func(c *Config) { c.Router.HandlerTimeout = -1 },
			wantPath: "router.handlerTimeout",
		},
		{
			name:     "negative cache size",
			mutate:   func(c *Config) { c.Router.PatternCacheSize = -1 },
			wantPath: "router.patternCacheSize",
		},
		{
			name:     "unknown log level",
			mutate:   func(c *Config) { c.Logging.Level = "loud" },
			wantPath: "logging.level",
		},
		{
			name:     "unknown log format",
			mutate:   func(c *Config) { c.Logging.Format = "xml" },
			wantPath: "logging.format",
		},
		{
			name:     "empty log output",
			mutate:   func(c *Config) { c.Logging.Output = " " },
			wantPath: "logging.output",
		},
		{
			name: "metrics path without slash",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Path = "metrics"
			},
			wantPath: "metrics.path",
		},
		{
			name: "metrics without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Address = ""
			},
			wantPath: "metrics.address",
		},
		{
			name:     "sampling rate out of range",
			mutate:   func(c *Config) { c.Tracing.SamplingRate = 2 },
			wantPath: "tracing.samplingRate",
		},
		{
			name: "tracing without service name",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.ServiceName = ""
			},
			wantPath: "tracing.serviceName",
		},
		{
			name:     "route without name",
			mutate:   func(c *Config) { c.Routes = []RouteConfig{{Pattern: "app://x"}} },
			wantPath: "routes[0].name",
		},
		{
			name:     "route without pattern",
			mutate:   func(c *Config) { c.Routes = []RouteConfig{{Name: "x"}} },
			wantPath: "routes[0].pattern",
		},
		{
			name: "empty tag",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{{Name: "x", Pattern: "app://x", Tags: []string{" "}}}
			},
			wantPath: "routes[0].tags[0]",
		},
		{
			name: "duplicate name across routes and rules",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{{Name: "x", Pattern: "app://x"}}
				c.Rules = []RuleConfig{{Name: "x", Pattern: "app://y", Redirect: "app://x"}}
			},
			wantPath: "rules[0].name",
		},
		{
			name:     "rule without action",
			mutate:   func(c *Config) { c.Rules = []RuleConfig{{Name: "r", Pattern: "app://y"}} },
			wantPath: "rules[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantPath == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)

			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantPath, errs[0].Path)
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is nil")
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: bad", ValidationErrors{{Path: "a", Message: "bad"}}.Error())

	multi := ValidationErrors{{Path: "a", Message: "bad"}, {Message: "worse"}}.Error()
	assert.Contains(t, multi, "2 validation errors")
	assert.Contains(t, multi, "1. a: bad")
	assert.Contains(t, multi, "2. worse")
}

func TestConfig_Conversions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true

	logCfg := cfg.LogConfig()
	assert.Equal(t, DefaultLogLevel, logCfg.Level)
	assert.Equal(t, DefaultLogFormat, logCfg.Format)
	assert.Equal(t, DefaultLogOutput, logCfg.Output)

	tracerCfg := cfg.TracerConfig()
	assert.True(t, tracerCfg.Enabled)
	assert.Equal(t, DefaultServiceName, tracerCfg.ServiceName)
	assert.Equal(t, DefaultSamplingRate, tracerCfg.SamplingRate)
}
