package config

import (
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/pattern"
)

// Defaults.
const (
	DefaultRouterName     = "main"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultLogOutput      = "stdout"
	DefaultMetricsAddress = ":9090"
	DefaultMetricsPath    = "/metrics"
	DefaultServiceName    = "avaroute"
	DefaultSamplingRate   = 1.0
)

// Config is the root configuration.
type Config struct {
	Router  RouterConfig  `yaml:"router" json:"router"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Routes  []RouteConfig `yaml:"routes,omitempty" json:"routes,omitempty"`
	Rules   []RuleConfig  `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RouterConfig configures the router instance.
type RouterConfig struct {
	Name string `yaml:"name" json:"name"`

	// HandlerTimeout bounds the wait for next and done. Zero waits
	// forever. Applied again on reload.
	HandlerTimeout Duration `yaml:"handlerTimeout" json:"handlerTimeout"`

	PatternCacheSize int `yaml:"patternCacheSize" json:"patternCacheSize"`
}

// LoggingConfig configures the logger. Level is applied again on reload.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // json, console
	Output string `yaml:"output" json:"output"` // stdout, stderr or a file path
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Address   string `yaml:"address" json:"address"`
	Path      string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	ServiceName  string            `yaml:"serviceName" json:"serviceName"`
	OTLPEndpoint string            `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	Insecure     bool              `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	SamplingRate float64           `yaml:"samplingRate" json:"samplingRate"`
	Attributes   map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// RouteConfig declares a route that logs its resolved parameters.
type RouteConfig struct {
	Name    string   `yaml:"name" json:"name"`
	Pattern string   `yaml:"pattern" json:"pattern"`
	Tags    []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// RuleConfig declares a redirect proxy. When the optional CEL condition
// holds, matching URLs are re-targeted to Redirect with its :identifier
// tokens expanded, and Parameters override the final route's parameters.
type RuleConfig struct {
	Name       string            `yaml:"name" json:"name"`
	Pattern    string            `yaml:"pattern" json:"pattern"`
	Redirect   string            `yaml:"redirect,omitempty" json:"redirect,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	When       string            `yaml:"when,omitempty" json:"when,omitempty"`
	Tags       []string          `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// DefaultConfig returns a configuration with all defaults set.
func DefaultConfig() *Config {
	return &Config{
		Router: RouterConfig{
			Name:             DefaultRouterName,
			PatternCacheSize: pattern.DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Metrics: MetricsConfig{
			Namespace: observability.DefaultNamespace,
			Address:   DefaultMetricsAddress,
			Path:      DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			ServiceName:  DefaultServiceName,
			SamplingRate: DefaultSamplingRate,
		},
	}
}

// LogConfig converts the logging section.
func (c *Config) LogConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// TracerConfig converts the tracing section.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:  c.Tracing.ServiceName,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		Insecure:     c.Tracing.Insecure,
		SamplingRate: c.Tracing.SamplingRate,
		Attributes:   c.Tracing.Attributes,
		Enabled:      c.Tracing.Enabled,
	}
}
