package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is matches util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRouter(&config.Router)
	v.validateLogging(&config.Logging)
	v.validateMetrics(&config.Metrics)
	v.validateTracing(&config.Tracing)

	names := make(map[string]string)
	for i := range config.Routes {
		v.validateRoute(&config.Routes[i], fmt.Sprintf("routes[%d]", i), names)
	}
	for i := range config.Rules {
		v.validateRule(&config.Rules[i], fmt.Sprintf("rules[%d]", i), names)
	}

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateRouter(router *RouterConfig) {
	if router.HandlerTimeout < 0 {
		v.addError("router.handlerTimeout", "must not be negative")
	}
	if router.PatternCacheSize < 0 {
		v.addError("router.patternCacheSize", "must not be negative")
	}
}

func (v *Validator) validateLogging(logging *LoggingConfig) {
	switch strings.ToLower(logging.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		v.addError("logging.level", fmt.Sprintf("unknown level %q", logging.Level))
	}

	switch logging.Format {
	case "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("must be json or console, got %q", logging.Format))
	}

	if strings.TrimSpace(logging.Output) == "" {
		v.addError("logging.output", "must be stdout, stderr or a file path")
	}
}

func (v *Validator) validateMetrics(metrics *MetricsConfig) {
	if !metrics.Enabled {
		return
	}
	if metrics.Address == "" {
		v.addError("metrics.address", "is required when metrics are enabled")
	}
	if !strings.HasPrefix(metrics.Path, "/") {
		v.addError("metrics.path", "must start with /")
	}
}

func (v *Validator) validateTracing(tracing *TracingConfig) {
	if tracing.SamplingRate < 0 || tracing.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "must be between 0 and 1")
	}
	if tracing.Enabled && tracing.ServiceName == "" {
		v.addError("tracing.serviceName", "is required when tracing is enabled")
	}
}

func (v *Validator) validateRoute(route *RouteConfig, path string, names map[string]string) {
	v.validateName(route.Name, path, names)
	v.validatePattern(route.Pattern, path+".pattern")
	v.validateTags(route.Tags, path+".tags")
}

func (v *Validator) validateRule(rule *RuleConfig, path string, names map[string]string) {
	v.validateName(rule.Name, path, names)
	v.validatePattern(rule.Pattern, path+".pattern")
	v.validateTags(rule.Tags, path+".tags")

	if rule.Redirect == "" && len(rule.Parameters) == 0 {
		v.addError(path, "redirect or parameters is required")
	}
}

func (v *Validator) validateName(name, path string, names map[string]string) {
	if name == "" {
		v.addError(path+".name", "is required")
		return
	}
	if previous, exists := names[name]; exists {
		v.addError(path+".name", fmt.Sprintf("duplicate name %q (first defined at %s)", name, previous))
		return
	}
	names[name] = path
}

func (v *Validator) validatePattern(raw, path string) {
	if raw == "" {
		v.addError(path, "is required")
		return
	}
	if _, err := pattern.Compile(raw); err != nil {
		v.addError(path, err.Error())
	}
}

func (v *Validator) validateTags(tags []string, path string) {
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			v.addError(fmt.Sprintf("%s[%d]", path, i), "must not be empty")
		}
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
