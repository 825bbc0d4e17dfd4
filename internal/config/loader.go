package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

// envReference matches $$ (an escaped dollar), ${VAR} and ${VAR:-default}.
var envReference = regexp.MustCompile(`\$\$|\$\{([^}:]+)(?::-([^}]*))?\}`)

// Loader reads YAML configuration documents. Environment references are
// expanded before parsing and unknown keys are rejected.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvLookup replaces the environment used for ${VAR} expansion.
func WithEnvLookup(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = lookup
	}
}

// NewLoader creates a loader that reads the process environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadConfig loads the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// LoadConfigFromReader loads configuration from r.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	return NewLoader().LoadFromReader(r)
}

// Load loads the configuration file at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, util.WrapError(err, "failed to read config file "+path)
	}
	return l.parse(data)
}

// LoadFromReader loads configuration from r.
func (l *Loader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, util.WrapError(err, "failed to read config")
	}
	return l.parse(data)
}

// parse decodes data over DefaultConfig, so omitted keys keep their
// defaults. An empty document yields the defaults.
func (l *Loader) parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(l.expand(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, util.NewConfigErrorWithCause("", "failed to parse YAML", err)
	}
	return cfg, nil
}

// expand resolves environment references. A set variable wins over the
// default even when empty.
func (l *Loader) expand(data []byte) []byte {
	return envReference.ReplaceAllFunc(data, func(match []byte) []byte {
		if string(match) == "$$" {
			return []byte("$")
		}
		sub := envReference.FindSubmatch(match)
		if value, ok := l.lookupEnv(string(sub[1])); ok {
			return []byte(value)
		}
		return sub[2]
	})
}

// ResolveConfigPath locates a configuration file. Relative paths are
// tried as given, then under ./configs, /etc/avaroute and ~/.avaroute.
func ResolveConfigPath(path string) (string, error) {
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = append(candidates,
			filepath.Join("configs", path),
			filepath.Join(string(filepath.Separator), "etc", "avaroute", path),
		)
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, ".avaroute", path))
		}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", util.NewConfigError("", fmt.Sprintf("config file not found: %s", path))
}
