package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

const fullConfigYAML = `
router:
  name: app
  handlerTimeout: 250ms
  patternCacheSize: 64
logging:
  level: debug
  format: console
  output: stderr
metrics:
  enabled: true
  namespace: shop
  address: ":9100"
  path: /prom
tracing:
  enabled: true
  serviceName: shop-router
  otlpEndpoint: collector:4317
  samplingRate: 0.5
routes:
  - name: item
    pattern: "app://items/:id"
    tags: [catalog]
rules:
  - name: legacy-items
    pattern: "app://old/items/:id"
    redirect: "app://items/:id"
    parameters:
      source: legacy
    when: 'params.preview != "true"'
    tags: [catalog]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avaroute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().Load(writeConfig(t, fullConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Router.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Router.HandlerTimeout.Duration())
	assert.Equal(t, 64, cfg.Router.PatternCacheSize)

	assert.Equal(t, LoggingConfig{Level: "debug", Format: "console", Output: "stderr"}, cfg.Logging)
	assert.Equal(t, MetricsConfig{Enabled: true, Namespace: "shop", Address: ":9100", Path: "/prom"}, cfg.Metrics)
	assert.Equal(t, TracingConfig{
		Enabled:      true,
		ServiceName:  "shop-router",
		OTLPEndpoint: "collector:4317",
		SamplingRate: 0.5,
	}, cfg.Tracing)

	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, RouteConfig{Name: "item", Pattern: "app://items/:id", Tags: []string{"catalog"}}, cfg.Routes[0])

	require.Len(t, cfg.Rules, 1)
	rule := cfg.Rules[0]
	assert.Equal(t, "app://items/:id", rule.Redirect)
	assert.Equal(t, map[string]string{"source": "legacy"}, rule.Parameters)
	assert.Equal(t, `params.preview != "true"`, rule.When)

	require.NoError(t, ValidateConfig(cfg))
}

func TestLoader_DefaultsKeptForMissingFields(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader("router:\n  name: partial\n"))
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, "partial", cfg.Router.Name)
	assert.Equal(t, defaults.Router.PatternCacheSize, cfg.Router.PatternCacheSize)
	assert.Equal(t, defaults.Logging, cfg.Logging)
	assert.Equal(t, defaults.Metrics, cfg.Metrics)
	assert.Equal(t, defaults.Tracing, cfg.Tracing)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoader_EnvSubstitution(t *testing.T) {
	t.Parallel()

	env := map[string]string{"ROUTER_NAME": "from-env", "EMPTY": ""}
	loader := NewLoader(WithEnvLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "set variable", input: "${ROUTER_NAME}", want: "from-env"},
		{name: "default used when unset", input: "${MISSING:-fallback}", want: "fallback"},
		{name: "set variable ignores default", input: "${ROUTER_NAME:-fallback}", want: "from-env"},
		{name: "set but empty", input: "${EMPTY:-fallback}", want: ""},
		{name: "unset without default", input: "${MISSING}", want: ""},
		{name: "escaped dollar", input: "$${ROUTER_NAME}", want: "${ROUTER_NAME}"},
		{name: "embedded", input: "app://${ROUTER_NAME}/x", want: "app://from-env/x"},
		{name: "lone dollar", input: "cost: $5", want: "cost: $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(loader.expand([]byte(tt.input))))
		})
	}
}

func TestLoader_EnvSubstitutionInDocument(t *testing.T) {
	t.Setenv("AVAROUTE_TEST_LEVEL", "warn")

	cfg, err := LoadConfigFromReader(strings.NewReader(
		"logging:\n  level: ${AVAROUTE_TEST_LEVEL}\nrouter:\n  name: ${AVAROUTE_TEST_UNSET:-fallback}\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "fallback", cfg.Router.Name)
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/avaroute.yaml")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorContains(t, err, "failed to read config file /nonexistent/path/avaroute.yaml")

	_, err = LoadConfigFromReader(strings.NewReader("router: [not, a, map]"))
	assert.ErrorIs(t, err, util.ErrConfigInvalid)

	_, err = LoadConfigFromReader(strings.NewReader("router:\n  handlerTimeout: soon\n"))
	assert.ErrorIs(t, err, util.ErrConfigInvalid)

	_, err = LoadConfigFromReader(strings.NewReader("router:\n  handlerTimout: 1s\n"))
	assert.ErrorIs(t, err, util.ErrConfigInvalid)
	assert.ErrorContains(t, err, "handlerTimout")
}

func TestLoader_EmptyDocument(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolveConfigPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "{}")

	resolved, err := ResolveConfigPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ResolveConfigPath("definitely-missing-avaroute.yaml")
	assert.ErrorIs(t, err, util.ErrConfigInvalid)

	_, err = ResolveConfigPath(t.TempDir())
	assert.Error(t, err)
}
