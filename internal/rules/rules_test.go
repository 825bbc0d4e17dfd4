package rules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/util"
	"github.com/vyrodovalexey/avaroute/pkg/routing"
)

// collector gathers sink output.
type collector struct {
	mu   sync.Mutex
	seen []Resolution
}

func (c *collector) sink(res Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, res)
}

func (c *collector) all() []Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Resolution, len(c.seen))
	copy(out, c.seen)
	return out
}

func newRouter(t *testing.T) *routing.Router {
	t.Helper()
	r := routing.New()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r
}

func drain(t *testing.T, r *routing.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Routes = []config.RouteConfig{
		{Name: "item", Pattern: "app://items/:id", Tags: []string{"catalog"}},
		{Name: "home", Pattern: "app://home"},
	}
	cfg.Rules = []config.RuleConfig{
		{
			Name:       "legacy-items",
			Pattern:    "app://old/items/:id",
			Redirect:   "app://items/:id",
			Parameters: map[string]string{"source": "legacy", "legacy_id": ":id"},
			When:       `!has(params.preview) || params.preview != "true"`,
			Tags:       []string{"catalog"},
		},
		{
			Name:       "campaign",
			Pattern:    "app://home",
			Parameters: map[string]string{"campaign": "spring"},
		},
	}
	return cfg
}

func TestApply_Redirect(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	out := &collector{}
	cfg := testConfig()
	// The old path needs a route of its own to be accepted by Open.
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Name: "old", Pattern: "app://old/*"})

	require.NoError(t, Apply(r, cfg, WithSink(out.sink)))
	assert.Equal(t, 5, r.Len())

	require.True(t, r.Open("app://old/items/42?ref=mail"))
	drain(t, r)

	seen := out.all()
	require.Len(t, seen, 1)
	assert.Equal(t, "item", seen[0].Route)
	assert.Equal(t, routing.Parameters{
		"id":        "42",
		"ref":       "mail",
		"source":    "legacy",
		"legacy_id": "42",
	}, seen[0].Params)
}

func TestApply_ConditionFalsePassesThrough(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	out := &collector{}
	cfg := testConfig()
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Name: "old", Pattern: "app://old/*"})

	require.NoError(t, Apply(r, cfg, WithSink(out.sink)))

	require.True(t, r.Open("app://old/items/42?preview=true"))
	drain(t, r)

	seen := out.all()
	require.Len(t, seen, 1)
	assert.Equal(t, "old", seen[0].Route)
	assert.Equal(t, routing.Parameters{"preview": "true"}, seen[0].Params)
}

func TestApply_ParameterOnlyRule(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	out := &collector{}
	require.NoError(t, Apply(r, testConfig(), WithSink(out.sink)))

	require.True(t, r.Open("app://home"))
	drain(t, r)

	seen := out.all()
	require.Len(t, seen, 1)
	assert.Equal(t, "home", seen[0].Route)
	assert.Equal(t, routing.Parameters{"campaign": "spring"}, seen[0].Params)
}

func TestApply_Tags(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	require.NoError(t, Apply(r, testConfig()))

	catalog := r.WithTags("catalog")
	assert.Len(t, catalog.Registrations(), 2)
	assert.True(t, catalog.Open("app://items/1"))
	assert.False(t, catalog.Open("app://home"))
	drain(t, r)
}

func TestApply_OnView(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	view := r.WithTags("tenant")

	cfg := config.DefaultConfig()
	cfg.Routes = []config.RouteConfig{{Name: "x", Pattern: "app://x"}}
	require.NoError(t, Apply(view, cfg))

	assert.True(t, view.Open("app://x"))
	assert.False(t, r.WithTags("other").Open("app://x"))
	drain(t, r)
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func() *config.Config
		wantErr error
	}{
		{
			name: "invalid route pattern",
			cfg: func() *config.Config {
				cfg := config.DefaultConfig()
				cfg.Routes = []config.RouteConfig{{Name: "bad"}}
				return cfg
			},
			wantErr: util.ErrInvalidPattern,
		},
		{
			name: "invalid rule condition",
			cfg: func() *config.Config {
				cfg := config.DefaultConfig()
				cfg.Rules = []config.RuleConfig{{Name: "bad", Pattern: "app://x", Redirect: "app://y", When: "path +"}}
				return cfg
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRouter(t)
			err := Apply(r, tt.cfg())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRedirect_EvalErrorPassesThrough(t *testing.T) {
	t.Parallel()

	env, err := NewEnvironment()
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	redirect, err := NewRedirect(env, &config.RuleConfig{
		Name:     "strict",
		Pattern:  "app://*",
		Redirect: "app://elsewhere",
		When:     `params.flag == "on"`,
	}, observability.NewLoggerFromZap(zap.New(core)))
	require.NoError(t, err)

	var gotPath string
	var gotParams routing.Parameters
	called := 0
	redirect.Handle("app://x", routing.Parameters{}, func(path string, params routing.Parameters) {
		called++
		gotPath, gotParams = path, params
	})

	assert.Equal(t, 1, called)
	assert.Empty(t, gotPath)
	assert.Nil(t, gotParams)
	assert.Equal(t, 1, logs.FilterMessage("rule condition failed, passing through").Len())
}

func TestNewLogRoute(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	out := &collector{}
	handler := NewLogRoute("item", observability.NewLoggerFromZap(zap.New(core)), out.sink)

	done := 0
	handler(routing.Parameters{"id": "1"}, func() { done++ })

	assert.Equal(t, 1, done)
	require.Len(t, out.all(), 1)
	assert.Equal(t, "item", out.all()[0].Route)

	entries := logs.FilterMessage("route resolved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "item", entries[0].ContextMap()["route"])
}

func TestApply_SampleConfig(t *testing.T) {
	t.Parallel()

	noEnv := config.WithEnvLookup(func(string) (string, bool) { return "", false })
	cfg, err := config.NewLoader(noEnv).Load("../../configs/avaroute.yaml")
	require.NoError(t, err)
	require.NoError(t, config.ValidateConfig(cfg))

	r := newRouter(t)
	c := &collector{}
	require.NoError(t, Apply(r, cfg, WithSink(c.sink)))

	require.True(t, r.Open("app://old/items/7"))
	require.True(t, r.Open("app://search?q=beta:shoes"))
	require.True(t, r.Open("app://search?q=shoes"))
	require.True(t, r.Open("app://users/ada/profile"))
	require.True(t, r.Open("app://nowhere"))
	drain(t, r)

	assert.Equal(t, []Resolution{
		{Route: "item", Params: routing.Parameters{"id": "7", "source": "legacy"}},
		{Route: "search", Params: routing.Parameters{"q": "beta:shoes", "ranking": "beta"}},
		{Route: "search", Params: routing.Parameters{"q": "shoes"}},
		{Route: "profile", Params: routing.Parameters{"user": "ada"}},
		{Route: "fallback", Params: routing.Parameters{}},
	}, c.all())
}
