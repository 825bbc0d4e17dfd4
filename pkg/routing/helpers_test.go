package routing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func newTestRouter(t *testing.T, opts ...Option) *Router {
	t.Helper()
	r := New(opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r
}

func drain(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

// recorder collects the parameters of every route invocation.
type recorder struct {
	mu    sync.Mutex
	calls []Parameters
}

func (rec *recorder) handler() RouteHandler {
	return func(params Parameters, done Completion) {
		rec.mu.Lock()
		rec.calls = append(rec.calls, params)
		rec.mu.Unlock()
		done()
	}
}

func (rec *recorder) all() []Parameters {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]Parameters, len(rec.calls))
	copy(out, rec.calls)
	return out
}

func (rec *recorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.calls)
}

// metricValue returns the value of the series of family name carrying
// label=value, or 0 if absent.
func metricValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabel(metric, label, value) {
				return seriesValue(metric)
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, label, value string) bool {
	if label == "" {
		return true
	}
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}

func seriesValue(metric *dto.Metric) float64 {
	switch {
	case metric.GetCounter() != nil:
		return metric.GetCounter().GetValue()
	case metric.GetGauge() != nil:
		return metric.GetGauge().GetValue()
	case metric.GetHistogram() != nil:
		return float64(metric.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}
