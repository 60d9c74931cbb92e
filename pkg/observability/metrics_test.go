package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/dsl"
	"github.com/aretw0/conduit/pkg/observability"
)

func TestMetrics_CountsPathsAndFlows(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	eng, err := conduit.New(conduit.WithLifecycleHooks(m.Hooks().Merge(observability.LogHooks(logger))))
	require.NoError(t, err)

	code := dsl.New().
		Prim("DROP").
		PushInt(0).Prim("EQ").
		If(func(b *dsl.Builder) { b.PushString("zero").FailWith() }, func(b *dsl.Builder) { b.Prim("UNIT") }).
		Build()
	c := &domain.Contract{Name: "m", Parameter: domain.TypeUnit, Storage: domain.TypeUnit, Code: code}

	_, err = eng.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1.0, value(t, m.Paths.WithLabelValues("finished")))
	assert.Equal(t, 1.0, value(t, m.Paths.WithLabelValues("failed")))
	assert.Equal(t, 1.0, value(t, m.NodeFlows.WithLabelValues("joint")))
	assert.Greater(t, value(t, m.NodeFlows.WithLabelValues("tube")), 2.0)

	assert.Contains(t, buf.String(), "path_failed")
	assert.Contains(t, buf.String(), `FAIL(\"zero\")`)
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil).Hooks().OnPathFinished(context.Background(), &domain.PathEvent{})
	})
}

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
