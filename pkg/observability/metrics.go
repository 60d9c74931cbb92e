package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/conduit/pkg/domain"
)

// Metrics counts node flows and path outcomes.
type Metrics struct {
	NodeFlows *prometheus.CounterVec
	Paths     *prometheus.CounterVec
	Fanout    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg (skipped when reg is nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeFlows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conduit_node_flows_total",
				Help: "Total number of stacks flowed through graph nodes",
			},
			[]string{"kind"},
		),
		Paths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conduit_paths_total",
				Help: "Total number of paths that left the frontier, by outcome",
			},
			[]string{"outcome"},
		),
		Fanout: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conduit_joint_fanout",
				Help:    "Stacks produced per joint flow",
				Buckets: []float64{0, 1, 2, 3},
			},
			[]string{"joint"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeFlows, m.Paths, m.Fanout)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeFlows.WithLabelValues(e.NodeKind).Inc()
			if e.Joint != "" {
				m.Fanout.WithLabelValues(e.Joint).Observe(float64(e.Outputs))
			}
		},
		OnPathFinished: func(context.Context, *domain.PathEvent) {
			m.Paths.WithLabelValues("finished").Inc()
		},
		OnPathFailed: func(context.Context, *domain.PathEvent) {
			m.Paths.WithLabelValues("failed").Inc()
		},
	}
}

// LogHooks logs path outcomes at info level and node traffic at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"analysis_id", e.AnalysisID,
				"node_id", e.NodeID,
				"kind", e.NodeKind,
			)
		},
		OnPathFinished: func(ctx context.Context, e *domain.PathEvent) {
			logger.InfoContext(ctx, "path_finished", "analysis_id", e.AnalysisID, "path", e.Path, "top", e.Top)
		},
		OnPathFailed: func(ctx context.Context, e *domain.PathEvent) {
			logger.InfoContext(ctx, "path_failed", "analysis_id", e.AnalysisID, "path", e.Path, "top", e.Top)
		},
	}
}
