/*
Package observability turns valve lifecycle events into Prometheus metrics
and structured log lines.

Both are plain domain.LifecycleHooks, so they compose with Merge:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
	eng, _ := conduit.New(conduit.WithLifecycleHooks(hooks))
*/
package observability
