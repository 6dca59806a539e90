/*
Package observability turns environment lifecycle events into logs and prometheus
metrics.

Hooks returns domain.LifecycleHooks that can be passed to env.WithHooks. Metrics holds
the collectors; register them on a prometheus.Registerer of your choice (the HTTP API
serves whatever registry it is given on /metrics).
*/
package observability
