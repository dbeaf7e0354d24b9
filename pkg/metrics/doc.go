// Package metrics registers Prometheus collectors for gateway calls
// and deployment outcomes. Collectors register on import; Handler
// returns the exposition endpoint served at /metrics.
package metrics
