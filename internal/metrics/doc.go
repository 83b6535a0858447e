// Package metrics provides Prometheus instrumentation for fqindex.
//
// All metrics are prefixed with "fqindex_". They cover the tree scanner,
// the parallel walker, index cycles and persistence, filesystem retries,
// the polling scheduler and the daemon's HTTP endpoints. Only the daemon
// exposes them, on /metrics when METRICS_ENABLED is true, so one-shot jobs
// record nothing of their own.
//
// Gauges describing the index itself (sample and path counts) are refreshed
// by a Collector that polls a StatsProvider, normally the index store.
package metrics
