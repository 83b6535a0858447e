// Package main provides the entry point for fqindex.
//
// fqindex keeps an index from sample names to the sequencing data files
// (by default *.clean.fastq.gz) stored under a root/batch/sample/flowcell
// hierarchy on a shared network filesystem. The index is a single JSON
// file that is replaced atomically on every change.
//
// # Jobs
//
// The -t flag selects one job per invocation:
//
//   - c: create the index from a full traversal of the fastq path
//   - u: refresh the index; with -c once and synchronously, otherwise on a
//     polling timer until SIGINT or SIGTERM
//   - q: match a tab-delimited sample list against the index and write
//     querySucc.log and queryFail.log
//   - s: print the number of samples and libraries in the index
//
// # Refresh Daemon
//
// An unforced update runs until interrupted. Every poll interval it rescans
// only the subtrees modified within the staleness window, adds new files
// and drops recorded files that no longer exist. When METRICS_ENABLED is
// true (the default) it also serves, on METRICS_PORT (default 9090):
//
//   - /metrics: Prometheus metrics
//   - /healthz, /health: cycle state and index size
//   - /livez, /readyz: liveness and readiness checks
//   - /version: build information
//
// # Environment Variables
//
// Flags take precedence over the environment:
//
//   - FQINDEX_DATABASE: index file path
//   - FQINDEX_ROOT: root of the fastq hierarchy
//   - FQINDEX_PATTERN: file name glob
//   - FQINDEX_WORKERS: worker pool size (default 10)
//   - FQINDEX_BLACKLIST: comma-separated directories to skip
//   - FQINDEX_INTERVAL, FQINDEX_WINDOW: polling interval and staleness window
//   - METRICS_ENABLED, METRICS_PORT: daemon HTTP endpoints
//   - LOG_LEVEL, DEBUG: log verbosity
//
// # Exit Codes
//
// 0 on success. 1 on a configuration error, which is reported as a single
// line before any scanning or querying starts, and on a failed forced
// refresh, create or query.
package main
