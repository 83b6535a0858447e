package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scanner metrics
var (
	ScannerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_scanner_runs_total",
			Help: "Total number of tree scans by mode",
		},
		[]string{"mode"}, // "full", "staleness"
	)

	ScannerCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_scanner_candidate_directories",
			Help: "Number of candidate directories returned by the last scan",
		},
	)

	ScannerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fqindex_scanner_errors_total",
			Help: "Total number of directories skipped during scans because they could not be read",
		},
	)

	ScannerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fqindex_scanner_duration_seconds",
			Help:    "Tree scan duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)
)

// Walker metrics
var (
	WalkerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_walker_parallel_workers",
			Help: "Number of workers used by the parallel walker",
		},
	)

	WalkerFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fqindex_walker_files_found_total",
			Help: "Total number of matching files found by the parallel walker",
		},
	)

	WalkerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fqindex_walker_errors_total",
			Help: "Total number of entries skipped by the parallel walker because of errors",
		},
	)

	WalkerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fqindex_walker_duration_seconds",
			Help:    "Parallel walk duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		},
	)
)

// Index store and updater metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_indexer_runs_total",
			Help: "Total number of index cycles by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: "build", "refresh", "force"; status: "success", "noop", "error"
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_indexer_running",
			Help: "Whether an index cycle is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_indexer_last_run_timestamp",
			Help: "Timestamp of the last finished index cycle",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_indexer_last_run_duration_seconds",
			Help: "Duration of the last index cycle in seconds",
		},
	)

	IndexPathsChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_index_paths_changed_total",
			Help: "Total number of library paths added to or removed from the index",
		},
		[]string{"change"}, // "added", "removed"
	)

	IndexSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_index_samples",
			Help: "Number of samples in the index",
		},
	)

	IndexPaths = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_index_paths",
			Help: "Number of library paths in the index",
		},
	)

	IndexPersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_index_persist_total",
			Help: "Total number of index file writes by outcome",
		},
		[]string{"status"},
	)

	IndexPersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fqindex_index_persist_duration_seconds",
			Help:    "Index file write duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors seen",
		},
		[]string{"operation"},
	)
)

// Scheduler metrics
var (
	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fqindex_scheduler_ticks_total",
			Help: "Total number of polling ticks handled by the scheduler",
		},
	)

	SchedulerCycleFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fqindex_scheduler_cycle_failures_total",
			Help: "Total number of scheduled refresh cycles that failed",
		},
	)
)

// HTTP metrics for the daemon's operational endpoints
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fqindex_http_requests_total",
			Help: "Total number of HTTP requests served by the daemon",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fqindex_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fqindex_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fqindex_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
