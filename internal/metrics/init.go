package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, mode := range []string{"full", "staleness"} {
		ScannerRunsTotal.WithLabelValues(mode)
	}

	for _, kind := range []string{"build", "refresh", "force"} {
		for _, status := range []string{"success", "noop", "error"} {
			IndexerRunsTotal.WithLabelValues(kind, status)
		}
	}

	for _, change := range []string{"added", "removed"} {
		IndexPathsChanged.WithLabelValues(change)
	}

	for _, status := range []string{"success", "error"} {
		IndexPersistTotal.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "lstat", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
