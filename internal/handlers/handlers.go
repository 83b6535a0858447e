package handlers

import (
	"fqindex/internal/indexer"
	"fqindex/internal/metrics"
)

// StatusProvider reports the state of index cycles.
type StatusProvider interface {
	Status() indexer.Status
}

// Handlers serves the daemon's operational endpoints.
type Handlers struct {
	indexer StatusProvider
	stats   metrics.StatsProvider
}

// New creates the handlers for an indexer and the store it writes.
func New(idx StatusProvider, stats metrics.StatsProvider) *Handlers {
	return &Handlers{
		indexer: idx,
		stats:   stats,
	}
}
