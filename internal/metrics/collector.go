package metrics

import (
	"time"

	"fqindex/internal/logging"
)

// StatsProvider interface for collecting index stats
type StatsProvider interface {
	GetStats() (Stats, error)
}

// Stats holds the current index statistics
type Stats struct {
	Samples int
	Paths   int
}

// Collector periodically collects and updates index gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats, err := c.statsProvider.GetStats()
	if err != nil {
		logging.Warn("Failed to collect index stats: %v", err)
		return
	}

	IndexSamples.Set(float64(stats.Samples))
	IndexPaths.Set(float64(stats.Paths))

	logging.Debug("Metrics collected: samples=%d, paths=%d", stats.Samples, stats.Paths)
}
