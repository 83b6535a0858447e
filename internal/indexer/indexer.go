package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fqindex/internal/database"
	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"
	"fqindex/internal/startup"
)

// ErrCycleInProgress is returned when a cycle is requested while another
// one is still running in this process.
var ErrCycleInProgress = errors.New("index cycle already in progress")

// State is the phase of the current index cycle.
type State string

const (
	StateIdle    State = "IDLE"
	StateScan    State = "SCAN"
	StateDiff    State = "DIFF"
	StatePersist State = "PERSIST"
)

// Config configures an Indexer.
type Config struct {
	Root      string
	Pattern   string
	Blacklist startup.Blacklist
	Workers   int
	Retry     filesystem.RetryConfig
}

// ConfigFrom extracts the indexer settings from the resolved application
// configuration.
func ConfigFrom(cfg *startup.Config) Config {
	return Config{
		Root:      cfg.Root,
		Pattern:   cfg.FilePattern,
		Blacklist: cfg.Blacklist,
		Workers:   cfg.Workers,
		Retry:     cfg.Retry,
	}
}

// Indexer orchestrates scan, walk, diff and persist for build and refresh
// cycles against one Store.
type Indexer struct {
	config Config
	store  *database.Store

	scanner *Scanner
	walker  *ParallelWalker

	mu          sync.Mutex
	state       State
	running     bool
	startTime   time.Time
	cycles      int64
	lastRun     time.Time
	lastKind    string
	lastError   error
	lastAdded   int
	lastRemoved int
}

// Status contains health information about the indexer.
type Status struct {
	State       State     `json:"state"`
	Running     bool      `json:"running"`
	StartTime   time.Time `json:"startTime"`
	Uptime      string    `json:"uptime"`
	Cycles      int64     `json:"cycles"`
	LastRun     time.Time `json:"lastRun,omitempty"`
	LastKind    string    `json:"lastKind,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	LastAdded   int       `json:"lastAdded"`
	LastRemoved int       `json:"lastRemoved"`
	Database    string    `json:"database"`
}

// New creates a new Indexer instance.
func New(config Config, store *database.Store) *Indexer {
	return &Indexer{
		config: config,
		store:  store,
		scanner: NewScanner(ScannerConfig{
			Root:       config.Root,
			Pattern:    config.Pattern,
			Blacklist:  config.Blacklist,
			NumWorkers: config.Workers,
			Retry:      config.Retry,
		}),
		walker: NewParallelWalker(ParallelWalkerConfig{
			NumWorkers: config.Workers,
			Pattern:    config.Pattern,
			Blacklist:  config.Blacklist,
			Retry:      config.Retry,
		}),
		state:     StateIdle,
		startTime: time.Now(),
	}
}

// Build scans the whole tree and replaces the index with what it finds.
func (idx *Indexer) Build(ctx context.Context) error {
	if !idx.tryStartCycle() {
		return ErrCycleInProgress
	}

	start := time.Now()
	logging.Info("Starting index build of %s", idx.config.Root)

	dirs := idx.scanner.Scan(ctx, time.Time{})
	files, stats := idx.walker.Walk(ctx, dirs)
	if err := interrupted(ctx, stats); err != nil {
		idx.finishCycle("build", start, 0, 0, err)
		return err
	}

	idx.setState(StatePersist)
	built, err := idx.store.Build(files, dirs)
	if err != nil {
		idx.finishCycle("build", start, 0, 0, err)
		return fmt.Errorf("build index: %w", err)
	}

	idx.finishCycle("build", start, built.PathCount(), 0, nil)
	return nil
}

// Refresh rescans the tree and brings the index up to date. A non-zero
// since restricts the scan to subtrees modified after it; removals are
// still detected across the whole index.
func (idx *Indexer) Refresh(ctx context.Context, since time.Time) error {
	kind := "refresh"
	if since.IsZero() {
		kind = "force"
	}

	if !idx.tryStartCycle() {
		return ErrCycleInProgress
	}

	start := time.Now()
	if since.IsZero() {
		logging.Info("Starting full refresh of %s", idx.config.Root)
	} else {
		logging.Info("Starting refresh of %s (changes since %s)", idx.config.Root, since.Format(time.DateTime))
	}

	dirs := idx.scanner.Scan(ctx, since)
	files, stats := idx.walker.Walk(ctx, dirs)
	if err := interrupted(ctx, stats); err != nil {
		idx.finishCycle(kind, start, 0, 0, err)
		return err
	}

	idx.setState(StateDiff)
	cs, err := idx.store.Refresh(ctx, files, dirs, func() {
		idx.setState(StatePersist)
	})
	idx.finishCycle(kind, start, len(cs.Added), len(cs.Removed), err)
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	return nil
}

// Force runs one full, unfiltered refresh.
func (idx *Indexer) Force(ctx context.Context) error {
	return idx.Refresh(ctx, time.Time{})
}

// interrupted reports why a walk ended early, if it did. A partial file
// list must never reach the store.
func interrupted(ctx context.Context, stats WalkStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.Interrupted {
		return context.Canceled
	}
	return nil
}

// Stop cancels an in-flight walk.
func (idx *Indexer) Stop() {
	idx.walker.Stop()
}

// Status returns the current cycle state and the outcome of the last one.
func (idx *Indexer) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	status := Status{
		State:       idx.state,
		Running:     idx.running,
		StartTime:   idx.startTime,
		Uptime:      time.Since(idx.startTime).Round(time.Second).String(),
		Cycles:      idx.cycles,
		LastRun:     idx.lastRun,
		LastKind:    idx.lastKind,
		LastAdded:   idx.lastAdded,
		LastRemoved: idx.lastRemoved,
		Database:    idx.store.Path(),
	}
	if idx.lastError != nil {
		status.LastError = idx.lastError.Error()
	}
	return status
}

// IsRunning returns whether a cycle is currently in progress.
func (idx *Indexer) IsRunning() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.running
}

// tryStartCycle attempts to start a cycle, returns false if one is already in progress.
func (idx *Indexer) tryStartCycle() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.running {
		return false
	}
	idx.running = true
	idx.state = StateScan
	metrics.IndexerIsRunning.Set(1)
	return true
}

func (idx *Indexer) setState(state State) {
	idx.mu.Lock()
	idx.state = state
	idx.mu.Unlock()
}

// finishCycle records the outcome of a cycle and returns to IDLE.
func (idx *Indexer) finishCycle(kind string, start time.Time, added, removed int, err error) {
	duration := time.Since(start)

	idx.mu.Lock()
	idx.running = false
	idx.state = StateIdle
	idx.cycles++
	idx.lastRun = time.Now()
	idx.lastKind = kind
	idx.lastError = err
	idx.lastAdded = added
	idx.lastRemoved = removed
	idx.mu.Unlock()

	status := "success"
	switch {
	case err != nil:
		status = "error"
		logging.Error("Index %s failed after %v: %v", kind, duration, err)
	case added == 0 && removed == 0:
		status = "noop"
		logging.Info("Index %s complete in %v: no changes", kind, duration)
	default:
		logging.Info("Index %s complete in %v: %d added, %d removed", kind, duration, added, removed)
	}

	metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.WithLabelValues(kind, status).Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
}
