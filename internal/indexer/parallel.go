package indexer

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"
	"fqindex/internal/startup"

	"golang.org/x/sync/errgroup"
)

// errInvalidUTF8 marks a matching file whose path the index cannot store.
var errInvalidUTF8 = errors.New("path is not valid UTF-8")

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of directories walked at once
	NumWorkers int
	// Pattern is a filepath.Match glob applied to base names
	Pattern string
	// Blacklist lists directories never descended into
	Blacklist startup.Blacklist
	// Retry applies to the initial stat of each input directory
	Retry filesystem.RetryConfig
}

// WalkStats summarizes one walk.
type WalkStats struct {
	Dirs   int64
	Files  int64
	Errors int64
	// Interrupted is set when the walk was cancelled before every
	// directory was fully visited.
	Interrupted bool
}

// ParallelWalker walks candidate directories in parallel
type ParallelWalker struct {
	config ParallelWalkerConfig

	mu     sync.Mutex
	cancel context.CancelFunc

	// Statistics
	dirsWalked  atomic.Int64
	filesFound  atomic.Int64
	errorsCount atomic.Int64
}

// NewParallelWalker creates a new parallel directory walker
func NewParallelWalker(config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &ParallelWalker{config: config}
}

// Walk recursively collects matching files under every dir. Each dir is
// one task; a failure inside one never aborts the others. The result is
// deduplicated and sorted.
func (pw *ParallelWalker) Walk(ctx context.Context, dirs []string) ([]string, WalkStats) {
	ctx, cancel := context.WithCancel(ctx)
	pw.mu.Lock()
	pw.cancel = cancel
	pw.mu.Unlock()
	defer cancel()

	pw.dirsWalked.Store(0)
	pw.filesFound.Store(0)
	pw.errorsCount.Store(0)

	logging.Info("Starting parallel walk of %d directories with %d workers", len(dirs), pw.config.NumWorkers)
	startTime := time.Now()
	metrics.WalkerParallelWorkers.Set(float64(pw.config.NumWorkers))

	results := make([][]string, len(dirs))
	g := new(errgroup.Group)
	g.SetLimit(pw.config.NumWorkers)

	for i, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = pw.walkOne(ctx, dir)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	for _, files := range results {
		for _, f := range files {
			seen[f] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)

	stats := pw.Stats()
	stats.Interrupted = ctx.Err() != nil
	duration := time.Since(startTime)
	metrics.WalkerDuration.Observe(duration.Seconds())
	metrics.WalkerFilesFound.Add(float64(len(files)))
	logging.Info("Parallel walk complete: %d files in %d directories in %v (errors: %d)",
		len(files), stats.Dirs, duration, stats.Errors)

	return files, stats
}

// walkOne walks a single directory tree. Errors are logged and counted,
// never returned.
func (pw *ParallelWalker) walkOne(ctx context.Context, dir string) []string {
	root, err := filepath.Abs(dir)
	if err != nil {
		pw.recordError(dir, err)
		return nil
	}

	if _, err := filesystem.StatWithRetry(root, pw.config.Retry); err != nil {
		pw.recordError(root, err)
		return nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation
		if ctx.Err() != nil {
			return fs.SkipAll
		}

		if err != nil {
			pw.recordError(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil // Continue walking
		}

		if d.IsDir() {
			if pw.config.Blacklist.Contains(path) {
				logging.Debug("Skipping blacklisted directory %s", path)
				return filepath.SkipDir
			}
			pw.dirsWalked.Add(1)
			return nil
		}

		// Symlinked directories are not followed; symlinked files count
		if matchName(pw.config.Pattern, d.Name()) {
			if !utf8.ValidString(path) {
				pw.recordError(path, errInvalidUTF8)
				return nil
			}
			files = append(files, path)
			pw.filesFound.Add(1)
		}
		return nil
	})
	if err != nil {
		pw.recordError(root, err)
	}
	return files
}

func (pw *ParallelWalker) recordError(path string, err error) {
	pw.errorsCount.Add(1)
	metrics.WalkerErrors.Inc()
	logging.Warn("Error accessing path %s: %v", path, err)
}

// Stop cancels an in-flight walk
func (pw *ParallelWalker) Stop() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.cancel != nil {
		pw.cancel()
	}
}

// Stats returns current processing statistics
func (pw *ParallelWalker) Stats() WalkStats {
	return WalkStats{
		Dirs:   pw.dirsWalked.Load(),
		Files:  pw.filesFound.Load(),
		Errors: pw.errorsCount.Load(),
	}
}
