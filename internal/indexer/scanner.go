package indexer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"
	"fqindex/internal/startup"

	"golang.org/x/sync/errgroup"
)

// ScannerConfig configures the tree scanner.
type ScannerConfig struct {
	// Root is the traversal root (root/batch/sample/flowcell layout).
	Root string
	// Pattern is a filepath.Match glob applied to base names.
	Pattern string
	// Blacklist lists directories never descended into.
	Blacklist startup.Blacklist
	// NumWorkers bounds the level-1 fan-out.
	NumWorkers int
	// Retry applies to every directory listing.
	Retry filesystem.RetryConfig
}

// Scanner finds the directories under Root that are likely to hold library
// files, looking at most three levels deep.
type Scanner struct {
	config ScannerConfig
}

// NewScanner creates a tree scanner.
func NewScanner(config ScannerConfig) *Scanner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &Scanner{config: config}
}

// Scan returns the sorted candidate directories. A zero since runs a full
// scan; otherwise only files and level-3 directories modified after since
// are taken into account. Unreadable directories are skipped.
func (s *Scanner) Scan(ctx context.Context, since time.Time) []string {
	mode := "full"
	if !since.IsZero() {
		mode = "staleness"
	}
	start := time.Now()
	defer func() {
		metrics.ScannerDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.ScannerRunsTotal.WithLabelValues(mode).Inc()

	level1 := s.subdirs(s.config.Root)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	record := func(dirs ...string) {
		mu.Lock()
		defer mu.Unlock()
		for _, d := range dirs {
			seen[d] = struct{}{}
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.config.NumWorkers)
	for _, l1 := range level1 {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record(s.scanLevel1(ctx, l1, since)...)
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]string, 0, len(seen))
	for d := range seen {
		candidates = append(candidates, d)
	}
	sort.Strings(candidates)

	metrics.ScannerCandidates.Set(float64(len(candidates)))
	logging.Info("%s scan of %s found %d candidate directories in %v",
		mode, s.config.Root, len(candidates), time.Since(start))
	return candidates
}

// scanLevel1 returns the candidates below one level-1 directory.
func (s *Scanner) scanLevel1(ctx context.Context, l1 string, since time.Time) []string {
	entries, ok := s.readDir(l1)
	if !ok {
		return nil
	}
	if s.hasMatch(l1, entries, since) {
		return []string{l1}
	}

	var found []string
	for _, l2 := range s.eligible(l1, entries) {
		if ctx.Err() != nil {
			return found
		}
		l2Entries, ok := s.readDir(l2)
		if !ok {
			continue
		}
		if s.hasMatch(l2, l2Entries, since) {
			found = append(found, l2)
			continue
		}
		for _, l3 := range s.eligible(l2, l2Entries) {
			if !since.IsZero() && !s.modifiedAfter(l3, since) {
				continue
			}
			found = append(found, l3)
		}
	}
	return found
}

// subdirs lists the eligible subdirectories of dir.
func (s *Scanner) subdirs(dir string) []string {
	entries, ok := s.readDir(dir)
	if !ok {
		return nil
	}
	return s.eligible(dir, entries)
}

// eligible filters entries of dir down to traversable, non-symlinked,
// non-blacklisted directories.
func (s *Scanner) eligible(dir string, entries []fs.DirEntry) []string {
	var out []string
	for _, e := range entries {
		// DirEntry type bits come from lstat, so symlinks never report IsDir
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if s.config.Blacklist.Contains(path) {
			logging.Debug("Skipping blacklisted directory %s", path)
			continue
		}
		if !s.isRealDir(path) {
			continue
		}
		if !filesystem.CanTraverse(path) {
			logging.Debug("Skipping unreadable directory %s", path)
			metrics.ScannerErrors.Inc()
			continue
		}
		out = append(out, path)
	}
	return out
}

// isRealDir confirms with a fresh lstat that path is still a directory and
// not a symlink. The listing may be stale on NFS by the time it is used.
func (s *Scanner) isRealDir(path string) bool {
	info, err := filesystem.LstatWithRetry(path, s.config.Retry)
	if err != nil {
		logging.Debug("Skipping vanished directory %s: %v", path, err)
		metrics.ScannerErrors.Inc()
		return false
	}
	return info.IsDir()
}

// hasMatch reports whether entries of dir contain a non-directory matching
// the pattern, modified after since when since is set.
func (s *Scanner) hasMatch(dir string, entries []fs.DirEntry, since time.Time) bool {
	for _, e := range entries {
		if e.IsDir() || !matchName(s.config.Pattern, e.Name()) {
			continue
		}
		if since.IsZero() || s.modifiedAfter(filepath.Join(dir, e.Name()), since) {
			return true
		}
	}
	return false
}

func (s *Scanner) modifiedAfter(path string, since time.Time) bool {
	info, err := filesystem.StatWithRetry(path, s.config.Retry)
	if err != nil {
		logging.Debug("Cannot stat %s: %v", path, err)
		return false
	}
	return info.ModTime().After(since)
}

func (s *Scanner) readDir(dir string) ([]fs.DirEntry, bool) {
	entries, err := filesystem.ReadDirWithRetry(dir, s.config.Retry)
	if err != nil {
		logging.Warn("Skipping directory %s: %v", dir, err)
		metrics.ScannerErrors.Inc()
		return nil, false
	}
	return entries, true
}

// matchName applies a glob to a base name. The pattern is validated at
// configuration time, so a match error is treated as no match.
func matchName(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
