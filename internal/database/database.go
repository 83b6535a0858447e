package database

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// ExistsFunc reports whether a recorded library path is still on disk. It
// returns (false, nil) only when the path is definitely gone.
type ExistsFunc func(path string) (bool, error)

// Options configures a Store.
type Options struct {
	// Workers bounds the concurrent existence checks during a refresh.
	Workers int
	// Retry is used by the default existence check.
	Retry filesystem.RetryConfig
	// Exists overrides the existence check; nil uses filesystem.Exists.
	Exists ExistsFunc
	// Now overrides the clock used for audit timestamps.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Exists == nil {
		retry := o.Retry
		o.Exists = func(path string) (bool, error) {
			return filesystem.Exists(path, retry)
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store owns the index file: it loads snapshots, computes and applies
// diffs, and replaces the file atomically. A Store assumes it is the only
// writer of its file.
type Store struct {
	path string
	opts Options
	logs *ChangeLog
	mu   sync.Mutex

	// Counts of the index file as last read or written, keyed by its
	// FileInfo so a replaced file is parsed again.
	statsMu   sync.Mutex
	statsInfo os.FileInfo
	stats     metrics.Stats
}

// Create initializes the index file at path with an empty mapping unless a
// file already exists there, creating the parent directory as needed.
func Create(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}

	s := newStore(path, opts)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logging.Info("Creating empty index at %s", path)
		if err := s.Save(NewIndex()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Open returns a Store for an existing index file. A missing or unparsable
// file is reported as a *StoreError.
func Open(path string, opts Options) (*Store, error) {
	s := newStore(path, opts)
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(path string, opts Options) *Store {
	return &Store{
		path: path,
		opts: opts.withDefaults(),
		logs: NewChangeLog(path),
	}
}

// Path returns the authoritative index file path.
func (s *Store) Path() string {
	return s.path
}

// Logs returns the audit trail of this store.
func (s *Store) Logs() *ChangeLog {
	return s.logs
}

// Load reads a fresh snapshot of the index. Readers see either the state
// before or after a concurrent Save, never a mixture, because Save replaces
// the file with a rename.
func (s *Store) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StoreError{Path: s.path, Err: ErrStoreMissing}
	}
	if err != nil {
		return nil, &StoreError{Path: s.path, Err: err}
	}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, &StoreError{Path: s.path, Err: fmt.Errorf("%w: not a JSON object", ErrStoreInvalid)}
	}

	idx := NewIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, &StoreError{Path: s.path, Err: fmt.Errorf("%w: %v", ErrStoreInvalid, err)}
	}
	return idx, nil
}

// Save writes idx to a temporary file next to the index, syncs it, and
// renames it over the authoritative file. On any failure the authoritative
// file is untouched and the temporary file is removed.
func (s *Store) Save(idx *Index) (err error) {
	start := time.Now()
	defer func() {
		metrics.IndexPersistDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.IndexPersistTotal.WithLabelValues("error").Inc()
			return
		}
		metrics.IndexPersistTotal.WithLabelValues("success").Inc()
		metrics.IndexSamples.Set(float64(idx.Len()))
		metrics.IndexPaths.Set(float64(idx.PathCount()))
	}()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &PersistError{Op: "create temp", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return &PersistError{Op: "chmod", Path: tmpName, Err: err}
	}

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := json.NewEncoder(buf).Encode(idx); err != nil {
		return &PersistError{Op: "encode", Path: tmpName, Err: err}
	}
	if err := buf.Flush(); err != nil {
		return &PersistError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &PersistError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &PersistError{Op: "rename", Path: s.path, Err: err}
	}
	success = true

	// Best-effort: fsync the directory so the rename is durable
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	if info, err := os.Stat(s.path); err == nil {
		s.cacheStats(info, metrics.Stats{Samples: idx.Len(), Paths: idx.PathCount()})
	}

	logging.Debug("Persisted index %s: %d samples, %d paths", s.path, idx.Len(), idx.PathCount())
	return nil
}

// Build replaces the index with one constructed from files, persists it and
// rewrites the build listings.
func (s *Store) Build(files, dirs []string) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := BuildIndex(storablePaths(files))
	if err := s.Save(idx); err != nil {
		return nil, err
	}

	rec := ChangeRecord{Timestamp: s.opts.Now(), Dirs: dirs}
	for _, sample := range idx.Samples() {
		for _, p := range idx.Paths(sample) {
			rec.Added = append(rec.Added, Change{Sample: sample, Path: p})
		}
	}
	if err := s.logs.WriteBuild(rec); err != nil {
		// The index is already persisted; the listing is audit only
		logging.Warn("Failed to write build listing: %v", err)
	}

	metrics.IndexPathsChanged.WithLabelValues("added").Add(float64(len(rec.Added)))
	logging.Info("Built index with %d samples and %d libraries", idx.Len(), idx.PathCount())
	return idx, nil
}

// Refresh loads the index, diffs it against files and the filesystem,
// applies the difference and persists it, all under the store lock. The
// index file and logs are only written when the change set is non-empty.
// files may be a subset of all library files; removals are decided by
// probing every recorded path, not by absence from files. onPersist, if
// non-nil, is called right before a non-empty change set is written.
func (s *Store) Refresh(ctx context.Context, files, dirs []string, onPersist func()) (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.Load()
	if err != nil {
		return ChangeSet{}, err
	}

	cs, err := Diff(ctx, idx, files, s.opts.Exists, s.opts.Workers)
	if err != nil {
		return ChangeSet{}, err
	}
	if cs.Empty() {
		logging.Debug("Index %s is up to date", s.path)
		return cs, nil
	}

	if onPersist != nil {
		onPersist()
	}
	idx.Apply(cs)
	if err := s.Save(idx); err != nil {
		return ChangeSet{}, err
	}

	rec := ChangeRecord{
		Timestamp: s.opts.Now(),
		Added:     cs.Added,
		Removed:   cs.Removed,
		Dirs:      dirs,
	}
	if err := s.logs.AppendRefresh(rec); err != nil {
		logging.Warn("Failed to append change logs: %v", err)
	}

	metrics.IndexPathsChanged.WithLabelValues("added").Add(float64(len(cs.Added)))
	metrics.IndexPathsChanged.WithLabelValues("removed").Add(float64(len(cs.Removed)))
	logging.Info("Index updated: %d added, %d removed (%d samples, %d libraries)",
		len(cs.Added), len(cs.Removed), idx.Len(), idx.PathCount())
	return cs, nil
}

// GetStats implements metrics.StatsProvider. The index is only parsed
// again when the file on disk has been replaced or modified since the
// counts were taken, so frequent health checks cost one stat.
func (s *Store) GetStats() (metrics.Stats, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return metrics.Stats{}, &StoreError{Path: s.path, Err: ErrStoreMissing}
	}
	if err != nil {
		return metrics.Stats{}, &StoreError{Path: s.path, Err: err}
	}

	s.statsMu.Lock()
	if unchanged(s.statsInfo, info) {
		stats := s.stats
		s.statsMu.Unlock()
		return stats, nil
	}
	s.statsMu.Unlock()

	idx, err := s.Load()
	if err != nil {
		return metrics.Stats{}, err
	}
	stats := metrics.Stats{Samples: idx.Len(), Paths: idx.PathCount()}
	s.cacheStats(info, stats)
	return stats, nil
}

func (s *Store) cacheStats(info os.FileInfo, stats metrics.Stats) {
	s.statsMu.Lock()
	s.statsInfo = info
	s.stats = stats
	s.statsMu.Unlock()
}

func unchanged(prev, cur os.FileInfo) bool {
	return prev != nil &&
		os.SameFile(prev, cur) &&
		prev.Size() == cur.Size() &&
		prev.ModTime().Equal(cur.ModTime())
}

// storablePaths drops paths the JSON index cannot hold byte for byte.
// encoding/json replaces invalid UTF-8 with U+FFFD, so such a path would be
// stored under a name that does not exist on disk.
func storablePaths(files []string) []string {
	out := files[:0:0]
	for _, p := range files {
		if !utf8.ValidString(p) {
			logging.Warn("Skipping library path that is not valid UTF-8: %q", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Diff computes the change set between idx and the filesystem.
//
// Added holds every path in files not yet recorded for its sample. Removed
// holds every recorded path that exists reports as gone, checked on up to
// workers goroutines. An exists error keeps the path. Paths present in files
// are never removed. The only error returned is ctx's.
func Diff(ctx context.Context, idx *Index, files []string, exists ExistsFunc, workers int) (ChangeSet, error) {
	var cs ChangeSet

	seen := make(map[string]struct{}, len(files))
	for _, p := range storablePaths(files) {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		sample := SampleName(p)
		if !idx.Has(sample, p) {
			cs.Added = append(cs.Added, Change{Sample: sample, Path: p})
		}
	}

	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		removed []Change
	)
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, sample := range idx.Samples() {
		for _, p := range idx.Paths(sample) {
			if ctx.Err() != nil {
				break
			}
			if _, ok := seen[p]; ok {
				continue
			}
			g.Go(func() error {
				ok, err := exists(p)
				if err != nil {
					logging.Debug("Keeping %s, existence check failed: %v", p, err)
					return nil
				}
				if !ok {
					mu.Lock()
					removed = append(removed, Change{Sample: sample, Path: p})
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return ChangeSet{}, err
	}

	sort.Slice(removed, func(i, j int) bool {
		if removed[i].Sample != removed[j].Sample {
			return removed[i].Sample < removed[j].Sample
		}
		return removed[i].Path < removed[j].Path
	})
	cs.Removed = removed
	return cs, nil
}
