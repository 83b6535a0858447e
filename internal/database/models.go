package database

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SampleName derives the sample key of a library file: the first
// "_"-delimited token of its base name. A base name without "_" is its own
// sample name.
func SampleName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), "_")
	return name
}

// Index maps sample names to the set of library paths recorded for them.
// A sample never maps to an empty set; removing its last path removes the
// sample. The zero value is not usable; use NewIndex.
type Index struct {
	samples map[string]map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{samples: make(map[string]map[string]struct{})}
}

// BuildIndex constructs an index from scratch, keying each path by its
// SampleName.
func BuildIndex(paths []string) *Index {
	idx := NewIndex()
	for _, p := range paths {
		idx.Add(p)
	}
	return idx
}

// Add records path under its derived sample name. It reports whether the
// index changed.
func (idx *Index) Add(path string) bool {
	return idx.AddPath(SampleName(path), path)
}

// AddPath records path under an explicit sample key.
func (idx *Index) AddPath(sample, path string) bool {
	set, ok := idx.samples[sample]
	if !ok {
		set = make(map[string]struct{})
		idx.samples[sample] = set
	}
	if _, exists := set[path]; exists {
		return false
	}
	set[path] = struct{}{}
	return true
}

// Remove deletes path from sample, dropping the sample once its set is
// empty. It reports whether the index changed.
func (idx *Index) Remove(sample, path string) bool {
	set, ok := idx.samples[sample]
	if !ok {
		return false
	}
	if _, exists := set[path]; !exists {
		return false
	}
	delete(set, path)
	if len(set) == 0 {
		delete(idx.samples, sample)
	}
	return true
}

// Has reports whether path is recorded for sample.
func (idx *Index) Has(sample, path string) bool {
	_, ok := idx.samples[sample][path]
	return ok
}

// HasSample reports whether sample has at least one recorded path.
func (idx *Index) HasSample(sample string) bool {
	_, ok := idx.samples[sample]
	return ok
}

// Paths returns the sorted library paths of sample, or nil if the sample is
// unknown.
func (idx *Index) Paths(sample string) []string {
	set, ok := idx.samples[sample]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// Samples returns all sample names in sorted order.
func (idx *Index) Samples() []string {
	return sortedKeys(idx.samples)
}

// Len returns the number of samples.
func (idx *Index) Len() int {
	return len(idx.samples)
}

// PathCount returns the total number of recorded library paths.
func (idx *Index) PathCount() int {
	n := 0
	for _, set := range idx.samples {
		n += len(set)
	}
	return n
}

// Equal reports whether both indexes hold the same sample to path sets.
func (idx *Index) Equal(other *Index) bool {
	if idx.Len() != other.Len() {
		return false
	}
	for sample, set := range idx.samples {
		otherSet, ok := other.samples[sample]
		if !ok || len(otherSet) != len(set) {
			return false
		}
		for p := range set {
			if _, ok := otherSet[p]; !ok {
				return false
			}
		}
	}
	return true
}

// Apply inserts the added paths and deletes the removed ones.
func (idx *Index) Apply(cs ChangeSet) {
	for _, c := range cs.Added {
		idx.AddPath(c.Sample, c.Path)
	}
	for _, c := range cs.Removed {
		idx.Remove(c.Sample, c.Path)
	}
}

// MarshalJSON encodes the index as {"sample": ["path", ...]} with sorted
// arrays so that identical indexes produce identical files.
func (idx *Index) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(idx.samples))
	for sample, set := range idx.samples {
		out[sample] = sortedKeys(set)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the on-disk mapping. Duplicate paths collapse and
// empty arrays are dropped.
func (idx *Index) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("index must be a JSON object")
	}
	idx.samples = make(map[string]map[string]struct{}, len(raw))
	for sample, paths := range raw {
		for _, p := range paths {
			idx.AddPath(sample, p)
		}
	}
	return nil
}

// Change is one library path entering or leaving the index.
type Change struct {
	Sample string
	Path   string
}

// ChangeSet is the difference between the stored index and the filesystem.
type ChangeSet struct {
	Added   []Change
	Removed []Change
}

// Empty reports whether applying the set would leave the index unchanged.
func (cs ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Removed) == 0
}

// ChangeRecord is the audit entry written after a persisted cycle. It is
// never read back.
type ChangeRecord struct {
	Timestamp time.Time
	Added     []Change
	Removed   []Change
	Dirs      []string
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
