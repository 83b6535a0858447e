package query

import (
	"fqindex/internal/database"
	"fqindex/internal/logging"
)

// Status is the outcome of looking up one manifest sample.
type Status string

const (
	StatusMatched         Status = "matched"
	StatusPatternMismatch Status = "pattern_mismatch"
	StatusNotFound        Status = "not_found"
)

// Result is the lookup outcome of one manifest sample. Matches is empty
// unless Status is StatusMatched.
type Result struct {
	Sample  string
	Matches []string
	Status  Status
}

// Engine matches manifests against an index snapshot.
type Engine struct {
	base []Pattern
}

// NewEngine creates an engine applying base to every sample.
func NewEngine(base []Pattern) *Engine {
	return &Engine{base: base}
}

// Run looks up every manifest sample in idx. A library matches when it
// satisfies all base patterns and contains every flow cell listed for its
// sample. Results follow manifest order. idx is not modified.
func (e *Engine) Run(idx *database.Index, m *Manifest) []Result {
	results := make([]Result, 0, m.Len())

	for _, sample := range m.Samples() {
		result := Result{Sample: sample}

		if !idx.HasSample(sample) {
			result.Status = StatusNotFound
			results = append(results, result)
			continue
		}

		patterns := e.effective(m.FlowCells(sample))
		for _, path := range idx.Paths(sample) {
			if matchAll(path, patterns) {
				result.Matches = append(result.Matches, path)
			}
		}

		if len(result.Matches) > 0 {
			result.Status = StatusMatched
		} else {
			result.Status = StatusPatternMismatch
		}
		results = append(results, result)
	}

	logging.Debug("Queried %d samples with %d base patterns", len(results), len(e.base))
	return results
}

// effective returns the base patterns followed by one pattern per flow cell.
func (e *Engine) effective(flowCells []string) []Pattern {
	patterns := make([]Pattern, 0, len(e.base)+len(flowCells))
	patterns = append(patterns, e.base...)
	for _, fc := range flowCells {
		patterns = append(patterns, FlowCellPattern(fc))
	}
	return patterns
}
