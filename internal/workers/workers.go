package workers

import (
	"os"
	"strconv"
)

const (
	// DefaultCount is the pool size used when nothing else is configured.
	// Scanning and walking are bound by network filesystem latency, not CPU,
	// so the default does not scale with GOMAXPROCS.
	DefaultCount = 10

	// MaxCount caps any configured value to keep the NFS server usable
	// for everyone else.
	MaxCount = 256

	// EnvOverride names the environment variable consulted when no explicit
	// count is requested.
	EnvOverride = "FQINDEX_WORKERS"
)

// Resolve returns the worker pool size to use.
//
// Precedence: an explicit positive request (the --thread flag), then a
// positive FQINDEX_WORKERS value, then DefaultCount. The result is always in
// [1, MaxCount].
func Resolve(requested int) int {
	count := DefaultCount

	if requested > 0 {
		count = requested
	} else if override := os.Getenv(EnvOverride); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			count = n
		}
	}

	if count > MaxCount {
		count = MaxCount
	}
	return count
}
