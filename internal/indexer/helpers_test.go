package indexer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fqindex/internal/filesystem"
	"fqindex/internal/startup"
)

const testPattern = "*.clean.fastq.gz"

// testRetry keeps retries fast so failing-path tests do not sleep long.
var testRetry = filesystem.RetryConfig{
	MaxRetries:     1,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     time.Millisecond,
}

// writeFile creates path (and its parents) and returns it.
func writeFile(t testing.TB, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("@r1\nACGT\n+\nIIII\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// setMTime sets both access and modification time of path.
func setMTime(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func mustBlacklist(t testing.TB, entries ...string) startup.Blacklist {
	t.Helper()
	bl, err := startup.NewBlacklist(entries...)
	if err != nil {
		t.Fatalf("NewBlacklist: %v", err)
	}
	return bl
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
