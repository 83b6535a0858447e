package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fqindex/internal/logging"
	"fqindex/internal/query"
)

type share struct {
	root string
	db   string
	out  string
}

func newShare(t *testing.T) share {
	t.Helper()
	t.Setenv("FQINDEX_BLACKLIST", "")
	t.Setenv("FQINDEX_WORKERS", "")
	t.Setenv("METRICS_ENABLED", "false")

	base := t.TempDir()
	s := share{
		root: filepath.Join(base, "ngs"),
		db:   filepath.Join(base, "db", "fqindex.json"),
		out:  filepath.Join(base, "reports"),
	}
	require.NoError(t, os.MkdirAll(s.root, 0o755))
	return s
}

func (s share) library(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(s.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("@r1\nACGT\n+\nIIII\n"), 0o644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunRejectsUnknownJobType(t *testing.T) {
	newShare(t)

	code, _, stderr := run(t, "-t", "x")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "jobtype")
	assert.Equal(t, 1, strings.Count(stderr, "\n"), "expected a single diagnostic line")
}

func TestRunRejectsPositionalArgs(t *testing.T) {
	newShare(t)

	code, _, _ := run(t, "extra")

	assert.Equal(t, 1, code)
}

func TestRunCreateSummaryQuery(t *testing.T) {
	s := newShare(t)
	s1 := s.library(t, "batch1/S1/FC001/S1_FC001_L001.clean.fastq.gz")
	s.library(t, "batch1/S1/FC002/S1_FC002_L001.clean.fastq.gz")
	s.library(t, "batch2/S2/FC003/S2_FC003_L001.clean.fastq.gz")
	s.library(t, "batch2/S2/FC003/S2_FC003_L001.bam")

	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root, "-p", "2")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := run(t, "-t", "s", "-d", s.db)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Samples:   2")
	assert.Contains(t, stdout, "Libraries: 3")

	manifest := filepath.Join(t.TempDir(), "samples.tsv")
	require.NoError(t, os.WriteFile(manifest,
		[]byte("sample\tflowcell\nS1\tFC001\nS2\nS9\tFC009\nS2\tFC404\n"), 0o644))

	code, _, stderr = run(t, "-t", "q", "-d", s.db, "-i", manifest, "-o", s.out)
	require.Equal(t, 0, code, stderr)

	succ, err := os.ReadFile(filepath.Join(s.out, query.SuccessReport))
	require.NoError(t, err)
	fail, err := os.ReadFile(filepath.Join(s.out, query.FailureReport))
	require.NoError(t, err)

	assert.Equal(t, "S1\t"+s1+"\n", string(succ))
	assert.Equal(t,
		"S2 not found in "+s.db+" to match your pattern!\n"+
			"S9 not found in "+s.db+"!\n",
		string(fail))
}

func TestRunQueryLibraryPatterns(t *testing.T) {
	s := newShare(t)
	s.library(t, "batch1/S1/FC001/S1_FC001_L001.clean.fastq.gz")
	l2 := s.library(t, "batch1/S1/FC001/S1_FC001_L002.clean.fastq.gz")

	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	manifest := filepath.Join(t.TempDir(), "samples.tsv")
	require.NoError(t, os.WriteFile(manifest, []byte("sample\nS1\n"), 0o644))

	code, _, stderr = run(t, "-d", s.db, "-i", manifest, "-o", s.out, "-g", "L002,FC001")
	require.Equal(t, 0, code, stderr)

	succ, err := os.ReadFile(filepath.Join(s.out, query.SuccessReport))
	require.NoError(t, err)
	assert.Equal(t, "S1\t"+l2+"\n", string(succ))
}

func TestRunQueryInvalidPattern(t *testing.T) {
	s := newShare(t)
	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	manifest := filepath.Join(t.TempDir(), "samples.tsv")
	require.NoError(t, os.WriteFile(manifest, []byte("sample\nS1\n"), 0o644))

	code, _, stderr = run(t, "-d", s.db, "-i", manifest, "-o", s.out, "-g", "L00(")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "libpatterns")
	assert.NoFileExists(t, filepath.Join(s.out, query.SuccessReport))
}

func TestRunInvalidDatabaseIsConfigError(t *testing.T) {
	s := newShare(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.db), 0o755))
	require.NoError(t, os.WriteFile(s.db, []byte("[1, 2, 3]"), 0o644))

	code, _, stderr := run(t, "-t", "s", "-d", s.db)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "database")
	assert.Contains(t, stderr, "not a valid sample mapping")
}

func TestRunConfigErrorsLogNothing(t *testing.T) {
	s := newShare(t)
	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	manifest := filepath.Join(t.TempDir(), "samples.tsv")
	require.NoError(t, os.WriteFile(manifest, []byte("sample\nS1\n"), 0o644))

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("not json"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid library pattern", []string{"-d", s.db, "-i", manifest, "-o", s.out, "-g", "L00("}, "libpatterns"},
		{"unparsable database for query", []string{"-d", broken, "-i", manifest, "-o", s.out}, "database"},
		{"unparsable database for update", []string{"-t", "u", "-c", "-d", broken, "-f", s.root}, "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			previous := logging.GetLevel()
			logging.SetOutput(&logs)
			logging.SetLevel(logging.LevelInfo)
			t.Cleanup(func() {
				logging.SetOutput(os.Stderr)
				logging.SetLevel(previous)
			})

			code, _, stderr := run(t, tt.args...)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
			assert.Equal(t, 1, strings.Count(stderr, "\n"))
			assert.Empty(t, logs.String(), "nothing may be logged before a configuration error")
		})
	}
}

func TestRunQueryMissingDatabaseCreatesNoOutdir(t *testing.T) {
	s := newShare(t)
	manifest := filepath.Join(t.TempDir(), "samples.tsv")
	require.NoError(t, os.WriteFile(manifest, []byte("sample\nS1\n"), 0o644))

	code, _, stderr := run(t, "-d", s.db, "-i", manifest, "-o", s.out)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "database")
	assert.NoDirExists(t, s.out)
}

func TestRunQueryMissingManifest(t *testing.T) {
	s := newShare(t)
	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	code, _, stderr = run(t, "-d", s.db, "-o", s.out)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "sample list")
}

func TestRunForcedUpdate(t *testing.T) {
	s := newShare(t)
	old := s.library(t, "batch1/S1/FC001/S1_FC001_L001.clean.fastq.gz")

	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	require.NoError(t, os.Remove(old))
	s.library(t, "batch3/S3/FC007/S3_FC007_L001.clean.fastq.gz")

	code, _, stderr = run(t, "-t", "u", "-c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := run(t, "-t", "s", "-d", s.db)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Samples:   1")
	assert.Contains(t, stdout, "Libraries: 1")

	assert.FileExists(t, s.db+".del.log")
	assert.FileExists(t, s.db+".upd.log")
}

func TestRunUpdateRequiresExistingDatabase(t *testing.T) {
	s := newShare(t)

	code, _, stderr := run(t, "-t", "u", "-c", "-d", s.db, "-f", s.root)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "database")
}

func TestRunDaemonStopsOnCancel(t *testing.T) {
	s := newShare(t)
	code, _, stderr := run(t, "-t", "c", "-d", s.db, "-f", s.root)
	require.Equal(t, 0, code, stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var stdout, errBuf bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- Run(ctx, []string{"-t", "u", "-d", s.db, "-f", s.root, "--interval", "1h"}, &stdout, &errBuf)
	}()

	select {
	case code := <-done:
		assert.Equal(t, 0, code, errBuf.String())
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}
