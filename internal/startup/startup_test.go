package startup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestParseJobType(t *testing.T) {
	tests := []struct {
		input   string
		want    JobType
		wantErr bool
	}{
		{"", JobQuery, false},
		{"q", JobQuery, false},
		{"C", JobCreate, false},
		{"u", JobUpdate, false},
		{"s", JobSummary, false},
		{"x", "", true},
		{"create", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseJobType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlacklist(t *testing.T) {
	bl, err := NewBlacklist("/share/ngs/Runs, /share/ngs/tmp/", "", "/share/ngs/old")
	require.NoError(t, err)

	assert.True(t, bl.Contains("/share/ngs/Runs"))
	assert.True(t, bl.Contains("/share/ngs/Runs/"))
	assert.True(t, bl.Contains("/share/ngs/tmp"))
	assert.True(t, bl.Contains("/share/ngs/old"))
	assert.False(t, bl.Contains("/share/ngs/Runs/sub"))
	assert.False(t, bl.Contains("/share/ngs"))
	assert.Equal(t, []string{"/share/ngs/Runs", "/share/ngs/old", "/share/ngs/tmp"}, bl.Paths())

	var empty Blacklist
	assert.False(t, empty.Contains("/anything"))
}

// fixture lays out a root directory, a database file and a manifest.
type fixture struct {
	root     string
	db       string
	manifest string
	out      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		root:     filepath.Join(base, "ngs"),
		db:       filepath.Join(base, "db", "index.json"),
		manifest: filepath.Join(base, "samples.tsv"),
		out:      filepath.Join(base, "reports"),
	}
	require.NoError(t, os.MkdirAll(f.root, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.db), 0o755))
	require.NoError(t, os.WriteFile(f.db, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(f.manifest, []byte("SampleName\tFlowCell\nS1\tFC001\n"), 0o644))
	return f
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"FQINDEX_DATABASE", "FQINDEX_ROOT", "FQINDEX_PATTERN", "FQINDEX_BLACKLIST",
		"FQINDEX_WORKERS", "FQINDEX_INTERVAL", "FQINDEX_WINDOW", "METRICS_ENABLED", "METRICS_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestResolveQuery(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)

	cfg, err := Resolve(Options{
		JobType:     "q",
		Database:    f.db,
		Manifest:    f.manifest,
		OutDir:      f.out,
		LibPatterns: "R1",
	})
	require.NoError(t, err)

	assert.Equal(t, JobQuery, cfg.JobType)
	assert.Equal(t, f.db, cfg.DatabasePath)
	assert.Equal(t, f.manifest, cfg.ManifestPath)
	assert.Equal(t, "R1", cfg.LibPatterns)
	assert.DirExists(t, f.out, "output directory should be created")
}

func TestResolveQueryErrors(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)

	tests := []struct {
		name  string
		opts  Options
		cause error
	}{
		{
			name:  "missing sample list",
			opts:  Options{JobType: "q", Database: f.db},
			cause: ErrMissing,
		},
		{
			name:  "sample list does not exist",
			opts:  Options{JobType: "q", Database: f.db, Manifest: filepath.Join(f.out, "nope.tsv")},
			cause: ErrInvalid,
		},
		{
			name:  "database does not exist",
			opts:  Options{JobType: "q", Database: f.db + ".missing", Manifest: f.manifest, OutDir: f.out},
			cause: ErrInvalid,
		},
		{
			name:  "database is a directory",
			opts:  Options{JobType: "q", Database: filepath.Dir(f.db), Manifest: f.manifest, OutDir: f.out},
			cause: ErrNotFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.opts)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.True(t, errors.Is(err, tt.cause), "got %v", err)
		})
	}
}

func TestResolveQueryMissingDatabaseCreatesNothing(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "new-reports")

	_, err := Resolve(Options{
		JobType:  "q",
		Database: f.db + ".missing",
		Manifest: f.manifest,
		OutDir:   out,
	})

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.NoDirExists(t, out, "output directory must not be created for a failed query")
}

func TestResolveCreate(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)
	newDB := filepath.Join(filepath.Dir(f.db), "nested", "fresh.json")

	cfg, err := Resolve(Options{JobType: "c", Database: newDB, Root: f.root, Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, JobCreate, cfg.JobType)
	assert.Equal(t, f.root, cfg.Root)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, DefaultFilePattern, cfg.FilePattern)
	assert.DirExists(t, filepath.Dir(newDB))
}

func TestResolveInvalidRoot(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)

	_, err := Resolve(Options{JobType: "c", Database: f.db, Root: filepath.Join(f.root, "missing")})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = Resolve(Options{JobType: "u", Database: f.db, Root: f.manifest})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestResolveUpdateUsesEnvironment(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)
	t.Setenv("FQINDEX_DATABASE", f.db)
	t.Setenv("FQINDEX_ROOT", f.root)
	t.Setenv("FQINDEX_INTERVAL", "15m")
	t.Setenv("FQINDEX_WINDOW", "10h")
	t.Setenv("FQINDEX_BLACKLIST", filepath.Join(f.root, "Runs"))
	t.Setenv("FQINDEX_WORKERS", "7")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Resolve(Options{JobType: "u", Blacklist: []string{filepath.Join(f.root, "tmp")}})
	require.NoError(t, err)

	assert.Equal(t, f.db, cfg.DatabasePath)
	assert.Equal(t, f.root, cfg.Root)
	assert.Equal(t, 15*time.Minute, cfg.PollInterval)
	assert.Equal(t, 10*time.Hour, cfg.StalenessWindow)
	assert.Equal(t, 7, cfg.Workers)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.Blacklist.Contains(filepath.Join(f.root, "Runs")))
	assert.True(t, cfg.Blacklist.Contains(filepath.Join(f.root, "tmp")))
}

func TestResolveFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)
	t.Setenv("FQINDEX_INTERVAL", "15m")

	cfg, err := Resolve(Options{JobType: "u", Database: f.db, Root: f.root, Interval: time.Minute, Window: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.StalenessWindow)
}

func TestResolveRejectsBadValues(t *testing.T) {
	clearEnv(t)
	f := newFixture(t)

	_, err := Resolve(Options{JobType: "u", Database: f.db, Root: f.root, FilePattern: "[bad"})
	assert.True(t, errors.Is(err, ErrInvalid), "bad glob: %v", err)

	t.Setenv("FQINDEX_WINDOW", "soon")
	_, err = Resolve(Options{JobType: "u", Database: f.db, Root: f.root})
	assert.True(t, errors.Is(err, ErrInvalid), "bad duration: %v", err)

	_, err = Resolve(Options{JobType: "z"})
	assert.True(t, IsConfigError(err))
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "database", Value: "/x.json", Err: ErrNotWritable}
	assert.Equal(t, "database /x.json: not writable by the current user", err.Error())

	err = &ConfigError{Field: "sample list", Err: ErrMissing}
	assert.Equal(t, "sample list: not provided", err.Error())
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDirectory(dir, "test"))
	assert.DirExists(t, dir)
	require.NoError(t, ensureDirectory(dir, "test"))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.ErrorIs(t, ensureDirectory(file, "test"), ErrNotDirectory)
}
