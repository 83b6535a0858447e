package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/workers"
)

// Operator defaults, overridable through the environment.
const (
	DefaultDatabasePath = "/var/lib/fqindex/fqindex.json"
	DefaultRoot         = "/share/seq_dir/ngs"
	DefaultFilePattern  = "*.clean.fastq.gz"
	DefaultInterval     = time.Hour
	DefaultWindow       = 2 * time.Hour
	DefaultMetricsPort  = "9090"
)

// JobType selects what a single invocation does.
type JobType string

const (
	JobCreate  JobType = "c"
	JobUpdate  JobType = "u"
	JobQuery   JobType = "q"
	JobSummary JobType = "s"
)

// ParseJobType accepts the single-letter job codes, case-insensitively.
func ParseJobType(s string) (JobType, error) {
	switch jt := JobType(strings.ToLower(strings.TrimSpace(s))); jt {
	case "":
		return JobQuery, nil
	case JobCreate, JobUpdate, JobQuery, JobSummary:
		return jt, nil
	default:
		return "", configErr("jobtype", s,
			fmt.Errorf("%w: only c(create), u(update), q(query) or s(summary) is allowed", ErrInvalid))
	}
}

// Options carries the raw command line values. Zero values mean "not set"
// and fall back to the environment, then to the package defaults.
type Options struct {
	JobType     string
	Database    string
	Root        string
	Manifest    string
	OutDir      string
	LibPatterns string
	Force       bool
	Workers     int
	Blacklist   []string
	FilePattern string
	Interval    time.Duration
	Window      time.Duration
}

// Config holds the resolved configuration handed to every component.
type Config struct {
	JobType      JobType
	DatabasePath string
	Root         string
	ManifestPath string
	OutDir       string
	LibPatterns  string
	Force        bool
	Workers      int
	Blacklist    Blacklist
	FilePattern  string

	// PollInterval is the scheduler tick; StalenessWindow bounds which
	// subtrees a scheduled refresh rescans.
	PollInterval    time.Duration
	StalenessWindow time.Duration

	MetricsEnabled bool
	MetricsPort    string

	Retry filesystem.RetryConfig
}

// Blacklist is a set of cleaned absolute directory paths excluded from all
// traversal.
type Blacklist map[string]struct{}

// NewBlacklist builds a Blacklist from raw entries. Each entry may itself
// be a comma-separated list; empty entries are ignored.
func NewBlacklist(entries ...string) (Blacklist, error) {
	bl := make(Blacklist)
	for _, entry := range entries {
		for _, raw := range strings.Split(entry, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			abs, err := filepath.Abs(raw)
			if err != nil {
				return nil, configErr("blacklist", raw, err)
			}
			bl[abs] = struct{}{}
		}
	}
	return bl, nil
}

// Contains reports whether path is blacklisted.
func (b Blacklist) Contains(path string) bool {
	if len(b) == 0 {
		return false
	}
	_, ok := b[filepath.Clean(path)]
	return ok
}

// Paths returns the blacklisted directories in sorted order.
func (b Blacklist) Paths() []string {
	out := make([]string, 0, len(b))
	for p := range b {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve merges opts with the environment and defaults, then validates the
// result for the selected job type. Every failure is a *ConfigError.
func Resolve(opts Options) (*Config, error) {
	jobType, err := ParseJobType(opts.JobType)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		JobType:        jobType,
		DatabasePath:   firstNonEmpty(opts.Database, getEnv("FQINDEX_DATABASE", DefaultDatabasePath)),
		Root:           firstNonEmpty(opts.Root, getEnv("FQINDEX_ROOT", DefaultRoot)),
		ManifestPath:   opts.Manifest,
		OutDir:         opts.OutDir,
		LibPatterns:    opts.LibPatterns,
		Force:          opts.Force,
		Workers:        workers.Resolve(opts.Workers),
		FilePattern:    firstNonEmpty(opts.FilePattern, getEnv("FQINDEX_PATTERN", DefaultFilePattern)),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", DefaultMetricsPort),
		Retry:          filesystem.DefaultRetryConfig(),
	}

	if cfg.PollInterval, err = resolveDuration("interval", opts.Interval, "FQINDEX_INTERVAL", DefaultInterval); err != nil {
		return nil, err
	}
	if cfg.StalenessWindow, err = resolveDuration("window", opts.Window, "FQINDEX_WINDOW", DefaultWindow); err != nil {
		return nil, err
	}

	blacklistEntries := append([]string{os.Getenv("FQINDEX_BLACKLIST")}, opts.Blacklist...)
	if cfg.Blacklist, err = NewBlacklist(blacklistEntries...); err != nil {
		return nil, err
	}

	if _, err := filepath.Match(cfg.FilePattern, ""); err != nil {
		return nil, configErr("pattern", cfg.FilePattern, fmt.Errorf("%w: %v", ErrInvalid, err))
	}

	if cfg.DatabasePath, err = filepath.Abs(cfg.DatabasePath); err != nil {
		return nil, configErr("database", cfg.DatabasePath, err)
	}

	switch cfg.JobType {
	case JobQuery:
		err = cfg.validateQuery()
	case JobCreate:
		err = cfg.validateCreate()
	case JobUpdate:
		err = cfg.validateUpdate()
	case JobSummary:
		err = requireFile("database", cfg.DatabasePath)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateQuery() error {
	if c.ManifestPath == "" {
		return configErr("sample list", "", fmt.Errorf("%w for query", ErrMissing))
	}
	manifest, err := filepath.Abs(c.ManifestPath)
	if err != nil {
		return configErr("sample list", c.ManifestPath, err)
	}
	if err := requireFile("sample list", manifest); err != nil {
		return err
	}
	c.ManifestPath = manifest

	// Nothing is created on disk until every input has been checked
	if err := requireFile("database", c.DatabasePath); err != nil {
		return err
	}

	if c.OutDir == "" {
		if c.OutDir, err = os.Getwd(); err != nil {
			return configErr("outdir", "", err)
		}
	}
	if c.OutDir, err = filepath.Abs(c.OutDir); err != nil {
		return configErr("outdir", c.OutDir, err)
	}
	if err := ensureDirectory(c.OutDir, "output"); err != nil {
		return configErr("outdir", c.OutDir, err)
	}
	return nil
}

func (c *Config) validateCreate() error {
	if err := c.resolveRoot(); err != nil {
		return err
	}

	dbDir := filepath.Dir(c.DatabasePath)
	if err := ensureDirectory(dbDir, "database"); err != nil {
		return configErr("database directory", dbDir, err)
	}

	// Existing database files must be replaceable; otherwise the directory
	// must accept new files.
	target := dbDir
	if _, err := os.Stat(c.DatabasePath); err == nil {
		target = c.DatabasePath
	}
	if !filesystem.CanWrite(target) {
		return configErr("database", c.DatabasePath, ErrNotWritable)
	}
	return nil
}

func (c *Config) validateUpdate() error {
	if err := c.resolveRoot(); err != nil {
		return err
	}
	if err := requireFile("database", c.DatabasePath); err != nil {
		return err
	}
	// The atomic replace needs both the file and its directory.
	if !filesystem.CanWrite(c.DatabasePath) || !filesystem.CanWrite(filepath.Dir(c.DatabasePath)) {
		return configErr("database", c.DatabasePath, ErrNotWritable)
	}
	if c.PollInterval <= 0 {
		return configErr("interval", c.PollInterval.String(), ErrInvalid)
	}
	if c.StalenessWindow <= 0 {
		return configErr("window", c.StalenessWindow.String(), ErrInvalid)
	}
	return nil
}

func (c *Config) resolveRoot() error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return configErr("fastq path", c.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return configErr("fastq path", root, err)
	}
	if !info.IsDir() {
		return configErr("fastq path", root, ErrNotDirectory)
	}
	if !filesystem.CanTraverse(root) {
		return configErr("fastq path", root, os.ErrPermission)
	}
	c.Root = root
	return nil
}

// LogConfig writes the resolved configuration in the startup section style.
func (c *Config) LogConfig() {
	logSection("CONFIGURATION")
	logging.Info("  Job type:          %s", c.JobType)
	logging.Info("  Database:          %s", c.DatabasePath)
	switch c.JobType {
	case JobCreate, JobUpdate:
		logging.Info("  Fastq path:        %s", c.Root)
		logging.Info("  File pattern:      %s", c.FilePattern)
		logging.Info("  Workers:           %d", c.Workers)
		logging.Info("  Blacklist:         %s", strings.Join(c.Blacklist.Paths(), ", "))
		if c.JobType == JobUpdate {
			logging.Info("  Force:             %v", c.Force)
			logging.Info("  Poll interval:     %v", c.PollInterval)
			logging.Info("  Staleness window:  %v", c.StalenessWindow)
			logging.Info("  Metrics:           %s", enabledString(c.MetricsEnabled))
		}
	case JobQuery:
		logging.Info("  Sample list:       %s", c.ManifestPath)
		logging.Info("  Output directory:  %s", c.OutDir)
		logging.Info("  Library patterns:  %s", firstNonEmpty(c.LibPatterns, "*"))
	}
	logging.Info("  Log level:         %s", logging.GetLevel())
}

func requireFile(field, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return configErr(field, path, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if !info.Mode().IsRegular() {
		return configErr(field, path, ErrNotFile)
	}
	return nil
}

func resolveDuration(field string, flagValue time.Duration, envKey string, def time.Duration) (time.Duration, error) {
	if flagValue != 0 {
		return flagValue, nil
	}
	raw := os.Getenv(envKey)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, configErr(field, raw, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
