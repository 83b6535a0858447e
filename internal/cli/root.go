package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fqindex/internal/database"
	"fqindex/internal/filesystem"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"
	"fqindex/internal/query"
	"fqindex/internal/startup"
)

// Execute runs the command against the process arguments and returns the
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes one invocation with args. Errors are reported as a single
// line on stderr and mapped to exit code 1.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "fqindex: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the fqindex command with its flags bound to a
// fresh set of options.
func NewRootCommand() *cobra.Command {
	var (
		opts    startup.Options
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "fqindex",
		Short: "Index and query sequencing fastq files on a shared filesystem",
		Long: `fqindex maintains an index of sequencing data files keyed by sample name.

Job types:
  c  create the index from a full traversal of the fastq path
  u  refresh the index on a timer (or once with --force)
  q  query the index with a sample list
  s  print a summary of the index`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(logging.LevelDebug)
			}

			cfg, err := startup.Resolve(opts)
			if err != nil {
				return err
			}
			return runJob(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.JobType, "jobtype", "t", "q", "job type: c(create), u(update), q(query) or s(summary)")
	f.StringVarP(&opts.Database, "database", "d", "", "index file path (env FQINDEX_DATABASE)")
	f.StringVarP(&opts.Root, "fqpath", "f", "", "root of the fastq hierarchy (env FQINDEX_ROOT)")
	f.StringVarP(&opts.Manifest, "splist", "i", "", "tab-delimited sample list with a header line, required for query")
	f.StringVarP(&opts.OutDir, "outdir", "o", "", "directory for query reports (default current directory)")
	f.StringVarP(&opts.LibPatterns, "libpatterns", "g", "", "comma-separated library path patterns, all must match")
	f.BoolVarP(&opts.Force, "force", "c", false, "run one full refresh and exit")
	f.IntVarP(&opts.Workers, "thread", "p", 0, "worker pool size (env FQINDEX_WORKERS)")
	f.StringSliceVarP(&opts.Blacklist, "blacklist", "b", nil, "directories excluded from traversal (env FQINDEX_BLACKLIST)")
	f.StringVar(&opts.FilePattern, "pattern", "", "file name glob (env FQINDEX_PATTERN)")
	f.DurationVar(&opts.Interval, "interval", 0, "polling interval (env FQINDEX_INTERVAL)")
	f.DurationVar(&opts.Window, "window", 0, "staleness window (env FQINDEX_WINDOW)")
	f.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func runJob(ctx context.Context, stdout io.Writer, cfg *startup.Config) error {
	// Inputs are validated before any banner or log line so a configuration
	// error stays a single diagnostic line.
	in, err := prepare(cfg)
	if err != nil {
		return err
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())

	startup.PrintBanner()
	cfg.LogConfig()

	switch cfg.JobType {
	case startup.JobCreate:
		return runCreate(ctx, cfg)
	case startup.JobUpdate:
		return runUpdate(ctx, cfg, in.store)
	case startup.JobSummary:
		return runSummary(stdout, in.store)
	default:
		return runQuery(cfg, in)
	}
}

// inputs holds what a job needs beyond its configuration, checked up front.
type inputs struct {
	store    *database.Store
	patterns []query.Pattern
	manifest *query.Manifest
}

// prepare opens the existing index and, for queries, compiles the library
// patterns and parses the sample list. Every failure is a ConfigError.
func prepare(cfg *startup.Config) (*inputs, error) {
	in := &inputs{}
	if cfg.JobType == startup.JobCreate {
		return in, nil
	}

	if cfg.JobType == startup.JobQuery {
		patterns, err := query.CompilePatterns(cfg.LibPatterns)
		if err != nil {
			return nil, &startup.ConfigError{Field: "libpatterns", Value: cfg.LibPatterns, Err: err}
		}
		in.patterns = patterns
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	in.store = store

	if cfg.JobType == startup.JobQuery {
		manifest, err := query.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, &startup.ConfigError{Field: "sample list", Value: cfg.ManifestPath, Err: err}
		}
		in.manifest = manifest
	}
	return in, nil
}

func storeOptions(cfg *startup.Config) database.Options {
	return database.Options{
		Workers: cfg.Workers,
		Retry:   cfg.Retry,
	}
}

// openStore opens an existing index file. A missing or unparsable file is
// a configuration problem of the invocation.
func openStore(cfg *startup.Config) (*database.Store, error) {
	store, err := database.Open(cfg.DatabasePath, storeOptions(cfg))
	if err != nil {
		if errors.Is(err, database.ErrStoreMissing) || errors.Is(err, database.ErrStoreInvalid) {
			return nil, &startup.ConfigError{Field: "database", Value: cfg.DatabasePath, Err: err}
		}
		return nil, err
	}
	return store, nil
}
