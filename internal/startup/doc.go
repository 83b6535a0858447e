// Package startup resolves and validates the configuration of a single
// fqindex invocation and provides the startup/shutdown log sections.
//
// # Configuration
//
// Command line flags win over environment variables, which win over the
// package defaults. The resolved [Config] is built once by [Resolve] and
// passed by construction into every component; nothing else reads defaults.
//
//   - FQINDEX_DATABASE: index storage file (default: /var/lib/fqindex/fqindex.json)
//   - FQINDEX_ROOT: traversal root (default: /share/seq_dir/ngs)
//   - FQINDEX_PATTERN: file name glob (default: *.clean.fastq.gz)
//   - FQINDEX_BLACKLIST: comma-separated directories excluded from traversal
//   - FQINDEX_WORKERS: worker pool size (default: 10)
//   - FQINDEX_INTERVAL: polling interval as Go duration (default: 1h)
//   - FQINDEX_WINDOW: staleness window as Go duration (default: 2h)
//   - METRICS_ENABLED: serve /metrics and health endpoints in daemon mode (default: true)
//   - METRICS_PORT: port for those endpoints (default: 9090)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// # Validation
//
// Validation depends on the job type and fails with a [ConfigError]:
//   - create: the root must be a readable directory and the database
//     location writable; the database directory is created if needed
//   - update: the root must be a readable directory and the database an
//     existing, writable regular file
//   - query: a sample list must be given and exist; the output directory
//     is created if needed; the database must exist
//   - summary: the database must exist
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
