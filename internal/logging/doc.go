// Package logging provides a small leveled logger for fqindex.
//
// Levels, from most to least verbose:
//   - DEBUG: per-directory scan and walk details
//   - INFO: cycle start/finish, change counts, configuration
//   - WARN: skipped directories, retried filesystem calls
//   - ERROR: failed refresh cycles and persistence faults
//   - FATAL: unrecoverable startup errors
//
// The level comes from LOG_LEVEL (or DEBUG=true) and can be overridden with
// SetLevel, which the command line --verbose flag uses.
package logging
