// Package database stores the sample index: a JSON file mapping each sample
// name to the library paths discovered for it.
//
// The file is written rarely and read often, so it is kept as a single JSON
// object and every write replaces it atomically (temporary file, fsync,
// rename). Readers therefore always see a complete index.
//
// A [Store] wraps one index file. [Store.Refresh] performs the whole
// load, diff, apply and persist sequence under one lock so partial updates
// are never visible, and skips the write entirely when nothing changed.
// Removals are decided by probing each recorded path on disk, which lets a
// refresh fed by a partial (staleness-filtered) file list still notice
// deleted libraries anywhere in the index.
//
// Next to the index file the store keeps plaintext audit logs:
//   - <db>.rec.log: added libraries (rewritten by a build, appended by refreshes)
//   - <db>.del.log: removed libraries
//   - <db>.dir.log: candidate directories of the last build
//   - <db>.upd.log: candidate directories of each refresh that changed the index
package database
