package database

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Suffixes of the audit logs kept next to the index file.
const (
	AddedLogSuffix   = ".rec.log"
	RemovedLogSuffix = ".del.log"
	BuildDirSuffix   = ".dir.log"
	UpdateDirSuffix  = ".upd.log"

	logTimeFormat = "2006-01-02 15:04:05"
)

// ChangeLog writes the plaintext audit trail of an index file. The logs are
// append-only except for the listings rewritten by a build.
type ChangeLog struct {
	base string
}

// NewChangeLog returns the audit trail for the index stored at dbPath.
func NewChangeLog(dbPath string) *ChangeLog {
	return &ChangeLog{base: dbPath}
}

// AddedPath returns the path of the additions log.
func (l *ChangeLog) AddedPath() string { return l.base + AddedLogSuffix }

// RemovedPath returns the path of the removals log.
func (l *ChangeLog) RemovedPath() string { return l.base + RemovedLogSuffix }

// BuildDirPath returns the path of the build candidate directory listing.
func (l *ChangeLog) BuildDirPath() string { return l.base + BuildDirSuffix }

// UpdateDirPath returns the path of the refresh candidate directory log.
func (l *ChangeLog) UpdateDirPath() string { return l.base + UpdateDirSuffix }

// WriteBuild replaces the additions log with the full listing of a fresh
// index and the build directory listing with the scanned candidates.
func (l *ChangeLog) WriteBuild(rec ChangeRecord) error {
	ts := rec.Timestamp.Format(logTimeFormat)

	err := writeLines(l.AddedPath(), os.O_TRUNC, func(w io.Writer) error {
		return writeChanges(w, ts, "+", rec.Added)
	})
	if err != nil {
		return err
	}

	return writeLines(l.BuildDirPath(), os.O_TRUNC, func(w io.Writer) error {
		for _, dir := range rec.Dirs {
			if _, err := fmt.Fprintln(w, dir); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendRefresh appends one refresh cycle to the logs. Logs with nothing to
// record are not touched.
func (l *ChangeLog) AppendRefresh(rec ChangeRecord) error {
	ts := rec.Timestamp.Format(logTimeFormat)

	if len(rec.Dirs) > 0 {
		err := writeLines(l.UpdateDirPath(), os.O_APPEND, func(w io.Writer) error {
			for _, dir := range rec.Dirs {
				if _, err := fmt.Fprintf(w, "update database @ %s from %s\n", ts, dir); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(rec.Added) > 0 {
		err := writeLines(l.AddedPath(), os.O_APPEND, func(w io.Writer) error {
			return writeChanges(w, ts, "+", rec.Added)
		})
		if err != nil {
			return err
		}
	}

	if len(rec.Removed) > 0 {
		err := writeLines(l.RemovedPath(), os.O_APPEND, func(w io.Writer) error {
			return writeChanges(w, ts, "-", rec.Removed)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func writeChanges(w io.Writer, ts, mark string, changes []Change) error {
	for _, c := range changes {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ts, mark, c.Sample, c.Path); err != nil {
			return err
		}
	}
	return nil
}

// writeLines opens path for writing with the extra flag (O_APPEND or
// O_TRUNC) and hands a buffered writer to fn.
func writeLines(path string, flag int, fn func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close log %s: %w", path, closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return fmt.Errorf("write log %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush log %s: %w", path, err)
	}
	return nil
}
