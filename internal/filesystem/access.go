package filesystem

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// CanTraverse reports whether the calling user may list and enter dir.
func CanTraverse(dir string) bool {
	return unix.Access(dir, unix.R_OK|unix.X_OK) == nil
}

// CanWrite reports whether the calling user may write to path.
func CanWrite(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// Exists stats path, following symlinks. It returns (false, nil) only when
// the path definitely does not exist; any other failure is returned so the
// caller can decide to keep the path rather than drop it.
func Exists(path string, config RetryConfig) (bool, error) {
	_, err := StatWithRetry(path, config)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, unix.ENOTDIR) {
		// A path component was replaced by a file
		return false, nil
	}
	return false, err
}
