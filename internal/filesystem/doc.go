/*
Package filesystem provides filesystem checks for the indexer with automatic
retry logic for NFS stale file handle errors.

# Purpose

Sequencing data lives on a shared network filesystem. Directory listings and
stat calls can fail transiently with ESTALE while the server reshuffles
exports. This package wraps os.Stat, os.Lstat and os.ReadDir with retry and
exponential backoff for that one error; every other error is returned
immediately so the scanner and walker can skip the affected directory.

# Usage

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
	    // unreadable or vanished: skip this directory
	}

	ok, err := filesystem.Exists(path, filesystem.DefaultRetryConfig())

Exists only reports false with a nil error when the path is definitely gone.
The index store relies on this to avoid dropping library paths because of a
transient network fault.

# Access checks

CanTraverse and CanWrite use access(2) so the checks honor the real uid and
group memberships, matching what the operator would see from a shell.

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Retry
metrics are reported through the Observer set with SetObserver.
*/
package filesystem
