package database

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreMissing means the index file does not exist. Run a create job first.
	ErrStoreMissing = errors.New("index file does not exist")
	// ErrStoreInvalid means the index file is not a JSON sample mapping.
	ErrStoreInvalid = errors.New("index file is not a valid sample mapping")
)

// StoreError reports an index file that cannot be used as a store. It is a
// configuration problem and is never repaired automatically.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("database file %s is invalid: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed write of the index file. The authoritative
// file is left as it was before the write started.
type PersistError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
