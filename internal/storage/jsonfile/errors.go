package jsonfile

import (
	"errors"
	"io/fs"
)

type errorKind int

const (
	kindIO errorKind = iota + 1
	kindFormat
)

// StorageError wraps every error surfaced by this package and tags it as
// either an I/O failure or a JSON format failure. Callers branch on the
// predicates below instead of the concrete type.
type StorageError struct {
	kind errorKind
	err  error
}

func (e *StorageError) Error() string {
	switch e.kind {
	case kindFormat:
		return "format error: " + e.err.Error()
	default:
		return "io error: " + e.err.Error()
	}
}

func (e *StorageError) Unwrap() error { return e.err }

func ioError(err error) error {
	return &StorageError{kind: kindIO, err: err}
}

func formatError(err error) error {
	return &StorageError{kind: kindFormat, err: err}
}

// IsIOError reports whether the error is an I/O failure (permission,
// not-found, disk-full, rename collision).
func IsIOError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.kind == kindIO
}

// IsFormatError reports whether the error is a JSON parse or serialize
// failure.
func IsFormatError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.kind == kindFormat
}

// IsNotFound reports whether the error stems from a missing file. Callers
// use it to degrade to default documents on first run.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
