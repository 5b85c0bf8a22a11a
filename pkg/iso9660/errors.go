package iso9660

import (
	"errors"

	"github.com/rstms/iso-reader/pkg/iso9660/block"
	"github.com/rstms/iso-reader/pkg/iso9660/descriptor"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

var (
	// ErrIO wraps failures of the backing store to open, seek or read.
	ErrIO = block.ErrIO
	// ErrInvalidSignature is returned when the descriptor at 16*2048 does not carry CD001.
	ErrInvalidSignature = descriptor.ErrInvalidSignature
	// ErrInvalidVolume is returned for structural problems in the Primary Volume Descriptor.
	ErrInvalidVolume = errors.New("invalid ISO9660 volume")
	// ErrMalformedRecord is returned when a directory extent holds a record that does not fit.
	ErrMalformedRecord = directory.ErrMalformedRecord
	ErrNotFound        = errors.New("not found")
	ErrNotADirectory   = errors.New("not a directory")
	// ErrIsDirectory is returned when file content is requested for a directory. It also matches
	// ErrNotADirectory under errors.Is, since the path does not name a regular file.
	ErrIsDirectory error = isDirectoryError{}
)

type isDirectoryError struct{}

func (isDirectoryError) Error() string {
	return "is a directory"
}

func (isDirectoryError) Is(target error) bool {
	return target == ErrNotADirectory
}

// PathError records an error and the operation and path that caused it. Path is always the path as given by
// the caller.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}
