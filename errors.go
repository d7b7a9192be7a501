package dbf

import (
	"os"

	"github.com/cockroachdb/errors"
)

// The sentinels below are attached to errors with errors.Mark; test for
// them with errors.Is from github.com/cockroachdb/errors.
var (
	// ErrFormat marks a file that fails the structural invariants of the
	// table format: a short header, or a descriptor section that cannot be
	// recovered.
	ErrFormat = errors.New("dbf: invalid format")

	// ErrValidation marks invalid caller input, such as an empty table or a
	// field specification that cannot be encoded.
	ErrValidation = errors.New("dbf: invalid input")

	// ErrNotFound means a referenced table or index file does not exist.
	ErrNotFound = errors.New("dbf: not found")

	// ErrFileChanged is returned by Append when the file was modified by
	// someone else since it was opened or last reloaded.
	ErrFileChanged = errors.New("dbf: file has changed")
)

// FormatErrorf formats according to a format specifier and returns the
// string as an error value that is marked as ErrFormat.
func FormatErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrFormat)
}

// ValidationErrorf returns an error marked as ErrValidation.
func ValidationErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NotFoundErrorf returns an error marked as ErrNotFound.
func NotFoundErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// openError classifies a failure to open path.
func openError(err error, path string) error {
	if errors.Is(err, os.ErrNotExist) {
		return errors.Mark(errors.Wrapf(err, "dbf: open %s", path), ErrNotFound)
	}
	return errors.Wrapf(err, "dbf: open %s", path)
}
