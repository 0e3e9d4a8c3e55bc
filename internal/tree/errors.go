package tree

import (
	"errors"
	"fmt"
)

const invalidRootMessageFormat = "path '%s' is not a valid directory"

// ErrInvalidRoot matches every InvalidRootError through errors.Is.
var ErrInvalidRoot = errors.New("invalid root directory")

// InvalidRootError reports a root path that does not exist or is not a directory.
type InvalidRootError struct {
	Path string
	Err  error
}

// Error returns the error string.
func (invalidRootError *InvalidRootError) Error() string {
	message := fmt.Sprintf(invalidRootMessageFormat, invalidRootError.Path)
	if invalidRootError.Err != nil {
		return message + ": " + invalidRootError.Err.Error()
	}
	return message
}

// Unwrap exposes the underlying filesystem error, if any.
func (invalidRootError *InvalidRootError) Unwrap() error {
	return invalidRootError.Err
}

// Is reports whether target is ErrInvalidRoot.
func (invalidRootError *InvalidRootError) Is(target error) bool {
	return target == ErrInvalidRoot
}
