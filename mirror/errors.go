package mirror

import (
	"errors"
)

var (
	// ErrNoLocation is returned synchronously by mutating operations without a writable location.
	ErrNoLocation = errors.New("no location")
	// ErrIndexOutOfRange is returned synchronously by range operations with invalid bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
)
