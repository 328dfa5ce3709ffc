package utils

import (
	"errors"
	"fmt"
)

var ErrPanic = errors.New("recovered panic")

// RecoverWithError turns a panic in the deferring function into *err.
// It must be deferred directly.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("%w: %v", ErrPanic, rv)
	}
}
