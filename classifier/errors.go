package classifier

import (
	"errors"
	"fmt"
)

var ErrInvalidSchema = errors.New("invalid classification schema")

// ClassificationError reports a target that violates the category naming contract,
// e.g. an explicit SSI category without a recognizable severity word.
type ClassificationError struct {
	TargetCategory string
	Reason         string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify target %q: %s", e.TargetCategory, e.Reason)
}
