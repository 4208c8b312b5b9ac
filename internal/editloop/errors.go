package editloop

import (
	"errors"
	"fmt"
)

// ErrDocumentIO is matched by [*DocumentError].
var ErrDocumentIO = errors.New("document i/o failed")

// DocumentError reports a failure reading or writing the guarded document.
type DocumentError struct {
	Op   string // mkdir, read, create, write
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrDocumentIO].
func (e *DocumentError) Is(target error) bool {
	return target == ErrDocumentIO
}
