package scratch

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrEditorNotConfigured means no editor could be resolved.
	ErrEditorNotConfigured = errors.New("no editor found (set config editor, $VISUAL or $EDITOR, or install vi/nano)")

	// ErrEditorFailed is matched by [*EditorError].
	ErrEditorFailed = errors.New("editor failed")

	// ErrAborted means the session's context was cancelled while editing.
	ErrAborted = errors.New("editing aborted")

	// ErrIO is matched by [*IOError].
	ErrIO = errors.New("scratch file i/o failed")
)

// EditorError reports an editor that could not be started or exited with a
// non-zero status.
type EditorError struct {
	Program string
	Path    string
	Err     error
}

func (e *EditorError) Error() string {
	return fmt.Sprintf("%s: %s while editing %s: %v", ErrEditorFailed, e.Program, e.Path, e.Err)
}

func (e *EditorError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrEditorFailed].
func (e *EditorError) Is(target error) bool {
	return target == ErrEditorFailed
}

// ExitCode returns the editor's exit status, or -1 if it did not exit
// normally (not started, killed by a signal).
func (e *EditorError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// IOError reports a failed filesystem operation on a scratch file or the
// scratch directory.
type IOError struct {
	Op   string // mkdir, create, write, read, remove
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrIO].
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
