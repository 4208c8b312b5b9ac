package cli

import (
	"errors"

	"github.com/calvinalkan/napkin/internal/editloop"
	"github.com/calvinalkan/napkin/internal/guard"
	"github.com/calvinalkan/napkin/internal/scratch"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1   // generic failure, usage error, invalid document
	ExitLocked  = 3   // the context file is locked by another session
	ExitEditor  = 4   // no editor found, or the editor failed
	ExitIO      = 5   // filesystem failure
	ExitAborted = 130 // interrupted (128 + SIGINT)
)

// exitCode maps a command error to the process exit code.
// Checked in order, so an aborted run that also failed to release its lock
// still reports ExitAborted.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, scratch.ErrAborted):
		return ExitAborted
	case errors.Is(err, guard.ErrAlreadyLocked):
		return ExitLocked
	case errors.Is(err, scratch.ErrEditorNotConfigured), errors.Is(err, scratch.ErrEditorFailed):
		return ExitEditor
	case errors.Is(err, scratch.ErrIO), errors.Is(err, editloop.ErrDocumentIO),
		errors.Is(err, guard.ErrReleaseFailed):
		return ExitIO
	default:
		return ExitError
	}
}
