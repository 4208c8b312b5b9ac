// Package scratch runs one create-edit-read-delete cycle of a temporary file
// through an external editor.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/calvinalkan/napkin/internal/fs"
)

const dirPerm = 0o700

// Session edits text in scratch files under Dir.
//
// Scratch files are named randomly (see [os.CreateTemp]) with Suffix
// appended, so editors can pick syntax highlighting from it. A Session holds
// no per-edit state and may be reused for any number of [Session.Edit] calls.
type Session struct {
	FS     fs.FS
	Dir    string
	Suffix string // e.g. ".yml"
	Editor Editor

	// Stdio handed to the editor. Nil leaves the stream unconnected.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *zap.Logger // nil disables logging
}

// Edit writes initial to a fresh scratch file, opens it in the editor, waits
// for the editor to exit and returns the file's content.
//
// The scratch file is removed before Edit returns on every path. Errors:
//   - [ErrEditorNotConfigured] if no editor is set
//   - [*EditorError] if the editor cannot start or exits non-zero
//   - [ErrAborted] if ctx is cancelled; the editor is killed
//   - [*IOError] for any filesystem failure, including removing the file
func (s *Session) Edit(ctx context.Context, initial string) (text string, err error) {
	if s.Editor.Program == "" {
		return "", ErrEditorNotConfigured
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %w", ErrAborted, ctxErr)
	}

	log := s.logger()

	if mkdirErr := s.FS.MkdirAll(s.Dir, dirPerm); mkdirErr != nil {
		return "", &IOError{Op: "mkdir", Path: s.Dir, Err: mkdirErr}
	}

	file, createErr := s.FS.CreateTemp(s.Dir, "*"+s.Suffix)
	if createErr != nil {
		return "", &IOError{Op: "create", Path: s.Dir, Err: createErr}
	}

	path := file.Name()
	log.Debug("scratch file created", zap.String("path", path))

	defer func() {
		removeErr := s.FS.Remove(path)
		if removeErr == nil {
			log.Debug("scratch file removed", zap.String("path", path))

			return
		}

		ioErr := &IOError{Op: "remove", Path: path, Err: removeErr}
		if err == nil {
			text, err = "", ioErr
		} else {
			err = errors.Join(err, ioErr)
		}
	}()

	_, writeErr := io.WriteString(file, initial)
	closeErr := file.Close()

	if joined := errors.Join(writeErr, closeErr); joined != nil {
		return "", &IOError{Op: "write", Path: path, Err: joined}
	}

	if runErr := s.run(ctx, path); runErr != nil {
		return "", runErr
	}

	data, readErr := s.FS.ReadFile(path)
	if readErr != nil {
		return "", &IOError{Op: "read", Path: path, Err: readErr}
	}

	return string(data), nil
}

func (s *Session) run(ctx context.Context, path string) error {
	cmd := s.Editor.command(ctx, path)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	log := s.logger()
	log.Debug("launching editor", zap.Stringer("editor", s.Editor), zap.String("path", path))

	runErr := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("editor aborted", zap.Error(ctxErr))

		return fmt.Errorf("%w: %w", ErrAborted, ctxErr)
	}

	if runErr != nil {
		return &EditorError{Program: s.Editor.Program, Path: path, Err: runErr}
	}

	log.Debug("editor exited", zap.String("path", path))

	return nil
}

func (s *Session) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}

	return s.Logger
}

