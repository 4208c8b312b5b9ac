// Package editloop drives the edit-validate-annotate loop on a guarded
// document.
//
// One [Loop.Run] call locks the document, hands its text to an [Editor],
// validates what comes back and, on failure, reopens the editor with the
// text annotated at the offending location. It returns once the document
// validates or a lower layer fails.
package editloop

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/calvinalkan/napkin/internal/annotate"
	"github.com/calvinalkan/napkin/internal/document"
	"github.com/calvinalkan/napkin/internal/fs"
	"github.com/calvinalkan/napkin/internal/guard"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Editor opens text for the user and returns the edited text.
// [*scratch.Session] is the production implementation.
type Editor interface {
	Edit(ctx context.Context, initial string) (string, error)
}

// Result is the outcome of a successful [Loop.Run].
type Result struct {
	Document *document.Document
	Text     string // validated text, as written to the document
	Rounds   int    // editor invocations
	Changed  bool   // Text differs from what was on disk before the run
}

// Loop edits a document until it validates against Fields.
type Loop struct {
	FS     fs.FS
	Editor Editor
	Fields []document.Field

	// Skeleton seeds a document that does not exist yet.
	Skeleton string

	Logger *zap.Logger // nil disables logging
}

// Run edits the document at path until it validates.
//
// The document is locked for the whole run (see [guard.Acquire]); a held
// lock fails immediately with [guard.ErrAlreadyLocked]. Validation errors
// never leave Run: they are annotated into the text for the next round.
// Every other error ends the run. The lock is released on every path; a
// release failure is joined with the run's error.
//
// On success the validated text is written back to path before the lock is
// released. The write is skipped if the text did not change.
func (l *Loop) Run(ctx context.Context, path string) (res *Result, err error) {
	r := &run{loop: l, path: path, log: l.logger().With(zap.String("path", path))}

	r.enter(StateLocking)

	if mkdirErr := l.FS.MkdirAll(filepath.Dir(path), dirPerm); mkdirErr != nil {
		return nil, &DocumentError{Op: "mkdir", Path: filepath.Dir(path), Err: mkdirErr}
	}

	g, err := guard.Acquire(l.FS, path)
	if err != nil {
		return nil, err
	}

	r.log.Debug("lock acquired", zap.String("marker", g.Marker()))

	defer func() {
		releaseErr := g.Release()
		if releaseErr == nil {
			r.log.Debug("lock released")

			return
		}

		res = nil
		err = errors.Join(err, releaseErr)
	}()

	return r.edit(ctx)
}

func (l *Loop) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}

	return l.Logger
}

// run holds the state of one [Loop.Run] call.
type run struct {
	loop  *Loop
	path  string
	log   *zap.Logger
	state State
}

func (r *run) enter(next State) {
	r.log.Debug("state", zap.Stringer("from", r.state), zap.Stringer("to", next))
	r.state = next
}

func (r *run) edit(ctx context.Context) (*Result, error) {
	original, err := r.load()
	if err != nil {
		return nil, err
	}

	text := original
	rounds := 0

	var doc *document.Document

	for {
		r.enter(StateEditing)

		edited, editErr := r.loop.Editor.Edit(ctx, text)
		if editErr != nil {
			return nil, editErr
		}

		rounds++

		r.enter(StateParsing)

		parsed, validateErr := document.ParseAndValidate(edited, r.loop.Fields)
		if validateErr == nil {
			doc, text = parsed, edited

			break
		}

		fieldErr, ok := document.AsFieldError(validateErr)
		if !ok {
			return nil, validateErr
		}

		r.enter(StateAnnotating)
		r.log.Debug("document invalid", zap.Int("round", rounds), zap.Error(fieldErr))

		text = annotate.Annotate(edited, fieldErr)
	}

	r.enter(StateDone)

	changed := text != original
	if changed {
		if writeErr := r.loop.FS.WriteFileAtomic(r.path, []byte(text), filePerm); writeErr != nil {
			return nil, &DocumentError{Op: "write", Path: r.path, Err: writeErr}
		}
	}

	r.log.Debug("document valid", zap.Int("rounds", rounds), zap.Bool("changed", changed))

	return &Result{Document: doc, Text: text, Rounds: rounds, Changed: changed}, nil
}

// load returns the document's text, creating it from the skeleton first if
// it does not exist.
func (r *run) load() (string, error) {
	exists, err := r.loop.FS.Exists(r.path)
	if err != nil {
		return "", &DocumentError{Op: "read", Path: r.path, Err: err}
	}

	if !exists {
		r.log.Debug("document missing, writing skeleton")

		writeErr := r.loop.FS.WriteFileAtomic(r.path, []byte(r.loop.Skeleton), filePerm)
		if writeErr != nil {
			return "", &DocumentError{Op: "create", Path: r.path, Err: writeErr}
		}

		return r.loop.Skeleton, nil
	}

	data, err := r.loop.FS.ReadFile(r.path)
	if err != nil {
		return "", &DocumentError{Op: "read", Path: r.path, Err: err}
	}

	return string(data), nil
}
