// Package guard serializes editing sessions on a file across processes with a
// lock marker file next to it.
//
// The marker for "context.yml" is "context.lock". Whoever creates the marker
// owns the file until the marker is removed; a second [Acquire] fails
// immediately with [ErrAlreadyLocked] instead of waiting. The marker holds
// the owner's PID so a marker left behind by a crashed process can be told
// apart from a live one (see [Inspect]), but Acquire never removes a marker
// on its own.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/calvinalkan/napkin/internal/fs"
)

// MarkerExt replaces the guarded file's extension to form the marker path.
const MarkerExt = ".lock"

const markerPerm = 0o644

var (
	// ErrAlreadyLocked is matched by [*LockedError].
	ErrAlreadyLocked = errors.New("already locked")

	// ErrReleaseFailed wraps a failure to remove the marker. The marker is
	// still on disk and blocks later sessions until removed by hand or by
	// [Break].
	ErrReleaseFailed = errors.New("releasing lock failed")
)

// LockedError reports an existing marker.
type LockedError struct {
	Path   string // guarded file
	Marker string // marker file
	PID    int    // owner recorded in the marker, 0 if unknown
	Stale  bool   // owner is known and no longer running
}

func (e *LockedError) Error() string {
	msg := fmt.Sprintf("%s is %s (marker %s", e.Path, ErrAlreadyLocked, e.Marker)

	switch {
	case e.PID == 0:
		msg += ")"
	case e.Stale:
		msg += fmt.Sprintf(", owner pid %d is not running)", e.PID)
	default:
		msg += fmt.Sprintf(", held by pid %d)", e.PID)
	}

	return msg
}

// Is reports whether target is [ErrAlreadyLocked].
func (e *LockedError) Is(target error) bool {
	return target == ErrAlreadyLocked
}

// MarkerPath derives the marker path for path by replacing its extension
// with [MarkerExt], or appending it when path has none.
func MarkerPath(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + MarkerExt
}

// Guard is a held lock. Call [Guard.Release] exactly when the session ends;
// deferring it covers every return path.
type Guard struct {
	fs     fs.FS
	path   string
	marker string

	once       sync.Once
	releaseErr error
}

// Acquire takes the lock on path by creating its marker exclusively.
//
// If the marker exists, Acquire returns a [*LockedError] at once. The marker
// directory must exist.
func Acquire(fsys fs.FS, path string) (*Guard, error) {
	marker := MarkerPath(path)

	file, err := fsys.OpenFile(marker, os.O_WRONLY|os.O_CREATE|os.O_EXCL, markerPerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, inspectLocked(fsys, path, marker)
		}

		return nil, fmt.Errorf("creating lock marker %s: %w", marker, err)
	}

	_, writeErr := file.Write([]byte(strconv.Itoa(os.Getpid())))
	closeErr := file.Close()

	if err := errors.Join(writeErr, closeErr); err != nil {
		removeErr := fsys.Remove(marker)

		return nil, errors.Join(fmt.Errorf("writing lock marker %s: %w", marker, err), removeErr)
	}

	return &Guard{fs: fsys, path: path, marker: marker}, nil
}

// Path returns the guarded file.
func (g *Guard) Path() string {
	return g.path
}

// Marker returns the marker file.
func (g *Guard) Marker() string {
	return g.marker
}

// Release removes the marker. It is safe to call more than once; only the
// first call does any work and later calls return its result.
//
// A failed removal is returned wrapped in [ErrReleaseFailed] and must not be
// ignored: the stale marker locks out every later session.
func (g *Guard) Release() error {
	g.once.Do(func() {
		err := g.fs.Remove(g.marker)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			g.releaseErr = fmt.Errorf("%w: removing %s: %w", ErrReleaseFailed, g.marker, err)
		}
	})

	return g.releaseErr
}

// Status describes the marker of a guarded path.
type Status struct {
	Path   string
	Marker string
	Locked bool // marker exists
	PID    int  // owner recorded in the marker, 0 if none or unreadable
	Alive  bool // owner process is running; true when PID is 0 and Locked
}

// Stale reports whether the marker exists but its owner is known to be gone.
func (s Status) Stale() bool {
	return s.Locked && s.PID != 0 && !s.Alive
}

// Inspect reports the state of path's marker without changing it.
func Inspect(fsys fs.FS, path string) (Status, error) {
	marker := MarkerPath(path)
	status := Status{Path: path, Marker: marker}

	data, err := fsys.ReadFile(marker)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return status, nil
		}

		return status, fmt.Errorf("reading lock marker %s: %w", marker, err)
	}

	status.Locked = true
	status.Alive = true

	pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr != nil || pid <= 0 {
		return status, nil
	}

	status.PID = pid
	status.Alive = processAlive(pid)

	return status, nil
}

// Break removes path's marker regardless of who holds it. It reports
// whether a marker was removed.
func Break(fsys fs.FS, path string) (bool, error) {
	marker := MarkerPath(path)

	err := fsys.Remove(marker)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("removing lock marker %s: %w", marker, err)
}

func inspectLocked(fsys fs.FS, path, marker string) error {
	lockedErr := &LockedError{Path: path, Marker: marker}

	status, err := Inspect(fsys, path)
	if err != nil {
		return errors.Join(lockedErr, err)
	}

	lockedErr.PID = status.PID
	lockedErr.Stale = status.Stale()

	return lockedErr
}
