package guard_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/calvinalkan/napkin/internal/fs"
	"github.com/calvinalkan/napkin/internal/guard"
)

// notRunningPID is above any Linux pid_max, so no process can have it.
const notRunningPID = 2147483646

func TestMarkerPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "/home/u/.napkin/context.yml", want: "/home/u/.napkin/context.lock"},
		{path: "notes.tar.gz", want: "notes.tar.lock"},
		{path: "/tmp/testing", want: "/tmp/testing.lock"},
		{path: "/tmp/.hidden/file.yaml", want: "/tmp/.hidden/file.lock"},
	}

	for _, tt := range tests {

		tt := tt
		if got := guard.MarkerPath(tt.path); got != tt.want {
			t.Errorf("MarkerPath(%q)=%q, want=%q", tt.path, got, tt.want)
		}
	}
}

func TestAcquireIsExclusiveUntilReleased(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "context.yml")

	first, err := guard.Acquire(fsys, path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	marker := filepath.Join(filepath.Dir(path), "context.lock")
	if got, want := first.Marker(), marker; got != want {
		t.Errorf("marker=%q, want=%q", got, want)
	}

	data, readErr := os.ReadFile(marker)
	if readErr != nil {
		t.Fatalf("marker not created: %v", readErr)
	}

	if got, want := string(data), strconv.Itoa(os.Getpid()); got != want {
		t.Errorf("marker content=%q, want=%q", got, want)
	}

	second, err := guard.Acquire(fsys, path)
	if second != nil {
		t.Fatal("second acquire returned a guard")
	}

	if !errors.Is(err, guard.ErrAlreadyLocked) {
		t.Fatalf("second acquire err=%v, want ErrAlreadyLocked", err)
	}

	var lockedErr *guard.LockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("err=%T, want *LockedError", err)
	}

	if got, want := lockedErr.PID, os.Getpid(); got != want {
		t.Errorf("PID=%d, want=%d", got, want)
	}

	if lockedErr.Stale {
		t.Error("lock held by this process reported as stale")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Errorf("marker still exists after release: %v", statErr)
	}

	third, err := guard.Acquire(fsys, path)
	if err != nil {
		t.Fatalf("third acquire: %v", err)
	}

	if err := third.Release(); err != nil {
		t.Fatalf("release third: %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "context.yml")

	g, err := guard.Acquire(fsys, path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := g.Release(); err != nil {
			t.Fatalf("release #%d: %v", i+1, err)
		}
	}

	// A later owner's marker must survive a repeated Release of an old guard.
	next, err := guard.Acquire(fsys, path)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	_ = g.Release()

	if _, statErr := os.Stat(next.Marker()); statErr != nil {
		t.Fatalf("old guard removed new owner's marker: %v", statErr)
	}

	_ = next.Release()
}

func TestReleaseFailureIsReported(t *testing.T) {
	t.Parallel()

	faulty := fs.NewFaulty(fs.NewReal())
	path := filepath.Join(t.TempDir(), "context.yml")

	g, err := guard.Acquire(faulty, path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	faulty.Fail(fs.OpRemove, g.Marker(), nil)

	releaseErr := g.Release()
	if !errors.Is(releaseErr, guard.ErrReleaseFailed) {
		t.Fatalf("release err=%v, want ErrReleaseFailed", releaseErr)
	}

	if !fs.IsInjected(releaseErr) {
		t.Errorf("release err=%v should wrap the injected error", releaseErr)
	}

	if again := g.Release(); !errors.Is(again, guard.ErrReleaseFailed) {
		t.Errorf("second release err=%v, want the first failure again", again)
	}
}

func TestAcquireCreateFailure(t *testing.T) {
	t.Parallel()

	faulty := fs.NewFaulty(fs.NewReal())
	path := filepath.Join(t.TempDir(), "context.yml")
	faulty.Fail(fs.OpOpenFile, "", os.ErrPermission)

	g, err := guard.Acquire(faulty, path)
	if g != nil {
		t.Fatal("acquire returned a guard")
	}

	if errors.Is(err, guard.ErrAlreadyLocked) {
		t.Fatalf("err=%v must not look like contention", err)
	}

	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("err=%v, want ErrPermission", err)
	}
}

func TestAcquireWriteFailureLeavesNoMarker(t *testing.T) {
	t.Parallel()

	faulty := fs.NewFaulty(fs.NewReal())
	path := filepath.Join(t.TempDir(), "context.yml")
	faulty.Fail(fs.OpWrite, "", nil)

	if _, err := guard.Acquire(faulty, path); err == nil {
		t.Fatal("acquire succeeded despite failing write")
	}

	if _, statErr := os.Stat(guard.MarkerPath(path)); !os.IsNotExist(statErr) {
		t.Fatalf("marker left behind: %v", statErr)
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()

	tests := []struct {
		name      string
		marker    *string
		wantLock  bool
		wantPID   int
		wantAlive bool
		wantStale bool
	}{
		{name: "no marker"},
		{name: "empty marker", marker: ptr(""), wantLock: true, wantAlive: true},
		{name: "garbage marker", marker: ptr("not a pid"), wantLock: true, wantAlive: true},
		{
			name: "live owner", marker: ptr(strconv.Itoa(os.Getpid())),
			wantLock: true, wantPID: os.Getpid(), wantAlive: true,
		},
		{
			name: "dead owner", marker: ptr(strconv.Itoa(notRunningPID) + "\n"),
			wantLock: true, wantPID: notRunningPID, wantStale: true,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "context.yml")

			if tt.marker != nil {
				if err := os.WriteFile(guard.MarkerPath(path), []byte(*tt.marker), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			status, err := guard.Inspect(fsys, path)
			if err != nil {
				t.Fatalf("inspect: %v", err)
			}

			if status.Locked != tt.wantLock || status.PID != tt.wantPID ||
				status.Alive != tt.wantAlive || status.Stale() != tt.wantStale {
				t.Errorf("status=%+v stale=%v, want locked=%v pid=%d alive=%v stale=%v",
					status, status.Stale(), tt.wantLock, tt.wantPID, tt.wantAlive, tt.wantStale)
			}
		})
	}
}

func TestStaleMarkerStillBlocksUntilBroken(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "context.yml")

	if err := os.WriteFile(guard.MarkerPath(path), []byte(strconv.Itoa(notRunningPID)), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := guard.Acquire(fsys, path)

	var lockedErr *guard.LockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("err=%v, want *LockedError", err)
	}

	if !lockedErr.Stale {
		t.Errorf("lockedErr=%+v, want Stale", lockedErr)
	}

	removed, err := guard.Break(fsys, path)
	if err != nil || !removed {
		t.Fatalf("break: removed=%v err=%v", removed, err)
	}

	removed, err = guard.Break(fsys, path)
	if err != nil || removed {
		t.Fatalf("second break: removed=%v err=%v, want false, nil", removed, err)
	}

	g, err := guard.Acquire(fsys, path)
	if err != nil {
		t.Fatalf("acquire after break: %v", err)
	}

	_ = g.Release()
}

func ptr(s string) *string {
	return &s
}
