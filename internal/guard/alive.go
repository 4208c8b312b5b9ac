package guard

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive reports whether pid names a running process. Signal 0 checks
// existence without delivering anything; EPERM means the process exists but
// belongs to someone else.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)

	return err == nil || errors.Is(err, unix.EPERM)
}
