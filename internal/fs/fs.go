// Package fs provides the filesystem seam used by napkin's editing session.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the session needs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Faulty]: testing wrapper that fails selected operations
//
// Example usage:
//
//	fsys := fs.NewReal()
//	data, err := fsys.ReadFile("context.yml")
//	if err != nil {
//	    return err
//	}
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer] or
// [io.Closer].
type File interface {
	io.ReadWriteCloser

	// Name returns the name of the file as presented to Open/CreateTemp.
	// See [os.File.Name].
	Name() string

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error
}

// FS defines the filesystem operations used by the scratch session, the
// exclusive guard and the edit loop.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection (see [Faulty]).
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	// The guard uses O_CREATE|O_EXCL to create lock markers.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// CreateTemp creates a new uniquely named file in dir. See [os.CreateTemp].
	CreateTemp(dir, pattern string) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename to prevent partial writes on crash.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error
}

// Compile-time interface checks.
var (
	_ File = (*os.File)(nil)
	_ FS   = (*Real)(nil)
	_ FS   = (*Faulty)(nil)
)
