package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
)

// Op names an [FS] or [File] operation that [Faulty] can fail.
type Op string

// Ops that can be failed.
const (
	OpOpenFile        Op = "openfile"
	OpCreateTemp      Op = "createtemp"
	OpReadFile        Op = "readfile"
	OpWriteFileAtomic Op = "writefileatomic"
	OpMkdirAll        Op = "mkdirall"
	OpStat            Op = "stat"
	OpRemove          Op = "remove"
	OpWrite           Op = "write" // File.Write on files returned by OpenFile/CreateTemp
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op   Op
	Path string
	Err  error
}

func (e *InjectedError) Error() string {
	return "injected " + string(e.Op) + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Faulty].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

type faultRule struct {
	op     Op
	prefix string
	err    error
	times  int // <= 0 means every call
}

// Faulty wraps an [FS] and fails operations that match registered rules.
//
// Unlike a random chaos filesystem, Faulty is deterministic: a rule fails
// every matching call (or the first n calls, see [Faulty.FailN]) so tests
// can assert exactly which error surfaces.
//
// Faulty is safe for concurrent use.
type Faulty struct {
	inner FS

	mu    sync.Mutex
	rules []*faultRule
	calls map[Op]int
}

// NewFaulty wraps inner. With no rules registered it behaves exactly like inner.
func NewFaulty(inner FS) *Faulty {
	return &Faulty{inner: inner, calls: make(map[Op]int)}
}

// Fail makes every op on a path starting with prefix fail with err.
// An empty prefix matches every path. A nil err defaults to EIO.
func (f *Faulty) Fail(op Op, prefix string, err error) {
	f.FailN(op, prefix, err, 0)
}

// FailN is like [Faulty.Fail] but only fails the first n matching calls.
func (f *Faulty) FailN(op Op, prefix string, err error, n int) {
	if err == nil {
		err = syscall.EIO
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = append(f.rules, &faultRule{op: op, prefix: prefix, err: err, times: n})
}

// Calls returns how many times op was invoked, including failed calls.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	for _, rule := range f.rules {
		if rule.op != op || !strings.HasPrefix(path, rule.prefix) {
			continue
		}

		if rule.times < 0 {
			continue
		}

		if rule.times > 0 {
			rule.times--
			if rule.times == 0 {
				rule.times = -1
			}
		}

		return &os.PathError{Op: string(op), Path: path, Err: &InjectedError{Op: op, Path: path, Err: rule.err}}
	}

	return nil
}

func (f *Faulty) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := f.check(OpOpenFile, path); err != nil {
		return nil, err
	}

	file, err := f.inner.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, fs: f}, nil
}

func (f *Faulty) CreateTemp(dir, pattern string) (File, error) {
	if err := f.check(OpCreateTemp, dir); err != nil {
		return nil, err
	}

	file, err := f.inner.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, fs: f}, nil
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.inner.Stat(path)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpStat, path); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

type faultyFile struct {
	File

	fs *Faulty
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if err := ff.fs.check(OpWrite, ff.Name()); err != nil {
		return 0, err
	}

	return ff.File.Write(p)
}
