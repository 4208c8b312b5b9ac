package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/napkin/internal/napkin"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a napkin home in a temp directory and environment variables.
type CLI struct {
	t    *testing.T
	Home string
	Env  map[string]string
}

// NewCLI creates a new test CLI with a temp napkin home. $HOME points at a
// separate empty temp directory so no user config is picked up.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:    t,
		Home: filepath.Join(t.TempDir(), ".napkin"),
		Env:  map[string]string{"HOME": t.TempDir()},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "napkin" or "--home" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"napkin", "--home", r.Home}, args...)
	code := Run(nil, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI, fails the test unless it exits with wantCode,
// and returns trimmed stderr.
func (r *CLI) MustFail(wantCode int, args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != wantCode {
		r.t.Fatalf("command %v exited %d, want %d\nstdout: %s\nstderr: %s", args, code, wantCode, stdout, stderr)
	}

	return strings.TrimSpace(stderr)
}

// Paths returns the napkin file locations under the test home.
func (r *CLI) Paths() napkin.Paths {
	return napkin.Paths{Home: r.Home}
}

// ReadContext returns the context file's content.
func (r *CLI) ReadContext() string {
	r.t.Helper()

	content, err := os.ReadFile(r.Paths().ContextPath())
	if err != nil {
		r.t.Fatalf("failed to read context file: %v", err)
	}

	return string(content)
}

// WriteContext writes the context file, creating the home if needed.
func (r *CLI) WriteContext(content string) {
	r.t.Helper()

	if err := os.MkdirAll(r.Home, 0o755); err != nil {
		r.t.Fatalf("failed to create home: %v", err)
	}

	if err := os.WriteFile(r.Paths().ContextPath(), []byte(content), 0o644); err != nil {
		r.t.Fatalf("failed to write context file: %v", err)
	}
}

// WriteLock creates the context lock marker with the given content.
func (r *CLI) WriteLock(content string) {
	r.t.Helper()

	if err := os.MkdirAll(r.Home, 0o755); err != nil {
		r.t.Fatalf("failed to create home: %v", err)
	}

	if err := os.WriteFile(r.Paths().LockPath(), []byte(content), 0o644); err != nil {
		r.t.Fatalf("failed to write lock: %v", err)
	}
}

// UseEditor writes an executable /bin/sh script with body and sets it as
// $EDITOR. The script receives the scratch file path as "$1".
func (r *CLI) UseEditor(body string) string {
	r.t.Helper()

	path := filepath.Join(r.t.TempDir(), "mock-editor")

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)
	if err != nil {
		r.t.Fatalf("failed to create mock editor: %v", err)
	}

	r.Env["EDITOR"] = path

	return path
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
