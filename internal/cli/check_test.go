package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/napkin/internal/annotate"
)

func TestCheckCommand(t *testing.T) {
	t.Parallel()

	t.Run("valid context", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)
		c.WriteContext(validContext)

		stdout := c.MustRun("check")
		AssertContains(t, stdout, "ok "+c.Paths().ContextPath())
	})

	t.Run("invalid file prints annotated text", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)
		path := filepath.Join(t.TempDir(), "other.yml")
		c.WriteContext(validContext)
		writeTestFile(t, path, "version: \"1\"\n")

		stdout, stderr, code := c.Run("check", path)
		if code != ExitError {
			t.Fatalf("exit code=%d, want %d", code, ExitError)
		}

		if want := annotate.Marker + "Missing key 'napkins'\nversion: \"1\"\n"; stdout != want {
			t.Errorf("stdout=%q, want=%q", stdout, want)
		}

		AssertContains(t, stderr, path)
		AssertContains(t, stderr, `missing key "napkins"`)
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)
		c.WriteContext("- not\n- a mapping\n")

		stdout, _, code := c.Run("check", "-q")
		if code != ExitError || stdout != "" {
			t.Errorf("code=%d stdout=%q, want %d and no output", code, stdout, ExitError)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)

		stderr := c.MustFail(ExitIO, "check")
		AssertContains(t, stderr, "read "+c.Paths().ContextPath())
	})

	t.Run("leftover annotations warn", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)
		c.WriteContext(annotate.Marker + "Missing key 'napkins'\n" + validContext)

		stdout, stderr, code := c.Run("check")
		if code != ExitError {
			t.Errorf("exit code=%d, want %d for warnings", code, ExitError)
		}

		AssertContains(t, stdout, "ok ")
		AssertContains(t, stderr, "warning: leftover error comments")
	})

	t.Run("too many args", func(t *testing.T) {
		t.Parallel()

		c := NewCLI(t)

		stderr := c.MustFail(ExitError, "check", "a.yml", "b.yml")
		AssertContains(t, stderr, "too many arguments")
	})
}

func TestCheckAnnotationMatchesContextRound(t *testing.T) {
	t.Parallel()

	c := NewCLI(t)
	c.WriteContext("version: [1]\nnapkins: []\n")

	stdout, _, _ := c.Run("check")

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "version: [1] "+annotate.Marker) {
		t.Errorf("annotated text=%q", stdout)
	}
}
