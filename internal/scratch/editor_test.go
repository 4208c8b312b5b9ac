package scratch_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/napkin/internal/scratch"
)

func TestResolveEditorPriority(t *testing.T) {
	t.Parallel()

	configured := writeScript(t, "exit 0")
	visual := writeScript(t, "exit 0")
	editor := writeScript(t, "exit 0")
	missing := filepath.Join(t.TempDir(), "not-installed")

	tests := []struct {
		name       string
		configured string
		env        map[string]string
		want       scratch.Editor
	}{
		{
			name:       "configured wins",
			configured: configured,
			env:        map[string]string{"VISUAL": visual, "EDITOR": editor},
			want:       scratch.Editor{Program: configured},
		},
		{
			name:       "visual before editor",
			configured: "",
			env:        map[string]string{"VISUAL": visual, "EDITOR": editor},
			want:       scratch.Editor{Program: visual},
		},
		{
			name:       "editor with arguments",
			configured: "   ",
			env:        map[string]string{"EDITOR": editor + ` --wait "-c set ft=yaml"`},
			want:       scratch.Editor{Program: editor, Args: []string{"--wait", "-c set ft=yaml"}},
		},
		{
			name:       "uninstalled candidates are skipped",
			configured: missing,
			env:        map[string]string{"VISUAL": missing + " -f", "EDITOR": editor},
			want:       scratch.Editor{Program: editor},
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := scratch.ResolveEditor(tt.configured, tt.env)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}

			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("editor mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Not parallel: replaces $PATH so the vi/nano fallbacks cannot be found.
func TestResolveEditorNothingAvailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := scratch.ResolveEditor("", map[string]string{"EDITOR": "nonexistent-editor"})
	if !errors.Is(err, scratch.ErrEditorNotConfigured) {
		t.Fatalf("err=%v, want ErrEditorNotConfigured", err)
	}
}

func TestEditorString(t *testing.T) {
	t.Parallel()

	e := scratch.Editor{Program: "code", Args: []string{"--wait"}}
	if got, want := e.String(), "code --wait"; got != want {
		t.Errorf("String()=%q, want=%q", got, want)
	}
}
