package scratch

import (
	"context"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Editor is an external editing program. The file to edit is passed as the
// last argument.
type Editor struct {
	Program string
	Args    []string
}

// String returns the editor as a command line.
func (e Editor) String() string {
	return strings.Join(append([]string{e.Program}, e.Args...), " ")
}

func (e Editor) command(ctx context.Context, path string) *exec.Cmd {
	args := make([]string, 0, len(e.Args)+1)
	args = append(args, e.Args...)
	args = append(args, path)

	return exec.CommandContext(ctx, e.Program, args...) //nolint:gosec // editor is user-configured
}

// ResolveEditor picks the editor to launch.
// Priority: configured -> $VISUAL -> $EDITOR -> vi -> nano -> error.
//
// Values are split like a shell would, so EDITOR="code --wait" works.
// Candidates whose program is not on $PATH are skipped.
func ResolveEditor(configured string, env map[string]string) (Editor, error) {
	candidates := []string{configured, env["VISUAL"], env["EDITOR"], "vi", "nano"}

	for _, candidate := range candidates {
		editor, ok := parseEditor(candidate)
		if !ok {
			continue
		}

		if _, lookErr := exec.LookPath(editor.Program); lookErr == nil {
			return editor, nil
		}
	}

	return Editor{}, ErrEditorNotConfigured
}

func parseEditor(value string) (Editor, bool) {
	if strings.TrimSpace(value) == "" {
		return Editor{}, false
	}

	words, err := shellwords.Parse(value)
	if err != nil || len(words) == 0 {
		return Editor{}, false
	}

	return Editor{Program: words[0], Args: words[1:]}, true
}
