package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/napkin/internal/fs"
	"github.com/calvinalkan/napkin/internal/guard"
	"github.com/calvinalkan/napkin/internal/napkin"
)

// UnlockCmd returns the unlock command.
func UnlockCmd(cfg napkin.Config) *Command {
	flags := flag.NewFlagSet("unlock", flag.ContinueOnError)
	flagForce := flags.BoolP("force", "f", false, "Remove the lock even if its owner is running")

	return &Command{
		Flags: flags,
		Usage: "unlock [--force]",
		Short: "Remove a leftover context lock",
		Long: `Show who holds the context lock and remove it.

A lock whose owner process is gone is removed right away. If the owner is
still running you are asked to confirm on a terminal; otherwise --force is
required.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execUnlock(o, cfg, *flagForce)
		},
	}
}

func execUnlock(o *IO, cfg napkin.Config, force bool) error {
	fsys := fs.NewReal()
	path := cfg.Paths().ContextPath()

	status, err := guard.Inspect(fsys, path)
	if err != nil {
		return err
	}

	if !status.Locked {
		o.Println("not locked")

		return nil
	}

	o.Println(describeLock(status))

	if status.Alive && !force {
		confirmed, promptErr := confirmUnlock(o)
		if promptErr != nil {
			return promptErr
		}

		if !confirmed {
			return fmt.Errorf("%w: owner may still be editing (use --force to remove anyway)", guard.ErrAlreadyLocked)
		}
	}

	removed, err := guard.Break(fsys, path)
	if err != nil {
		return err
	}

	if removed {
		o.Println("removed", status.Marker)
	}

	return nil
}

func describeLock(status guard.Status) string {
	switch {
	case status.PID == 0:
		return "locked by an unknown process: " + status.Marker
	case status.Alive:
		return fmt.Sprintf("locked by running process %d: %s", status.PID, status.Marker)
	default:
		return fmt.Sprintf("locked by process %d, which is no longer running: %s", status.PID, status.Marker)
	}
}

// confirmUnlock asks on the terminal. Non-terminal stdin never confirms.
func confirmUnlock(o *IO) (bool, error) {
	in, ok := o.In().(*os.File)
	if !ok || !(isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())) {
		return false, nil
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	answer, err := line.Prompt("Remove it anyway? [y/N] ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return false, nil
		}

		return false, fmt.Errorf("reading answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
