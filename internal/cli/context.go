package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/napkin/internal/editloop"
	"github.com/calvinalkan/napkin/internal/fs"
	"github.com/calvinalkan/napkin/internal/guard"
	"github.com/calvinalkan/napkin/internal/napkin"
	"github.com/calvinalkan/napkin/internal/scratch"
)

// ContextCmd returns the context command.
func ContextCmd(cfg napkin.Config, env map[string]string, logger *zap.Logger) *Command {
	flags := flag.NewFlagSet("context", flag.ContinueOnError)
	flagEditor := flags.StringP("editor", "e", "", "Editor command for this run (overrides config)")

	return &Command{
		Flags: flags,
		Usage: "context [--editor <cmd>]",
		Short: "Open and edit the context file",
		Long: `Open the napkin context file in your editor.

The file is locked while you edit. When you close the editor the file is
checked; if it is invalid it is reopened with a '## ERROR:' comment at the
problem. Once it is valid it is saved and the lock is released.

A missing context file is created from a skeleton first.
Editor: --editor, config editor, $VISUAL, $EDITOR, vi, nano.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execContext(ctx, o, cfg, env, logger, *flagEditor)
		},
	}
}

func execContext(ctx context.Context, o *IO, cfg napkin.Config, env map[string]string, logger *zap.Logger, editorFlag string) error {
	configured := cfg.Editor
	if editorFlag != "" {
		configured = editorFlag
	}

	editor, err := scratch.ResolveEditor(configured, env)
	if err != nil {
		return err
	}

	logger.Debug("editor resolved", zap.Stringer("editor", editor))

	paths := cfg.Paths()
	fsys := fs.NewReal()

	loop := &editloop.Loop{
		FS: fsys,
		Editor: &scratch.Session{
			FS:     fsys,
			Dir:    paths.ScratchDir(),
			Suffix: napkin.ScratchSuffix,
			Editor: editor,
			Stdin:  o.In(),
			Stdout: o.Out(),
			Stderr: o.ErrOut(),
			Logger: logger.Named("scratch"),
		},
		Fields:   napkin.ContextFields,
		Skeleton: napkin.Skeleton(),
		Logger:   logger.Named("editloop"),
	}

	res, err := loop.Run(ctx, paths.ContextPath())
	if errors.Is(err, guard.ErrAlreadyLocked) {
		return fmt.Errorf("%w (run 'napkin unlock' if no other session is open)", err)
	}

	if err != nil {
		return err
	}

	napkins, err := res.Document.List("napkins")
	if err != nil {
		return err
	}

	status := "unchanged"
	if res.Changed {
		status = "saved"
	}

	o.Printf("%s %s (%d napkins, %d rounds)\n", status, paths.ContextPath(), len(napkins), res.Rounds)

	return nil
}
