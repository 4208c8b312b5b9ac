package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/napkin/internal/napkin"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg napkin.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg napkin.Config) error {
	paths := cfg.Paths()

	io.Println("home=" + cfg.HomeAbs + " (" + cfg.HomeSource + ")")
	io.Println("context=" + paths.ContextPath())
	io.Println("lock=" + paths.LockPath())
	io.Println("scratch=" + paths.ScratchDir())

	if cfg.Editor != "" {
		io.Println("editor=" + cfg.Editor)
	}

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Explicit == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Explicit != "" {
			io.Println("explicit_config=" + cfg.Sources.Explicit)
		}
	}

	return nil
}
