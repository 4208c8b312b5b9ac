package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/napkin/internal/napkin"
)

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the running command; an open editor is killed
// and the command exits with [ExitAborted]. sigCh may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("napkin", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	flagConfig := globals.StringP("config", "c", "", "Use specified config file")
	flagHome := globals.String("home", "", "Napkin home directory")
	flagVerbose := globals.BoolP("verbose", "v", false, "Log debug output to stderr")
	flagHelp := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	if err := globals.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return ExitError
	}

	logger := newLogger(errOut, *flagVerbose || env["NAPKIN_DEBUG"] == "1")
	defer func() { _ = logger.Sync() }()

	cfg, err := napkin.LoadConfig(napkin.LoadConfigInput{
		ConfigPath:   *flagConfig,
		HomeOverride: *flagHome,
		Env:          env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return ExitError
	}

	logger.Debug("config loaded",
		zap.String("home", cfg.HomeAbs),
		zap.String("home_source", cfg.HomeSource),
		zap.String("global", cfg.Sources.Global),
		zap.String("explicit", cfg.Sources.Explicit),
	)

	commands := []*Command{
		ContextCmd(cfg, env, logger),
		CheckCmd(cfg),
		UnlockCmd(cfg),
		PrintConfigCmd(cfg),
	}

	rest := globals.Args()
	if *flagHelp || len(rest) == 0 {
		printUsage(out, globals, commands)

		return ExitOK
	}

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, globals, commands)

		return ExitError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			logger.Debug("signal received, aborting", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	ioCtx := NewIO(stdin, out, errOut)

	if code := cmd.Run(ctx, ioCtx, rest[1:]); code != ExitOK {
		return code
	}

	// Finish handles warnings and exit code
	return ioCtx.Finish()
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, `napkin - edit the napkin context file

Usage: napkin [options] <command> [args]

Options:`)
	fprintln(w, strings.TrimRight(globals.FlagUsages(), "\n"))

	if len(commands) == 0 {
		return
	}

	fprintln(w, "\nCommands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
