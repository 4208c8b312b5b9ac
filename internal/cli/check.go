package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/napkin/internal/annotate"
	"github.com/calvinalkan/napkin/internal/document"
	"github.com/calvinalkan/napkin/internal/editloop"
	"github.com/calvinalkan/napkin/internal/fs"
	"github.com/calvinalkan/napkin/internal/napkin"
)

var errTooManyArgs = errors.New("too many arguments")

// CheckCmd returns the check command.
func CheckCmd(cfg napkin.Config) *Command {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flagQuiet := flags.BoolP("quiet", "q", false, "Do not print the annotated text")

	return &Command{
		Flags: flags,
		Usage: "check [file]",
		Short: "Validate a context file without editing it",
		Long: `Parse and validate a context file (default: the one in the napkin home).

If it is invalid, the text is printed with the '## ERROR:' comment the
context command would add, and the command fails. No lock is taken.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execCheck(o, cfg, args, *flagQuiet)
		},
	}
}

func execCheck(o *IO, cfg napkin.Config, args []string, quiet bool) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[1:], " "))
	}

	path := cfg.Paths().ContextPath()
	if len(args) == 1 {
		path = args[0]
	}

	data, err := fs.NewReal().ReadFile(path)
	if err != nil {
		return &editloop.DocumentError{Op: "read", Path: path, Err: err}
	}

	text := string(data)

	_, err = document.ParseAndValidate(text, napkin.ContextFields)
	if err == nil {
		if strings.Contains(text, annotate.Marker) {
			o.Warn("leftover error comments in "+path, "remove the '"+strings.TrimSpace(annotate.Marker)+"' lines")
		}

		o.Println("ok", path)

		return nil
	}

	fieldErr, ok := document.AsFieldError(err)
	if !ok {
		return err
	}

	if !quiet {
		o.Printf("%s", annotate.Annotate(text, fieldErr))
	}

	return fmt.Errorf("%s: %w", path, fieldErr)
}
