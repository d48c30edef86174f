// Package cli implements the habitsync command-line interface: the
// Taskwarrior hooks, the full sync and the configuration commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/habitsync/internal/config"
	"github.com/calvinalkan/habitsync/internal/fs"
)

// Run is the main entry point. Returns exit code.
//
// When the binary is installed as a hook (its name starts with on-add,
// on-modify or on-exit) the hook command runs regardless of args.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	return run(in, out, errOut, args, env, sigCh, deps{})
}

type globalOptions struct {
	workDir    string
	configPath string
	dataDir    string
	verbose    bool
	help       bool
}

func newGlobalFlags(opts *globalOptions) *flag.FlagSet {
	flags := flag.NewFlagSet("habitsync", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(&strings.Builder{})

	flags.StringVarP(&opts.workDir, "cwd", "C", "", "Run as if started in `dir`")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Use specified config `file`")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Store the pending stats file in `dir`")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests and show unchanged tasks")
	flags.BoolVarP(&opts.help, "help", "h", false, "Show help")

	return flags
}

func run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal, d deps) int {
	o := NewIO(in, out, errOut)

	var opts globalOptions

	globalFlags := newGlobalFlags(&opts)

	var rest []string

	if len(args) > 0 {
		if hook := hookFromProgram(args[0]); hook != "" {
			rest = []string{hook}
		} else {
			err := globalFlags.Parse(args[1:])
			if err != nil {
				o.ErrPrintln("error:", err)
				printUsage(errOut, globalFlags, nil)

				return 1
			}

			rest = globalFlags.Args()
		}
	}

	if opts.help || len(rest) == 0 {
		printUsage(out, globalFlags, nil)

		return 0
	}

	if opts.dataDir == "" && globalFlags.Changed("data-dir") {
		o.ErrPrintln("error:", errEmptyDataDir)
		printUsage(errOut, globalFlags, nil)

		return 1
	}

	cfg, err := config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride: opts.workDir,
		ConfigPath:      opts.configPath,
		DataDirOverride: opts.dataDir,
		Env:             env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	a := &app{
		cfg:     cfg,
		env:     env,
		mode:    ModeFromEnv(env),
		verbose: opts.verbose,
		log:     newLogger(errOut, opts.verbose),
		fsys:    fs.NewReal(),
		stdin:   in,
		deps:    d,
	}

	commands := allCommands(a)

	name := rest[0]

	var cmd *Command

	for _, c := range commands {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		o.ErrPrintln("error: unknown command:", name)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				a.log.Debug().Msg("interrupted, stopping after the current task")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	a.log.Debug().Str("command", name).Str("mode", a.mode.String()).Msg("starting")

	return cmd.Run(ctx, o, rest[1:])
}

var errEmptyDataDir = errors.New("data-dir cannot be empty")

func allCommands(a *app) []*Command {
	return []*Command{
		SyncCmd(a),
		OnAddCmd(a),
		OnModifyCmd(a),
		OnExitCmd(a),
		NoteCmd(a),
		ConfigureCmd(a),
		PrintConfigCmd(a),
	}
}

// hookFromProgram maps a hook script name such as "on-modify.habitsync" to
// its command.
func hookFromProgram(program string) string {
	base := filepath.Base(program)

	for _, hook := range []string{"on-add", "on-modify", "on-exit"} {
		if strings.HasPrefix(base, hook) {
			return hook
		}
	}

	return ""
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet, commands []*Command) {
	if commands == nil {
		commands = allCommands(&app{})
	}

	_, _ = fmt.Fprintln(w, "habitsync - two-way sync between Taskwarrior and Habitica")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage: habitsync [flags] <command> [args]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Global flags:")
	_, _ = fmt.Fprint(w, globalFlags.FlagUsages())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")

	for _, c := range commands {
		_, _ = fmt.Fprintln(w, c.HelpLine())
	}
}
