package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from. The API key is masked.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(a, o)
		},
	}
}

func execPrintConfig(a *app, o *IO) error {
	cfg := a.cfg

	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("user_id=" + cfg.UserID)
	o.Println("api_key=" + maskSecret(cfg.APIKey))
	o.Println("base_url=" + cfg.BaseURL)
	o.Println("note_dir=" + cfg.NoteDirAbs)
	o.Println("note_prefix=" + cfg.NotePrefix)
	o.Println("note_extension=" + cfg.NoteExtension)
	o.Println("data_dir=" + cfg.DataDirAbs)
	o.Println("task_command=" + cfg.TaskCommand)
	o.Println("request_interval=" + cfg.Interval.String())
	o.Println("mode=" + a.mode.String())

	if cfg.Editor != "" {
		o.Println("editor=" + cfg.Editor)
	}

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			o.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			o.Println("project_config=" + cfg.Sources.Project)
		}
	}

	if cfg.Sources.Credentials != "" {
		o.Println("credentials=" + cfg.Sources.Credentials)
	}

	return nil
}

// maskSecret keeps the last four characters of s.
func maskSecret(s string) string {
	const visible = 4

	if s == "" {
		return ""
	}

	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}

	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}
