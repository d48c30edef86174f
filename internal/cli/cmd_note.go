package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/habitsync/internal/reconcile"
	"github.com/calvinalkan/habitsync/internal/task"
)

var (
	errTaskIDRequired = errors.New("task uuid is required")
	errTaskNotFound   = errors.New("task not found")
	errNoEditorFound  = errors.New("no editor found (set editor in config, $EDITOR, or install vi/nano)")
	errEditorFailed   = errors.New("editor failed")
)

// NoteCmd returns the note command.
func NoteCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("note", flag.ContinueOnError),
		Usage: "note <uuid>",
		Short: "Edit a task's note in your editor",
		Long: "Opens the note file of a task in your editor. Afterwards the first line is " +
			"mirrored as an annotation and, for a linked task, the note is pushed to Habitica.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execNote(ctx, a, o, args)
		},
	}
}

func execNote(ctx context.Context, a *app, o *IO, args []string) error {
	if len(args) == 0 {
		return errTaskIDRequired
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", errTaskNotFound, args[0])
	}

	local := a.local()

	found, err := local.Export(ctx, "uuid:"+id.String())
	if err != nil {
		return err
	}

	if len(found) != 1 {
		return fmt.Errorf("%w: %s", errTaskNotFound, id)
	}

	old := found[0]

	editor, err := resolveEditor(a.cfg.Editor, a.env)
	if err != nil {
		return err
	}

	store := a.notes()

	err = a.fsys.MkdirAll(a.cfg.NoteDirAbs, 0o750)
	if err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}

	err = runEditor(ctx, editor, store.Path(id), a.stdin, o)
	if err != nil {
		return err
	}

	text, _, err := store.Read(id)
	if err != nil {
		return err
	}

	updated := old.Clone()

	err = store.Import(&updated, text)
	if err != nil {
		return err
	}

	if updated.HasRemoteID() && updated.Status.Syncable() {
		remote, remoteErr := a.remote(ctx)
		if remoteErr != nil {
			return remoteErr
		}

		resolver := reconcile.NewResolver(remote, store, a.clock(), a.log)

		updated, err = resolver.Modify(ctx, old, updated, nil)
		if err != nil {
			return err
		}
	}

	err = local.Import(ctx, updated)
	if err != nil {
		return err
	}

	o.Println("Updated note for " + describe(updated))

	return nil
}

func describe(t task.LocalTask) string {
	if t.Description == "" {
		return t.ID.String()
	}

	return fmt.Sprintf("%q", t.Description)
}

// resolveEditor picks the editor to run.
// Priority: configured editor -> $EDITOR -> vi -> nano -> error.
func resolveEditor(configured string, env map[string]string) (string, error) {
	for _, candidate := range []string{configured, env["EDITOR"], "vi", "nano"} {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}

		_, err := exec.LookPath(fields[0])
		if err == nil {
			return candidate, nil
		}
	}

	return "", errNoEditorFound
}

// runEditor runs editor on path with the process stdin so terminal editors
// work.
func runEditor(ctx context.Context, editor, path string, stdin io.Reader, o *IO) error {
	// $EDITOR may carry arguments, e.g. "code -w".
	fields := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = o.out
	cmd.Stderr = o.errOut

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%w: %w", errEditorFailed, err)
	}

	return nil
}
