package cli

import (
	"context"
	"slices"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/habitsync/internal/convert"
	"github.com/calvinalkan/habitsync/internal/reconcile"
	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

// noteEditWindow is how recently a note file must have been written for an
// otherwise unchanged task to be pushed again.
const noteEditWindow = 60 * time.Second

// OnAddCmd returns the on-add hook command.
func OnAddCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("on-add", flag.ContinueOnError),
		Usage: "on-add",
		Short: "Hook: push a newly added task",
		Long: "Reads one task record on stdin, creates it on Habitica and prints the record " +
			"with its Habitica id. Completed tasks are scored and their stats change is kept " +
			"for on-exit.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execOnAdd(ctx, a, o)
		},
	}
}

func execOnAdd(ctx context.Context, a *app, o *IO) error {
	line, err := o.ReadLine()
	if err != nil {
		return err
	}

	if a.mode == ModeSync {
		o.Println(line)

		return nil
	}

	t, err := parseTask(line)
	if err != nil {
		return err
	}

	remote, err := a.remote(ctx)
	if err != nil {
		return err
	}

	var ledger *stats.Ledger

	if t.Status.Completed() {
		ledger, err = a.openLedger(ctx, remote)
		if err != nil {
			return err
		}
	}

	resolver := reconcile.NewResolver(remote, a.notes(), a.clock(), a.log)

	out, err := resolver.Push(ctx, t, ledger)
	if err != nil {
		return err
	}

	if ledger != nil {
		err = ledger.Save(a.fsys, a.ledgerPath())
		if err != nil {
			return err
		}
	}

	return printTask(o, out)
}

// OnModifyCmd returns the on-modify hook command.
func OnModifyCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("on-modify", flag.ContinueOnError),
		Usage: "on-modify",
		Short: "Hook: propagate a task change",
		Long: "Reads the old and the new task record on stdin, applies the change on Habitica " +
			"and prints the resulting record. Changes Habitica does not see are passed through " +
			"without any request.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execOnModify(ctx, a, o)
		},
	}
}

func execOnModify(ctx context.Context, a *app, o *IO) error {
	oldLine, err := o.ReadLine()
	if err != nil {
		return err
	}

	newLine, err := o.ReadLine()
	if err != nil {
		return err
	}

	if a.mode == ModeSync {
		o.Println(newLine)

		return nil
	}

	old, err := parseTask(oldLine)
	if err != nil {
		return err
	}

	updated, err := parseTask(newLine)
	if err != nil {
		return err
	}

	changed, err := remoteRelevantChange(a, old, updated)
	if err != nil {
		return err
	}

	if !changed {
		a.log.Debug().Str("task", updated.ID.String()).Msg("no remote change")

		return printTask(o, updated)
	}

	remote, err := a.remote(ctx)
	if err != nil {
		return err
	}

	ledger, err := a.openLedger(ctx, remote)
	if err != nil {
		o.Warn("stats not tracked for this change: %v", err)

		ledger = nil
	}

	resolver := reconcile.NewResolver(remote, a.notes(), a.clock(), a.log)

	out, err := resolver.Modify(ctx, old, updated, ledger)
	if err != nil {
		return err
	}

	if ledger != nil {
		err = ledger.Save(a.fsys, a.ledgerPath())
		if err != nil {
			return err
		}
	}

	return printTask(o, out)
}

// remoteRelevantChange reports whether the modification from old to updated
// has to reach the remote side: the remote form differs, the note was edited
// recently, or the note annotations changed.
func remoteRelevantChange(a *app, old, updated task.LocalTask) (bool, error) {
	store := a.notes()

	recent, err := store.ModifiedWithin(updated.ID, noteEditWindow)
	if err != nil {
		return false, err
	}

	if recent {
		return true, nil
	}

	note, _, err := store.Read(updated.ID)
	if err != nil {
		return false, err
	}

	oldRemote, oldSynced := convert.LocalToRemote(old, note)
	newRemote, newSynced := convert.LocalToRemote(updated, note)

	if oldSynced != newSynced || (newSynced && !convert.SameRemote(oldRemote, newRemote)) {
		return true, nil
	}

	sameAnnotations := slices.EqualFunc(store.NoteAnnotations(old), store.NoteAnnotations(updated),
		func(x, y task.Annotation) bool {
			return x.Description == y.Description && x.Entry.Equal(y.Entry)
		})

	return !sameAnnotations, nil
}

// OnExitCmd returns the on-exit hook command.
func OnExitCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("on-exit", flag.ContinueOnError),
		Usage: "on-exit",
		Short: "Hook: report stats changes",
		Long:  "Prints the stats changes collected by earlier hooks of this command and clears them.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execOnExit(a, o)
		},
	}
}

func execOnExit(a *app, o *IO) error {
	if a.mode == ModeSync {
		return nil
	}

	ledger, err := stats.Load(a.fsys, a.ledgerPath())
	if err != nil {
		return err
	}

	if ledger == nil {
		return nil
	}

	for _, line := range ledger.Diff() {
		o.Println(line)
	}

	return stats.Remove(a.fsys, a.ledgerPath())
}
