package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/habitsync/internal/reconcile"
)

// SyncCmd returns the sync command.
func SyncCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sync", flag.ContinueOnError),
		Usage: "sync",
		Short: "Reconcile all tasks in both directions",
		Long: "Pairs every local task with its Habitica counterpart by Habitica id and brings " +
			"each pair in line with the newer side. Unlinked local tasks are pushed, unknown " +
			"Habitica tasks are imported and tasks deleted on Habitica are marked deleted locally.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execSync(ctx, a, o)
		},
	}
}

func execSync(ctx context.Context, a *app, o *IO) error {
	remote, err := a.remote(ctx)
	if err != nil {
		return err
	}

	local := a.local()
	resolver := reconcile.NewResolver(remote, a.notes(), a.clock(), a.log)
	orchestrator := reconcile.NewOrchestrator(resolver, remote, local, a.log)

	o.Println("Syncing tasks between Taskwarrior and Habitica...")
	o.Println()

	report, err := orchestrator.Run(ctx)

	for _, outcome := range report.Outcomes {
		lines := outcome.Lines(a.verbose)
		if len(lines) == 0 {
			continue
		}

		for _, line := range lines {
			o.Println(line)
		}

		o.Println()
	}

	printSyncSummary(o, report)

	if err != nil {
		return err
	}

	o.Println("Sync complete!")

	return nil
}

// printSyncSummary prints the stats change of the whole run. It is printed
// for failed runs too, since the pairs handled before the failure already
// changed the stats.
func printSyncSummary(o *IO, report reconcile.Report) {
	diff := report.Ledger.Diff()
	if len(diff) == 0 {
		return
	}

	o.Println("Stats changes:")

	for _, line := range diff {
		o.Println("  " + line)
	}

	o.Println()
}
