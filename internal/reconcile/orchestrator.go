package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/convert"
	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

// RemoteSource adds the snapshot reads a full sync needs to [Remote].
type RemoteSource interface {
	Remote
	AllTasks(ctx context.Context) ([]task.RemoteTask, error)
	UserStats(ctx context.Context) (task.UserStats, error)
}

// Local is the local task manager.
type Local interface {
	PendingUnlinked(ctx context.Context) ([]task.LocalTask, error)
	Linked(ctx context.Context) ([]task.LocalTask, error)
	Import(ctx context.Context, t task.LocalTask) error
}

// Pattern classifies how a pair was found.
type Pattern int

// Patterns.
const (
	// LocalOnly is a pending local task never pushed.
	LocalOnly Pattern = iota
	// RemoteOnly is a remote task with no local record.
	RemoteOnly
	// RemoteVanished is a local task whose remote id no longer exists.
	RemoteVanished
	// Paired exists on both sides.
	Paired
)

// PairOutcome describes what happened to one pair.
type PairOutcome struct {
	Pattern Pattern
	Action  Action // Paired only

	LocalDescription string
	RemoteText       string

	// Result is the record written to the local manager, if Imported.
	Result   task.LocalTask
	Imported bool

	// Diff is the stats change caused by this pair.
	Diff []string
}

// Report is the result of one sync run.
type Report struct {
	Outcomes []PairOutcome
	Ledger   *stats.Ledger
}

// Orchestrator runs a full bidirectional sync.
type Orchestrator struct {
	resolver *Resolver
	remote   RemoteSource
	local    Local
	log      zerolog.Logger
}

// NewOrchestrator returns an Orchestrator.
func NewOrchestrator(resolver *Resolver, remote RemoteSource, local Local, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{resolver: resolver, remote: remote, local: local, log: log}
}

// Run snapshots both sides once, then resolves every pair in order: pending
// unlinked local tasks first, then all remote ids in ascending byte order.
//
// Pairs run strictly one after another. ctx is checked only between pairs,
// so a started pair always completes. The first error stops the run; the
// returned report still holds the outcomes of the pairs already applied.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	unlinked, err := o.local.PendingUnlinked(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load unlinked local tasks: %w", err)
	}

	linked, err := o.local.Linked(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load linked local tasks: %w", err)
	}

	remotes, err := o.remote.AllTasks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load remote tasks: %w", err)
	}

	baseline, err := o.remote.UserStats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load user stats: %w", err)
	}

	run := &runState{
		Orchestrator: o,
		report:       Report{Ledger: stats.New(baseline)},
		current:      baseline,
	}

	for _, local := range unlinked {
		err = ctx.Err()
		if err != nil {
			return run.report, err
		}

		err = run.pair(ctx, pairInput{pattern: LocalOnly, local: &local})
		if err != nil {
			return run.report, err
		}
	}

	remoteByID := make(map[uuid.UUID]task.RemoteTask, len(remotes))
	for _, r := range remotes {
		if r.HasID() {
			remoteByID[r.ID] = r
		}
	}

	localByID := make(map[uuid.UUID]task.LocalTask, len(linked))
	for _, l := range linked {
		if l.HasRemoteID() {
			localByID[l.RemoteID] = l
		}
	}

	for _, id := range pairingKeys(remoteByID, localByID) {
		err = ctx.Err()
		if err != nil {
			return run.report, err
		}

		in := pairInput{}

		if r, ok := remoteByID[id]; ok {
			in.remote = &r
		}

		if l, ok := localByID[id]; ok {
			in.local = &l
		}

		switch {
		case in.remote != nil && in.local != nil:
			in.pattern = Paired
		case in.remote != nil:
			in.pattern = RemoteOnly
		default:
			in.pattern = RemoteVanished
		}

		err = run.pair(ctx, in)
		if err != nil {
			return run.report, err
		}
	}

	return run.report, nil
}

// pairingKeys returns the sorted union of remote ids seen on either side.
func pairingKeys(remotes map[uuid.UUID]task.RemoteTask, locals map[uuid.UUID]task.LocalTask) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(remotes)+len(locals))

	for id := range remotes {
		keys = append(keys, id)
	}

	for id := range locals {
		if _, ok := remotes[id]; !ok {
			keys = append(keys, id)
		}
	}

	slices.SortFunc(keys, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	return keys
}

type pairInput struct {
	pattern Pattern
	local   *task.LocalTask
	remote  *task.RemoteTask
}

// runState is owned by one Run call.
type runState struct {
	*Orchestrator

	report  Report
	current task.UserStats
}

func (s *runState) pair(ctx context.Context, in pairInput) error {
	ledger := stats.New(s.current)

	outcome := PairOutcome{Pattern: in.pattern}
	if in.local != nil {
		outcome.LocalDescription = in.local.Description
	}

	if in.remote != nil {
		outcome.RemoteText = in.remote.Text
	}

	result, write, err := s.apply(ctx, in, ledger, &outcome)
	if err != nil {
		return fmt.Errorf("sync %q: %w", pairName(in), err)
	}

	if write {
		err = s.local.Import(ctx, result)
		if err != nil {
			return fmt.Errorf("sync %q: %w", pairName(in), err)
		}

		outcome.Result = result
		outcome.Imported = true
	}

	outcome.Diff = ledger.Diff()
	s.current = ledger.Current()
	s.report.Ledger.Absorb(ledger)
	s.report.Outcomes = append(s.report.Outcomes, outcome)

	s.log.Debug().
		Int("pattern", int(in.pattern)).
		Stringer("action", outcome.Action).
		Bool("imported", write).
		Str("task", pairName(in)).
		Msg("pair resolved")

	return nil
}

func (s *runState) apply(
	ctx context.Context,
	in pairInput,
	ledger *stats.Ledger,
	outcome *PairOutcome,
) (task.LocalTask, bool, error) {
	switch in.pattern {
	case LocalOnly:
		out, err := s.resolver.Push(ctx, *in.local, ledger)

		return out, err == nil, err

	case RemoteOnly:
		out, err := s.resolver.Pull(*in.remote, nil)

		return out, err == nil, err

	case RemoteVanished:
		out := in.local.Clone()
		out.RemoteID = uuid.Nil

		if !out.Status.Completed() {
			out.Status = task.StatusDeleted
		}

		return out, true, nil
	}

	outcome.Action = s.resolver.Decide(*in.local, *in.remote)

	switch outcome.Action {
	case UseRemote:
		out, err := s.resolver.Pull(*in.remote, in.local)

		return out, err == nil, err

	case UseLocal:
		// The baseline is the remote state in local form. Notes are left
		// alone because the local side wins.
		baseline := convert.RemoteToLocal(*in.remote, in.local)

		out, err := s.resolver.Modify(ctx, baseline, *in.local, ledger)

		return out, err == nil, err

	default:
		return task.LocalTask{}, false, nil
	}
}

func pairName(in pairInput) string {
	if in.local != nil {
		return in.local.Description
	}

	if in.remote != nil {
		return in.remote.Text
	}

	return ""
}
