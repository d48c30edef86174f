// Package reconcile pairs local and remote tasks, decides which side wins for
// each pair, and applies the winning side through the remote API and the
// local task manager.
package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/convert"
	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

// Remote is the set of remote mutations the resolver issues.
type Remote interface {
	CreateTask(ctx context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error)
	UpdateTask(ctx context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ScoreTask(ctx context.Context, id uuid.UUID, dir task.Direction) (stats.Effect, error)
}

// Notes is the note store: one free-text blob per local task.
type Notes interface {
	Read(id uuid.UUID) (string, bool, error)
	Import(t *task.LocalTask, text string) error
}

// Action is the outcome of comparing one local/remote pair.
type Action int

// Actions.
const (
	NoChange Action = iota
	UseRemote
	UseLocal
)

func (a Action) String() string {
	switch a {
	case NoChange:
		return "no-change"
	case UseRemote:
		return "use-remote"
	case UseLocal:
		return "use-local"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Resolver decides and applies the outcome for one task pair.
type Resolver struct {
	remote Remote
	notes  Notes
	clock  task.Clock
	log    zerolog.Logger
}

// NewResolver returns a Resolver.
func NewResolver(remote Remote, notes Notes, clock task.Clock, log zerolog.Logger) *Resolver {
	if clock == nil {
		clock = task.SystemClock{}
	}

	return &Resolver{remote: remote, notes: notes, clock: clock, log: log}
}

// Decide compares a paired local and remote task.
//
// Equivalent tasks need no change. Otherwise the side with the later
// modification time wins; a missing time counts as now. On a tie the local
// side wins.
func (r *Resolver) Decide(local task.LocalTask, remote task.RemoteTask) Action {
	if convert.Equivalent(local, remote) {
		return NoChange
	}

	localModified := task.ModifiedOrNow(local.Modified, r.clock)
	remoteModified := task.ModifiedOrNow(remote.Modified, r.clock)

	if remoteModified.After(localModified) {
		return UseRemote
	}

	return UseLocal
}

// Push creates or updates the remote copy of local and returns local with the
// remote id written back. A completed task is also scored up. Every effect is
// recorded in ledger. Tasks that are not synced are returned unchanged
// without any I/O.
func (r *Resolver) Push(ctx context.Context, local task.LocalTask, ledger *stats.Ledger) (task.LocalTask, error) {
	if !local.Status.Syncable() {
		return local, nil
	}

	note, err := r.noteText(local.ID)
	if err != nil {
		return task.LocalTask{}, err
	}

	remote, _ := convert.LocalToRemote(local, note)

	var (
		stored task.RemoteTask
		effect stats.Effect
	)

	if remote.HasID() {
		stored, effect, err = r.remote.UpdateTask(ctx, remote)
	} else {
		stored, effect, err = r.remote.CreateTask(ctx, remote)
	}

	if err != nil {
		return task.LocalTask{}, err
	}

	ledger.Record(effect)

	out := local.Clone()
	if stored.HasID() {
		out.RemoteID = stored.ID
	}

	r.log.Debug().
		Str("task", out.ID.String()).
		Str("remote", out.RemoteID.String()).
		Bool("created", !remote.HasID()).
		Msg("pushed task")

	if out.Status.Completed() && out.HasRemoteID() {
		effect, err = r.remote.ScoreTask(ctx, out.RemoteID, task.DirectionUp)
		if err != nil {
			return task.LocalTask{}, err
		}

		ledger.Record(effect)
	}

	return out, nil
}

// Pull builds the local form of remote, keeping the identity of existing when
// given, and stores the remote notes in the note store.
func (r *Resolver) Pull(remote task.RemoteTask, existing *task.LocalTask) (task.LocalTask, error) {
	out := convert.RemoteToLocal(remote, existing)

	err := r.notes.Import(&out, remote.Notes)
	if err != nil {
		return task.LocalTask{}, fmt.Errorf("import note for %s: %w", out.ID, err)
	}

	return out, nil
}

// Modify propagates a local change from old to updated to the remote side
// and returns the record to store locally.
//
//   - updated is no longer synced but old has a remote id: the remote task
//     is deleted and the id cleared.
//   - updated became synced, or has no remote id yet: it is pushed.
//   - otherwise the remote fields are updated, then the task is scored up on
//     pending to completed and down on completed to pending.
func (r *Resolver) Modify(ctx context.Context, old, updated task.LocalTask, ledger *stats.Ledger) (task.LocalTask, error) {
	if !updated.Status.Syncable() {
		if !old.HasRemoteID() {
			return updated, nil
		}

		err := r.remote.DeleteTask(ctx, old.RemoteID)
		if err != nil {
			return task.LocalTask{}, err
		}

		out := updated.Clone()
		out.RemoteID = uuid.Nil

		return out, nil
	}

	if !old.Status.Syncable() || !updated.HasRemoteID() {
		return r.Push(ctx, updated, ledger)
	}

	note, err := r.noteText(updated.ID)
	if err != nil {
		return task.LocalTask{}, err
	}

	remote, _ := convert.LocalToRemote(updated, note)

	_, effect, err := r.remote.UpdateTask(ctx, remote)
	if err != nil {
		return task.LocalTask{}, err
	}

	ledger.Record(effect)

	var dir task.Direction

	switch {
	case !old.Status.Completed() && updated.Status.Completed():
		dir = task.DirectionUp
	case old.Status.Completed() && !updated.Status.Completed():
		dir = task.DirectionDown
	default:
		return updated, nil
	}

	effect, err = r.remote.ScoreTask(ctx, updated.RemoteID, dir)
	if err != nil {
		return task.LocalTask{}, err
	}

	ledger.Record(effect)

	return updated, nil
}

func (r *Resolver) noteText(id uuid.UUID) (string, error) {
	text, _, err := r.notes.Read(id)
	if err != nil {
		return "", fmt.Errorf("read note for %s: %w", id, err)
	}

	return text, nil
}
