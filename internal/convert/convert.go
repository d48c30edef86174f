// Package convert maps tasks between the local and remote data models.
package convert

import (
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/habitsync/internal/task"
)

// LocalToRemote builds the remote form of local. It returns false when the
// local status is not mirrored to the remote (deleted, recurring).
//
// A zero RemoteID on the result means the task must be created; otherwise it
// is the update target. IsDue is never set here.
func LocalToRemote(local task.LocalTask, noteText string) (task.RemoteTask, bool) {
	if !local.Status.Syncable() {
		return task.RemoteTask{}, false
	}

	return task.RemoteTask{
		ID:        local.RemoteID,
		Text:      local.Description,
		Notes:     noteText,
		Kind:      RemoteKind(local),
		Priority:  local.DifficultyOrDefault().Priority(),
		Completed: local.Status.Completed(),
		Due:       cloneTime(local.Due),
		Modified:  cloneTime(local.Modified),
	}, true
}

// RemoteToLocal builds the local form of remote.
//
// When existing is given its identity, annotations and passthrough fields are
// kept, and a waiting task stays waiting while the remote reports it pending.
// Without existing a fresh identity is minted.
func RemoteToLocal(remote task.RemoteTask, existing *task.LocalTask) task.LocalTask {
	status := remote.EffectiveStatus()

	out := task.LocalTask{
		Description: remote.Text,
		Status:      status,
		Modified:    cloneTime(remote.Modified),
		Due:         cloneTime(remote.Due),
		RemoteID:    remote.ID,
		Difficulty:  task.DifficultyFromPriority(remote.Priority),
		Kind:        remote.Kind,
	}

	if existing == nil {
		out.ID = uuid.New()

		return out
	}

	prior := existing.Clone()
	out.ID = prior.ID
	out.Annotations = prior.Annotations
	out.Extra = prior.Extra

	if prior.Status == task.StatusWaiting && status == task.StatusPending {
		out.Status = task.StatusWaiting
	}

	return out
}

// Equivalent reports whether local and remote agree on every synced field:
// description, due date, numeric priority, type, completion and remote id.
// Modification times are not compared.
func Equivalent(local task.LocalTask, remote task.RemoteTask) bool {
	switch {
	case local.Description != remote.Text:
		return false
	case !sameTime(local.Due, remote.Due):
		return false
	case local.DifficultyOrDefault().Priority() != remote.Priority:
		return false
	case RemoteKind(local) != remote.Kind:
		return false
	case local.Status.Completed() != remote.Completed:
		return false
	case local.RemoteID != remote.ID:
		return false
	}

	return true
}

// SameRemote reports whether a and b would send the same task content.
// Modification times are ignored.
func SameRemote(a, b task.RemoteTask) bool {
	return a.ID == b.ID &&
		a.Text == b.Text &&
		a.Notes == b.Notes &&
		a.Kind == b.Kind &&
		a.Priority == b.Priority &&
		a.Completed == b.Completed &&
		a.IsDue == b.IsDue &&
		sameTime(a.Due, b.Due)
}

// RemoteKind is the remote type local is pushed as. Only todos and dailies
// are created remotely; habits and rewards are pushed as todos.
func RemoteKind(local task.LocalTask) task.Kind {
	if local.KindOrDefault() == task.KindDaily {
		return task.KindDaily
	}

	return task.KindTodo
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}

func cloneTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}

	v := *ts

	return &v
}
