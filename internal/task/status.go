// Package task holds the shared task model for both replicas: the local
// Taskwarrior record, the remote Habitica record, user stats, and the small
// algebra over statuses and difficulties that the converter and resolver build on.
package task

import "math"

// Status is the lifecycle state of a local task.
type Status string

// Local task statuses.
const (
	StatusPending   Status = "pending"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusRecurring Status = "recurring"
)

// Syncable reports whether a task in this status is mirrored to the remote.
// Deleted and recurring tasks never are.
func (s Status) Syncable() bool {
	switch s {
	case StatusPending, StatusWaiting, StatusCompleted:
		return true
	default:
		return false
	}
}

// Completed reports whether s is the completed status.
func (s Status) Completed() bool {
	return s == StatusCompleted
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Syncable() || s == StatusDeleted || s == StatusRecurring
}

// Difficulty is the local name for one of the four remote priority buckets.
type Difficulty string

// Difficulties, ordered from easiest to hardest.
const (
	DifficultyTrivial Difficulty = "trivial"
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
)

// Remote priority values, one per difficulty bucket.
const (
	PriorityTrivial = 0.1
	PriorityEasy    = 1.0
	PriorityMedium  = 1.5
	PriorityHard    = 2.0
)

// priorityTolerance is the distance within which a numeric priority is
// considered to match a bucket.
const priorityTolerance = 0.01

// Priority returns the remote priority for d. Unknown difficulties map to the
// easy bucket, which is also the default for tasks without a difficulty.
func (d Difficulty) Priority() float64 {
	switch d {
	case DifficultyTrivial:
		return PriorityTrivial
	case DifficultyMedium:
		return PriorityMedium
	case DifficultyHard:
		return PriorityHard
	default:
		return PriorityEasy
	}
}

// DifficultyFromPriority decodes a numeric priority back into a bucket.
// Thresholds are checked in order trivial, easy, medium; anything else is hard.
func DifficultyFromPriority(priority float64) Difficulty {
	switch {
	case math.Abs(priority-PriorityTrivial) < priorityTolerance:
		return DifficultyTrivial
	case math.Abs(priority-PriorityEasy) < priorityTolerance:
		return DifficultyEasy
	case math.Abs(priority-PriorityMedium) < priorityTolerance:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Kind is the remote task type.
type Kind string

// Remote task types.
const (
	KindTodo   Kind = "todo"
	KindDaily  Kind = "daily"
	KindHabit  Kind = "habit"
	KindReward Kind = "reward"
)

// Direction is the scoring direction for a remote task.
type Direction string

// Scoring directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)
