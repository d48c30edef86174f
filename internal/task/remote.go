package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RemoteDateLayout is the timestamp format used on the wire by the remote API.
const RemoteDateLayout = "2006-01-02T15:04:05.000Z07:00"

// RemoteTask is a Habitica task.
//
// IsDue is computed by the server for dailies. It is decoded from responses but
// never encoded, so a value zeroed on push is never sent back.
type RemoteTask struct {
	ID        uuid.UUID
	Text      string
	Notes     string
	Kind      Kind
	Priority  float64
	Completed bool
	Due       *time.Time
	Modified  *time.Time
	IsDue     bool
}

// HasID reports whether the task has been assigned a remote id.
func (t RemoteTask) HasID() bool {
	return t.ID != uuid.Nil
}

// EffectiveStatus derives pending or completed. A daily is pending only when it
// is not completed and due today; every other kind follows Completed.
func (t RemoteTask) EffectiveStatus() Status {
	if t.Kind == KindDaily {
		if !t.Completed && t.IsDue {
			return StatusPending
		}

		return StatusCompleted
	}

	if t.Completed {
		return StatusCompleted
	}

	return StatusPending
}

type remoteOut struct {
	ID        string  `json:"id,omitempty"`
	Text      string  `json:"text"`
	Notes     string  `json:"notes"`
	Kind      Kind    `json:"type"`
	Priority  float64 `json:"priority"`
	Completed bool    `json:"completed"`
	Date      string  `json:"date,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

type remoteIn struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Notes     string  `json:"notes"`
	Kind      Kind    `json:"type"`
	Priority  float64 `json:"priority"`
	Completed bool    `json:"completed"`
	Date      *string `json:"date"`
	UpdatedAt *string `json:"updatedAt"`
	IsDue     bool    `json:"isDue"`
}

// MarshalJSON encodes the request body form of t.
func (t RemoteTask) MarshalJSON() ([]byte, error) {
	out := remoteOut{
		Text:      t.Text,
		Notes:     t.Notes,
		Kind:      t.Kind,
		Priority:  t.Priority,
		Completed: t.Completed,
	}

	if t.HasID() {
		out.ID = t.ID.String()
	}

	if t.Due != nil {
		out.Date = t.Due.UTC().Format(RemoteDateLayout)
	}

	if t.Modified != nil {
		out.UpdatedAt = t.Modified.UTC().Format(RemoteDateLayout)
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a task as returned by the remote API.
func (t *RemoteTask) UnmarshalJSON(data []byte) error {
	var in remoteIn

	err := json.Unmarshal(data, &in)
	if err != nil {
		return fmt.Errorf("decode remote task: %w", err)
	}

	out := RemoteTask{
		Text:      in.Text,
		Notes:     in.Notes,
		Kind:      in.Kind,
		Priority:  in.Priority,
		Completed: in.Completed,
		IsDue:     in.IsDue,
	}

	if in.ID != "" {
		out.ID, err = uuid.Parse(in.ID)
		if err != nil {
			return fmt.Errorf("decode remote task id: %w", err)
		}
	}

	out.Due, err = parseRemoteDate(in.Date)
	if err != nil {
		return fmt.Errorf("decode remote task date: %w", err)
	}

	out.Modified, err = parseRemoteDate(in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("decode remote task updatedAt: %w", err)
	}

	*t = out

	return nil
}

func parseRemoteDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, *s)
	}

	ts = ts.UTC()

	return &ts, nil
}

// UserStats is a snapshot of the remote user's quantitative stats.
// Ceilings are optional because not every response carries them.
type UserStats struct {
	HP          float64 `json:"hp"`
	MaxHP       *int    `json:"maxHealth,omitempty"`
	MP          float64 `json:"mp"`
	MaxMP       *int    `json:"maxMP,omitempty"`
	Exp         float64 `json:"exp"`
	ToNextLevel *int    `json:"toNextLevel,omitempty"`
	Gold        float64 `json:"gp"`
	Level       int     `json:"lvl"`
}
