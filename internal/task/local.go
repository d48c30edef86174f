package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the Taskwarrior basic date format. All dates are UTC.
const DateLayout = "20060102T150405Z"

// Errors returned when decoding a local task record.
var (
	ErrMissingUUID   = errors.New("task record has no uuid")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidDate   = errors.New("invalid task date")
	ErrNotAnObject   = errors.New("task record is not a JSON object")
)

// Annotation is a timestamped note line attached to a local task.
type Annotation struct {
	Entry       time.Time
	Description string
}

// LocalTask is a Taskwarrior task.
//
// RemoteID is [uuid.Nil] until the task has been pushed. Difficulty and Kind
// are empty when the task never carried them; use [LocalTask.DifficultyOrDefault]
// and [LocalTask.KindOrDefault] to read them.
type LocalTask struct {
	ID          uuid.UUID
	Description string
	Status      Status
	Modified    *time.Time
	Due         *time.Time
	Annotations []Annotation
	RemoteID    uuid.UUID
	Difficulty  Difficulty
	Kind        Kind
	Extra       Fields
}

// HasRemoteID reports whether the task is linked to a remote task.
func (t LocalTask) HasRemoteID() bool {
	return t.RemoteID != uuid.Nil
}

// DifficultyOrDefault returns the task difficulty, defaulting to easy.
func (t LocalTask) DifficultyOrDefault() Difficulty {
	if t.Difficulty == "" {
		return DifficultyEasy
	}

	return t.Difficulty
}

// KindOrDefault returns the remote type recorded on the task, defaulting to todo.
func (t LocalTask) KindOrDefault() Kind {
	if t.Kind == "" {
		return KindTodo
	}

	return t.Kind
}

// Clone returns a deep copy of t.
func (t LocalTask) Clone() LocalTask {
	out := t
	out.Modified = cloneTime(t.Modified)
	out.Due = cloneTime(t.Due)

	if t.Annotations != nil {
		out.Annotations = append([]Annotation(nil), t.Annotations...)
	}

	out.Extra = t.Extra.Clone()

	return out
}

// Local record keys.
const (
	keyUUID        = "uuid"
	keyDescription = "description"
	keyStatus      = "status"
	keyModified    = "modified"
	keyDue         = "due"
	keyAnnotations = "annotations"
	keyDifficulty  = "habitica_difficulty"
	keyKind        = "habitica_task_type"
)

// KeyRemoteID is the user-defined attribute holding the remote task id.
const KeyRemoteID = "habitica_uuid"

type annotationJSON struct {
	Entry       string `json:"entry"`
	Description string `json:"description"`
}

// MarshalJSON writes the known keys first, then the passthrough keys in their
// original order.
func (t LocalTask) MarshalJSON() ([]byte, error) {
	var w objectWriter

	w.field(keyUUID, t.ID.String())
	w.field(keyDescription, t.Description)
	w.field(keyStatus, t.Status)

	if t.Modified != nil {
		w.field(keyModified, FormatDate(*t.Modified))
	}

	if t.Due != nil {
		w.field(keyDue, FormatDate(*t.Due))
	}

	if len(t.Annotations) > 0 {
		annos := make([]annotationJSON, 0, len(t.Annotations))
		for _, a := range t.Annotations {
			annos = append(annos, annotationJSON{Entry: FormatDate(a.Entry), Description: a.Description})
		}

		w.field(keyAnnotations, annos)
	}

	if t.HasRemoteID() {
		w.field(KeyRemoteID, t.RemoteID.String())
	}

	if t.Difficulty != "" {
		w.field(keyDifficulty, t.Difficulty)
	}

	if t.Kind != "" {
		w.field(keyKind, t.Kind)
	}

	for _, k := range t.Extra.keys {
		w.raw(k, t.Extra.values[k])
	}

	return w.close()
}

// UnmarshalJSON decodes a Taskwarrior record. Keys it does not know are kept
// in [LocalTask.Extra] in the order they appear.
func (t *LocalTask) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode task: %w", err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	var out LocalTask

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode task: %w", err)
		}

		key, _ := keyTok.(string)

		var raw json.RawMessage

		err = dec.Decode(&raw)
		if err != nil {
			return fmt.Errorf("decode task field %q: %w", key, err)
		}

		err = out.setField(key, raw)
		if err != nil {
			return err
		}
	}

	if out.ID == uuid.Nil {
		return ErrMissingUUID
	}

	*t = out

	return nil
}

func (t *LocalTask) setField(key string, raw json.RawMessage) error {
	switch key {
	case keyUUID:
		return decodeUUID(key, raw, &t.ID)
	case keyDescription:
		return decodeString(key, raw, &t.Description)
	case keyStatus:
		var s string

		err := decodeString(key, raw, &s)
		if err != nil {
			return err
		}

		if !Status(s).Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
		}

		t.Status = Status(s)
	case keyModified:
		return decodeDate(key, raw, &t.Modified)
	case keyDue:
		return decodeDate(key, raw, &t.Due)
	case keyAnnotations:
		var annos []annotationJSON

		err := json.Unmarshal(raw, &annos)
		if err != nil {
			return fmt.Errorf("decode task field %q: %w", key, err)
		}

		for _, a := range annos {
			entry, err := ParseDate(a.Entry)
			if err != nil {
				return fmt.Errorf("decode annotation entry: %w", err)
			}

			t.Annotations = append(t.Annotations, Annotation{Entry: entry, Description: a.Description})
		}
	case KeyRemoteID:
		return decodeUUID(key, raw, &t.RemoteID)
	case keyDifficulty:
		var s string

		err := decodeString(key, raw, &s)
		t.Difficulty = Difficulty(s)

		return err
	case keyKind:
		var s string

		err := decodeString(key, raw, &s)
		t.Kind = Kind(s)

		return err
	default:
		// Hook output must stay on a single line.
		var compact bytes.Buffer
		if json.Compact(&compact, raw) == nil {
			raw = compact.Bytes()
		}

		t.Extra.Set(key, raw)
	}

	return nil
}

// FormatDate renders ts in [DateLayout].
func FormatDate(ts time.Time) string {
	return ts.UTC().Format(DateLayout)
}

// ParseDate parses a Taskwarrior date. RFC 3339 is accepted as well since
// some Taskwarrior versions emit it for imported records.
func ParseDate(s string) (time.Time, error) {
	ts, err := time.Parse(DateLayout, s)
	if err == nil {
		return ts.UTC(), nil
	}

	ts, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr == nil {
		return ts.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func decodeString(key string, raw json.RawMessage, dst *string) error {
	if isNull(raw) {
		*dst = ""

		return nil
	}

	err := json.Unmarshal(raw, dst)
	if err != nil {
		return fmt.Errorf("decode task field %q: %w", key, err)
	}

	return nil
}

func decodeUUID(key string, raw json.RawMessage, dst *uuid.UUID) error {
	var s string

	err := decodeString(key, raw, &s)
	if err != nil || s == "" {
		return err
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("decode task field %q: %w", key, err)
	}

	*dst = id

	return nil
}

func decodeDate(key string, raw json.RawMessage, dst **time.Time) error {
	var s string

	err := decodeString(key, raw, &s)
	if err != nil || s == "" {
		return err
	}

	ts, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("decode task field %q: %w", key, err)
	}

	*dst = &ts

	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func cloneTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}

	v := *ts

	return &v
}

// objectWriter builds a JSON object with keys in call order.
type objectWriter struct {
	buf bytes.Buffer
	err error
}

func (w *objectWriter) field(key string, value any) {
	if w.err != nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("encode task field %q: %w", key, err)

		return
	}

	w.raw(key, data)
}

func (w *objectWriter) raw(key string, value json.RawMessage) {
	if w.err != nil {
		return
	}

	if w.buf.Len() == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}

	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(value)
}

func (w *objectWriter) close() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}

	if w.buf.Len() == 0 {
		return []byte("{}"), nil
	}

	w.buf.WriteByte('}')

	return w.buf.Bytes(), nil
}
