// Package stats accumulates the user-stat deltas returned by remote mutations
// and renders them as a human-readable diff exactly once.
package stats

import (
	"fmt"
	"math"

	"github.com/calvinalkan/habitsync/internal/task"
)

// Effect is what a single remote mutation reports back: an optional stats
// snapshot and an optional reward message.
type Effect struct {
	Stats   *task.UserStats
	Message string
}

// Ledger tracks the stats before a sequence of remote mutations and the most
// recent snapshot after them.
//
// A nil *Ledger is valid and records nothing.
type Ledger struct {
	Baseline task.UserStats  `json:"baseline"`
	Latest   *task.UserStats `json:"latest"`
	Messages []string        `json:"messages"`
}

// New returns a ledger with the given baseline.
func New(baseline task.UserStats) *Ledger {
	return &Ledger{Baseline: baseline, Messages: []string{}}
}

// Record folds one mutation effect into the ledger. Latest is replaced only
// when the effect carries stats, so an empty response never erases a delta.
func (l *Ledger) Record(e Effect) {
	if l == nil {
		return
	}

	if e.Stats != nil {
		s := *e.Stats
		l.Latest = &s
	}

	if e.Message != "" {
		l.Messages = append(l.Messages, e.Message)
	}
}

// Absorb folds everything other recorded into l, keeping l's baseline.
func (l *Ledger) Absorb(other *Ledger) {
	if l == nil || other == nil {
		return
	}

	l.Record(Effect{Stats: other.Latest})
	l.Messages = append(l.Messages, other.Messages...)
}

// Current returns the most recent known stats.
func (l *Ledger) Current() task.UserStats {
	if l.Latest != nil {
		return *l.Latest
	}

	return l.Baseline
}

// suppressBelow is the smallest delta worth reporting.
const suppressBelow = 0.01

// Diff renders the change from Baseline to Latest, one line per metric, in
// the order level, HP, MP, Exp, Gold, followed by the reward messages.
func (l *Ledger) Diff() []string {
	if l == nil {
		return nil
	}

	if l.Latest == nil {
		return append([]string{}, l.Messages...)
	}

	old, cur := l.Baseline, *l.Latest
	lines := []string{}

	switch {
	case cur.Level > old.Level:
		lines = append(lines, fmt.Sprintf("LEVEL UP! (%d -> %d)", old.Level, cur.Level))
	case cur.Level < old.Level:
		lines = append(lines, fmt.Sprintf("LEVEL LOST! (%d -> %d)", old.Level, cur.Level))
	}

	lines = appendMetric(lines, "HP", old.HP, cur.HP, cur.MaxHP)
	lines = appendMetric(lines, "MP", old.MP, cur.MP, cur.MaxMP)

	// Exp resets on level change, so its delta would be meaningless.
	if cur.Level == old.Level {
		lines = appendMetric(lines, "Exp", old.Exp, cur.Exp, nil)
	}

	lines = appendMetric(lines, "Gold", old.Gold, cur.Gold, nil)

	return append(lines, l.Messages...)
}

func appendMetric(lines []string, name string, old, cur float64, ceiling *int) []string {
	delta := cur - old
	if math.Abs(delta) < suppressBelow {
		return lines
	}

	sign := "+"
	if delta < 0 {
		sign = "-"
	}

	value := formatMagnitude(cur)
	if ceiling != nil {
		value = fmt.Sprintf("%s/%d", value, *ceiling)
	}

	return append(lines, fmt.Sprintf("%s:%s%s (%s)", name, sign, formatMagnitude(math.Abs(delta)), value))
}

func formatMagnitude(v float64) string {
	if math.Abs(v) < 1.0 {
		return fmt.Sprintf("%.2f", v)
	}

	return fmt.Sprintf("%d", int64(math.Round(v)))
}
