package stats_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/habitsync/internal/fs"
	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

func intPtr(v int) *int { return &v }

func snapshot(hp, mp, exp, gold float64, level int) task.UserStats {
	return task.UserStats{
		HP:          hp,
		MaxHP:       intPtr(50),
		MP:          mp,
		MaxMP:       intPtr(30),
		Exp:         exp,
		ToNextLevel: intPtr(100),
		Gold:        gold,
		Level:       level,
	}
}

func TestDiffWithoutLatestReturnsOnlyMessages(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 0, 100, 1))
	l.Record(stats.Effect{Message: "You found a Sword!"})

	assert.Equal(t, []string{"You found a Sword!"}, l.Diff())
}

func TestDiffSuppressesTinyDeltas(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 10, 100, 3))
	next := snapshot(50.005, 29.995, 10.009, 100.001, 3)
	l.Record(stats.Effect{Stats: &next})

	assert.Empty(t, l.Diff())
}

func TestDiffLevelUpSuppressesExp(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 90, 100, 1))
	next := snapshot(50, 30, 10, 100, 2)
	l.Record(stats.Effect{Stats: &next})

	lines := l.Diff()
	require.NotEmpty(t, lines)
	assert.Equal(t, "LEVEL UP! (1 -> 2)", lines[0])

	for _, line := range lines {
		assert.NotContains(t, line, "Exp")
	}
}

func TestDiffLevelLost(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(5, 30, 10, 100, 4))
	next := snapshot(50, 30, 0, 100, 3)
	l.Record(stats.Effect{Stats: &next})

	assert.Equal(t, []string{"LEVEL LOST! (4 -> 3)", "HP:+45 (50/50)"}, l.Diff())
}

func TestDiffOrderAndFormatting(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 10, 100, 2))
	next := snapshot(45.6, 30.5, 23.2, 100.75, 2)
	l.Record(stats.Effect{Stats: &next, Message: "You found an Egg!"})

	want := []string{
		"HP:-4 (46/50)",
		"MP:+0.50 (31/30)",
		"Exp:+13 (23)",
		"Gold:+0.75 (101)",
		"You found an Egg!",
	}
	assert.Equal(t, want, l.Diff())
}

func TestDiffSmallValuesUseTwoDecimals(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 0, 0.2, 1))
	next := snapshot(50, 30, 0, 0.9, 1)
	l.Record(stats.Effect{Stats: &next})

	assert.Equal(t, []string{"Gold:+0.70 (0.90)"}, l.Diff())
}

func TestRecordWithoutStatsKeepsLatest(t *testing.T) {
	t.Parallel()

	l := stats.New(snapshot(50, 30, 0, 100, 1))
	first := snapshot(50, 30, 5, 101, 1)
	l.Record(stats.Effect{Stats: &first})
	l.Record(stats.Effect{Message: "first drop"})
	l.Record(stats.Effect{})
	l.Record(stats.Effect{Message: "second drop"})

	require.NotNil(t, l.Latest)
	assert.InDelta(t, 5.0, l.Latest.Exp, 0.0001)
	assert.Equal(t, []string{"first drop", "second drop"}, l.Messages)
}

func TestNilLedgerIsNoop(t *testing.T) {
	t.Parallel()

	var l *stats.Ledger

	s := snapshot(1, 1, 1, 1, 1)
	l.Record(stats.Effect{Stats: &s, Message: "ignored"})
	l.Absorb(stats.New(s))

	assert.Nil(t, l.Diff())
}

func TestAbsorbKeepsBaseline(t *testing.T) {
	t.Parallel()

	run := stats.New(snapshot(50, 30, 0, 100, 1))

	pairOne := stats.New(run.Current())
	afterOne := snapshot(50, 30, 10, 102, 1)
	pairOne.Record(stats.Effect{Stats: &afterOne, Message: "drop one"})
	run.Absorb(pairOne)

	pairTwo := stats.New(run.Current())
	pairTwo.Record(stats.Effect{Message: "drop two"})
	run.Absorb(pairTwo)

	assert.InDelta(t, 100.0, run.Baseline.Gold, 0.0001)
	assert.Equal(t, []string{"Exp:+10 (10)", "Gold:+2 (102)", "drop one", "drop two"}, run.Diff())
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "data", stats.FileName)

	missing, err := stats.Load(fsys, path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	l := stats.New(snapshot(50, 30, 0, 100, 1))
	next := snapshot(40, 30, 0, 100, 1)
	l.Record(stats.Effect{Stats: &next, Message: "ouch"})
	require.NoError(t, l.Save(fsys, path))

	loaded, err := stats.Load(fsys, path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, l.Diff(), loaded.Diff())

	require.NoError(t, stats.Remove(fsys, path))
	require.NoError(t, stats.Remove(fsys, path))

	gone, err := stats.Load(fsys, path)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
