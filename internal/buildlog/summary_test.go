package buildlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func started(id EdgeID, command string, start Millis) EdgeStarted {
	return EdgeStarted{
		ID:        id,
		Command:   command,
		StartTime: start,
		Inputs:    []InputBinding{{Path: fmt.Sprintf("src/%d.c", id), Kind: InputExplicit}},
		Outputs:   []OutputBinding{{Path: fmt.Sprintf("obj/%d.o", id), Kind: OutputExplicit}},
	}
}

func TestSummaryCompileScenario(t *testing.T) {
	s := NewSummary()

	require.NoError(t, s.Apply(EdgeStarted{
		ID:        1,
		Command:   "g++ -c a.cpp -o a.o",
		StartTime: 1000,
		Inputs:    []InputBinding{{Path: "a.cpp", Kind: InputExplicit}},
		Outputs:   []OutputBinding{{Path: "a.o", Kind: OutputExplicit}},
	}))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, Success: true, Output: "", EndTime: 1050}))

	require.Equal(t, 1, s.Len())
	rec, ok := s.Entry(0)
	require.True(t, ok)
	assert.Equal(t, EdgeID(1), rec.ID)
	assert.Equal(t, "g++", rec.Compiler)
	assert.Equal(t, []string{"a.cpp"}, rec.Inputs)
	assert.Equal(t, []string{"a.o"}, rec.Outputs)
	assert.Equal(t, OutcomeSucceeded, rec.Outcome)
	require.NotNil(t, rec.EndTime)
	assert.Equal(t, Millis(1050), *rec.EndTime)
	assert.Equal(t, Millis(50), rec.Duration())
	require.NotNil(t, rec.Output)
	assert.Equal(t, "", *rec.Output)
	assert.Equal(t, Counts{Succeeded: 1}, s.Counts())
}

func TestSummaryFinishWithoutStart(t *testing.T) {
	s := NewSummary()

	err := s.Apply(EdgeFinished{ID: 7, EndTime: 10, Success: true})
	require.Error(t, err)
	assert.True(t, IsProtocolViolation(err))

	var pv *ProtocolViolation
	require.ErrorAs(t, err, &pv)
	assert.Equal(t, ViolationFinishWithoutStart, pv.Code)
	assert.Equal(t, EdgeID(7), pv.ID)
	assert.Equal(t, 0, s.Len())
}

func TestSummaryDuplicateStart(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(3, "cc", 1)))

	err := s.Apply(started(3, "ld", 2))
	require.Error(t, err)

	var pv *ProtocolViolation
	require.ErrorAs(t, err, &pv)
	assert.Equal(t, ViolationDuplicateStart, pv.Code)

	require.Equal(t, 1, s.Len())
	rec, _ := s.Entry(0)
	assert.Equal(t, "cc", rec.Command)
	assert.Equal(t, OutcomeRunning, rec.Outcome)
}

func TestSummarySecondFinishIsViolation(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(1, "cc", 1)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 2, Success: false, Output: "first"}))

	err := s.Apply(EdgeFinished{ID: 1, EndTime: 3, Success: true, Output: "second"})
	assert.True(t, IsProtocolViolation(err))

	rec, _ := s.Entry(0)
	assert.Equal(t, OutcomeFailed, rec.Outcome)
	assert.Equal(t, "first", rec.CapturedOutput())
	assert.Equal(t, Millis(2), *rec.EndTime)
}

func TestSummaryIDReuseAfterFinish(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(1, "cc a", 1)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 2, Success: true}))
	require.NoError(t, s.Apply(started(1, "cc b", 3)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 9, Success: false, Output: "x"}))

	require.Equal(t, 2, s.Len())
	first, _ := s.Entry(0)
	second, _ := s.Entry(1)
	assert.Equal(t, OutcomeSucceeded, first.Outcome)
	assert.Equal(t, Millis(2), *first.EndTime)
	assert.Equal(t, OutcomeFailed, second.Outcome)
	assert.Equal(t, Millis(9), *second.EndTime)
}

func TestSummaryFrozenAfterError(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(1, "cc", 1)))

	violation := s.Apply(EdgeFinished{ID: 2, EndTime: 2})
	require.Error(t, violation)

	err := s.Apply(EdgeFinished{ID: 1, EndTime: 3, Success: true})
	assert.Same(t, violation, err)
	assert.Equal(t, violation, s.Err())

	rec, _ := s.Entry(0)
	assert.Equal(t, OutcomeRunning, rec.Outcome)
}

func TestSummaryTotalHintOverwrites(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(TotalEdgesHint{Total: 42}))
	require.NoError(t, s.Apply(TotalEdgesHint{Total: 50}))
	assert.Equal(t, 50, s.Total())

	require.NoError(t, s.Apply(TotalEdgesHint{Total: 3}))
	assert.Equal(t, 3, s.Total())
}

func TestSummaryPhaseMovesAnyDirection(t *testing.T) {
	s := NewSummary()
	assert.Equal(t, PhaseNotStarted, s.Phase())

	for _, p := range []Phase{PhaseRunning, PhaseFinished, PhaseRunning, PhaseNotStarted} {
		require.NoError(t, s.Apply(StatusChanged{Status: p}))
		assert.Equal(t, p, s.Phase())
	}
}

func TestSummaryInterleavedEdges(t *testing.T) {
	s := NewSummary()
	msgs := []Message{
		StatusChanged{Status: PhaseRunning},
		TotalEdgesHint{Total: 3},
		started(1, "cc", 100),
		started(2, "cc", 90),
		started(3, "ld", 95),
		EdgeFinished{ID: 2, EndTime: 120, Success: true},
		EdgeFinished{ID: 3, EndTime: 99, Success: false, Output: "undefined reference"},
	}

	var snapshots [][]EdgeRecord
	for _, m := range msgs {
		require.NoError(t, s.Apply(m))
		snapshots = append(snapshots, s.Entries())
	}

	// Entry count never decreases and immutable fields never change.
	final := s.Entries()
	for i, snap := range snapshots {
		if i > 0 {
			assert.GreaterOrEqual(t, len(snap), len(snapshots[i-1]))
		}
		for j, rec := range snap {
			assert.Equal(t, rec.ID, final[j].ID)
			assert.Equal(t, rec.Command, final[j].Command)
			assert.Equal(t, rec.Inputs, final[j].Inputs)
			assert.Equal(t, rec.Outputs, final[j].Outputs)
			assert.Equal(t, rec.StartTime, final[j].StartTime)
		}
	}

	// Running, end time and output are present or absent together.
	for _, rec := range final {
		running := rec.Outcome == OutcomeRunning
		assert.Equal(t, running, rec.EndTime == nil)
		assert.Equal(t, running, rec.Output == nil)
	}

	assert.Equal(t, []EdgeID{1, 2, 3}, []EdgeID{final[0].ID, final[1].ID, final[2].ID})
	assert.Equal(t, Counts{Running: 1, Succeeded: 1, Failed: 1}, s.Counts())
	assert.InDelta(t, 2.0/3.0, s.Progress(), 1e-9)
}

func TestSummaryEntriesAreCopies(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(1, "cc", 1)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 2, Output: "out"}))

	rec, _ := s.Entry(0)
	*rec.Output = "mutated"
	*rec.EndTime = 99
	rec.Inputs[0] = "mutated"
	rec.Outputs[0] = "mutated"

	all := s.Entries()
	all[0].Inputs[0] = "mutated"

	again, _ := s.Entry(0)
	assert.Equal(t, "out", again.CapturedOutput())
	assert.Equal(t, Millis(2), *again.EndTime)
	assert.Equal(t, []string{"src/1.c"}, again.Inputs)
	assert.Equal(t, []string{"obj/1.o"}, again.Outputs)

	_, ok := s.Entry(1)
	assert.False(t, ok)
	_, ok = s.Entry(-1)
	assert.False(t, ok)
}

func TestSummaryProgress(t *testing.T) {
	s := NewSummary()
	assert.Equal(t, 0.0, s.Progress())

	require.NoError(t, s.Apply(TotalEdgesHint{Total: 1}))
	require.NoError(t, s.Apply(started(1, "cc", 1)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 2, Success: true}))
	require.NoError(t, s.Apply(started(2, "cc", 1)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 2, EndTime: 2, Success: true}))

	assert.Equal(t, 1.0, s.Progress())
}

func TestSummaryNextFailed(t *testing.T) {
	s := NewSummary()
	_, ok := s.NextFailed(0)
	assert.False(t, ok)

	for id := EdgeID(0); id < 5; id++ {
		require.NoError(t, s.Apply(started(id, "cc", 1)))
		require.NoError(t, s.Apply(EdgeFinished{ID: id, EndTime: 2, Success: id != 1 && id != 3}))
	}

	idx, ok := s.NextFailed(0)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, _ = s.NextFailed(1)
	assert.Equal(t, 3, idx)

	idx, _ = s.NextFailed(3)
	assert.Equal(t, 1, idx, "search wraps around")
}

func TestSummaryTimestampsAreNotValidated(t *testing.T) {
	s := NewSummary()
	require.NoError(t, s.Apply(started(1, "cc", 500)))
	require.NoError(t, s.Apply(EdgeFinished{ID: 1, EndTime: 100, Success: true}))

	rec, ok := s.Entry(0)
	require.True(t, ok)
	assert.Equal(t, OutcomeSucceeded, rec.Outcome)
	assert.Equal(t, Millis(0), rec.Duration(), "end before start reports no duration")
}
