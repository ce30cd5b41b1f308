package measures

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// fx builds a mapped fixation event on the default trial/page.
func fx(onset, duration float64, wordIdx int) FixationEvent {
	return FixationEvent{
		Trial:    "trial_1",
		Stimulus: "stim_1",
		Page:     "page_1",
		Name:     EventFixation,
		Onset:    onset,
		Duration: duration,
		WordIdx:  intPtr(wordIdx),
		CharIdx:  intPtr(0),
	}
}

func TestAnnotateFixationsFiltering(t *testing.T) {
	t.Parallel()

	events := []FixationEvent{
		fx(100, 50, 0),
		{Trial: "trial_1", Page: "page_1", Name: "saccade", Onset: 150, Duration: 30, WordIdx: intPtr(1)},
		{Trial: "trial_1", Page: "page_1", Name: EventFixation, Onset: 200, Duration: 40}, // unmapped
		fx(300, 60, 1),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)
	require.Len(t, fix, 2)
	assert.Equal(t, 0, fix[0].WordIdx)
	assert.Equal(t, 1, fix[1].WordIdx)
}

func TestAnnotateFixationsSortsByOnset(t *testing.T) {
	t.Parallel()

	events := []FixationEvent{
		fx(300, 60, 1),
		fx(100, 50, 0),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)
	require.Len(t, fix, 2)
	assert.Equal(t, float64(100), fix[0].Onset)
	assert.Equal(t, float64(300), fix[1].Onset)
	assert.Equal(t, 0, fix[0].FixationID)
	assert.Equal(t, 1, fix[1].FixationID)
}

func TestAnnotateFixationsRunsAndNeighbours(t *testing.T) {
	t.Parallel()

	// word sequence 0, 0, 1, 0: three runs, one regression back to 0
	events := []FixationEvent{
		fx(100, 50, 0),
		fx(200, 40, 0),
		fx(300, 60, 1),
		fx(400, 30, 0),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)
	require.Len(t, fix, 4)

	t.Run("run ids", func(t *testing.T) {
		assert.Equal(t, []int{1, 1, 2, 3}, []int{fix[0].RunID, fix[1].RunID, fix[2].RunID, fix[3].RunID})
	})

	t.Run("neighbour words", func(t *testing.T) {
		assert.Nil(t, fix[0].PrevWord)
		require.NotNil(t, fix[1].PrevWord)
		assert.Equal(t, 0, *fix[1].PrevWord)
		require.NotNil(t, fix[3].PrevWord)
		assert.Equal(t, 1, *fix[3].PrevWord)
		assert.Nil(t, fix[3].NextWord)
		require.NotNil(t, fix[2].NextWord)
		assert.Equal(t, 0, *fix[2].NextWord)
	})

	t.Run("deltas and regressions", func(t *testing.T) {
		assert.Nil(t, fix[0].DeltaIn)
		assert.False(t, fix[0].IsRegIn, "nil delta must not count as regression")
		require.NotNil(t, fix[2].DeltaIn)
		assert.Equal(t, 1, *fix[2].DeltaIn)
		require.NotNil(t, fix[3].DeltaIn)
		assert.Equal(t, -1, *fix[3].DeltaIn)
		assert.True(t, fix[3].IsRegIn)
		assert.True(t, fix[2].IsRegOut, "leaving word 1 back to 0 is an outgoing regression")
		assert.False(t, fix[3].IsRegOut, "nil delta must not count as regression")
	})

	t.Run("first fixation flags", func(t *testing.T) {
		assert.True(t, fix[0].IsFirstFix)
		assert.False(t, fix[1].IsFirstFix)
		assert.True(t, fix[2].IsFirstFix)
		assert.False(t, fix[3].IsFirstFix, "revisit is not a first fixation")
	})
}

func TestFirstPassRegressionEndsPass(t *testing.T) {
	t.Parallel()

	// 0, 1, 0, 0: revisiting word 0 after it was exited is not first-pass
	events := []FixationEvent{
		fx(100, 115, 0),
		fx(300, 327, 1),
		fx(600, 261, 0),
		fx(900, 260, 0),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)
	require.Len(t, fix, 4)

	assert.True(t, fix[0].IsFirstPass)
	assert.True(t, fix[1].IsFirstPass)
	assert.False(t, fix[2].IsFirstPass)
	assert.False(t, fix[3].IsFirstPass)
}

func TestFirstPassRightEntry(t *testing.T) {
	t.Parallel()

	// 1, 0, 0: word 0 is only ever entered from the right, so it never
	// gets a first pass; word 1's opening run is one.
	events := []FixationEvent{
		fx(100, 100, 1),
		fx(200, 50, 0),
		fx(300, 70, 0),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)

	assert.True(t, fix[0].IsFirstPass)
	assert.False(t, fix[1].IsFirstPass)
	assert.False(t, fix[2].IsFirstPass)
}

func TestFirstPassLeftEntryOfUnexitedWord(t *testing.T) {
	t.Parallel()

	// 0, 3, 1, 2: word 2 was skipped, then entered from the left without
	// ever having been exited, so its run still counts as first-pass.
	// Word 1 is entered from the right and does not.
	events := []FixationEvent{
		fx(100, 10, 0),
		fx(200, 20, 3),
		fx(300, 30, 1),
		fx(400, 40, 2),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)

	assert.True(t, fix[0].IsFirstPass)
	assert.True(t, fix[1].IsFirstPass)
	assert.False(t, fix[2].IsFirstPass)
	assert.True(t, fix[3].IsFirstPass)
}

func TestFirstPassCarriesThroughRun(t *testing.T) {
	t.Parallel()

	// 1, 0, 1, 1: the second run on word 1 starts from the left but the
	// word was exited after its first run; every fixation of that run
	// must carry the same flag.
	events := []FixationEvent{
		fx(100, 10, 1),
		fx(200, 20, 0),
		fx(300, 30, 1),
		fx(400, 40, 1),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)

	assert.True(t, fix[0].IsFirstPass)
	assert.False(t, fix[1].IsFirstPass)
	assert.False(t, fix[2].IsFirstPass)
	assert.False(t, fix[3].IsFirstPass)
}

func TestDuplicateOnsetRejected(t *testing.T) {
	t.Parallel()

	events := []FixationEvent{
		fx(100, 50, 0),
		fx(100, 60, 1),
	}

	_, err := AnnotateFixations(events)
	require.Error(t, err)

	var dup *DuplicateOnsetError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "trial_1", dup.Trial)
	assert.Equal(t, float64(100), dup.Onset)
}

func TestGroupsAreIndependent(t *testing.T) {
	t.Parallel()

	pageFx := func(page string, onset float64, wordIdx int) FixationEvent {
		e := fx(onset, 50, wordIdx)
		e.Page = page
		return e
	}

	// Interleaved pages; identical onsets across groups are fine.
	events := []FixationEvent{
		pageFx("page_2", 100, 5),
		pageFx("page_1", 100, 0),
		pageFx("page_2", 200, 6),
		pageFx("page_1", 200, 1),
	}

	fix, err := AnnotateFixations(events)
	require.NoError(t, err)
	require.Len(t, fix, 4)

	// page_1 sorts first; run ids restart per group
	assert.Equal(t, "page_1", fix[0].Page)
	assert.Equal(t, 1, fix[0].RunID)
	assert.Equal(t, 2, fix[1].RunID)
	assert.Equal(t, "page_2", fix[2].Page)
	assert.Equal(t, 1, fix[2].RunID)
	assert.Equal(t, 2, fix[3].RunID)

	// neighbours never cross the group boundary
	assert.Nil(t, fix[1].NextWord)
	assert.Nil(t, fix[2].PrevWord)

	// first-pass state is per group
	for _, f := range fix {
		assert.True(t, f.IsFirstPass)
	}
}
