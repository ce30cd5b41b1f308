// Package measures computes per-word reading measures from eye-movement
// fixation events that have already been mapped to text areas of interest.
//
// The package is a pure batch transform: fixation events plus a word
// inventory go in, one wide row of measures per word comes out. All
// computation is grouped by (trial, page); groups never interact.
package measures

import (
	"sort"
	"sync"
)

// EventFixation is the event name consumed by the annotator. Upstream event
// detection also emits saccades and blinks under other names; those rows are
// ignored here.
const EventFixation = "fixation"

// FixationEvent is one detected fixation joined to the word inventory.
// WordIdx is nil when the fixation landed outside every word AOI; such
// events are excluded from the measures pipeline.
type FixationEvent struct {
	Trial    string  `json:"trial"`
	Stimulus string  `json:"stimulus"`
	Page     string  `json:"page"`
	Name     string  `json:"name"`
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
	WordIdx  *int    `json:"word_idx"`
	CharIdx  *int    `json:"char_idx"`
	Char     string  `json:"char"`
	Word     string  `json:"word"`
}

// AnnotatedFixation is a mapped fixation enriched with run, neighbour and
// pass information. WordIdx is always set (unmapped fixations are filtered
// before annotation).
type AnnotatedFixation struct {
	Trial      string  `json:"trial"`
	Page       string  `json:"page"`
	FixationID int     `json:"fixation_id"`
	Onset      float64 `json:"onset"`
	Duration   float64 `json:"duration"`
	WordIdx    int     `json:"word_idx"`
	CharIdx    *int    `json:"char_idx"`
	Char       string  `json:"char"`
	Word       string  `json:"word"`

	// RunID is 1-based and increments whenever WordIdx changes from the
	// previous fixation of the same (trial, page) group in onset order.
	RunID int `json:"run_id"`

	// PrevWord/NextWord are the word indices of the neighbouring fixations
	// within the group; nil at group boundaries.
	PrevWord *int `json:"prev_word_idx"`
	NextWord *int `json:"next_word_idx"`

	// DeltaIn/DeltaOut are the signed word distances of the entering and
	// leaving saccade; nil where the neighbour is nil.
	DeltaIn  *int `json:"delta_in"`
	DeltaOut *int `json:"delta_out"`

	IsRegIn     bool `json:"is_reg_in"`
	IsRegOut    bool `json:"is_reg_out"`
	IsFirstFix  bool `json:"is_first_fix"`
	IsFirstPass bool `json:"is_first_pass"`
}

// groupKey identifies one analysis unit. Nothing in this package crosses a
// group boundary.
type groupKey struct {
	Trial string
	Page  string
}

// AnnotateFixations filters gaze events to mapped fixations, sorts them by
// (trial, page, onset) and annotates each with run identifiers, neighbour
// deltas, regression flags and first-fixation/first-pass flags.
//
// Within a group no two mapped fixations may share an onset; that would make
// run order, and with it every pass-level measure, undefined. Such input is
// rejected with a DuplicateOnsetError before any group is annotated.
func AnnotateFixations(events []FixationEvent) ([]AnnotatedFixation, error) {
	fix := make([]AnnotatedFixation, 0, len(events))
	for _, e := range events {
		if e.Name != EventFixation || e.WordIdx == nil {
			continue
		}
		fix = append(fix, AnnotatedFixation{
			Trial:    e.Trial,
			Page:     e.Page,
			Onset:    e.Onset,
			Duration: e.Duration,
			WordIdx:  *e.WordIdx,
			CharIdx:  e.CharIdx,
			Char:     e.Char,
			Word:     e.Word,
		})
	}

	sort.SliceStable(fix, func(i, j int) bool {
		a, b := fix[i], fix[j]
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Onset < b.Onset
	})
	for i := range fix {
		fix[i].FixationID = i
	}

	for start, end := 0, 0; start < len(fix); start = end {
		key := groupKey{fix[start].Trial, fix[start].Page}
		end = start
		for end < len(fix) && fix[end].Trial == key.Trial && fix[end].Page == key.Page {
			end++
		}
		for i := start + 1; i < end; i++ {
			if fix[i].Onset == fix[i-1].Onset {
				return nil, &DuplicateOnsetError{Trial: key.Trial, Page: key.Page, Onset: fix[i].Onset}
			}
		}
	}

	// Groups are mutually independent; annotate one goroutine per group.
	// Each goroutine owns a distinct sub-slice of fix, so there is no
	// shared mutable state.
	var wg sync.WaitGroup
	for start, end := 0, 0; start < len(fix); start = end {
		key := groupKey{fix[start].Trial, fix[start].Page}
		end = start
		for end < len(fix) && fix[end].Trial == key.Trial && fix[end].Page == key.Page {
			end++
		}
		wg.Add(1)
		go func(group []AnnotatedFixation) {
			defer wg.Done()
			annotateGroup(group)
		}(fix[start:end])
	}
	wg.Wait()

	return fix, nil
}

// annotateGroup fills in all derived columns for one (trial, page) group,
// already sorted by onset.
func annotateGroup(group []AnnotatedFixation) {
	runID := 0
	firstSeen := make(map[int]bool)
	for i := range group {
		if i == 0 || group[i].WordIdx != group[i-1].WordIdx {
			runID++
		}
		group[i].RunID = runID

		if i > 0 {
			prev := group[i-1].WordIdx
			group[i].PrevWord = &prev
			delta := group[i].WordIdx - prev
			group[i].DeltaIn = &delta
			group[i].IsRegIn = delta < 0
		}
		if i < len(group)-1 {
			next := group[i+1].WordIdx
			group[i].NextWord = &next
			delta := next - group[i].WordIdx
			group[i].DeltaOut = &delta
			group[i].IsRegOut = delta < 0
		}

		if !firstSeen[group[i].WordIdx] {
			firstSeen[group[i].WordIdx] = true
			group[i].IsFirstFix = true
		}
	}

	markFirstPass(group)
}

// markFirstPass labels the fixations belonging to each word's first reading
// pass. A run is first-pass when it is entered from the left (or is the very
// first run of the group) and its word has never been exited before the run
// started. A word counts as exited the first time a fixation moves away from
// it.
//
// The exited set depends on the full fixation history, not on a fixed lag
// window, so this is an explicit sequential fold over the group in onset
// order rather than a columnar pass.
func markFirstPass(group []AnnotatedFixation) {
	exited := make(map[int]bool)
	prevRun := 0
	current := false

	for i := range group {
		w := group[i].WordIdx

		if group[i].RunID != prevRun {
			// State as of run entry: the exit of the word we just
			// left is recorded below, after the flag is emitted,
			// and cannot concern w itself since a run boundary
			// means the word changed.
			enteredFromLeft := group[i].PrevWord == nil || w > *group[i].PrevWord
			current = enteredFromLeft && !exited[w]
		}
		group[i].IsFirstPass = current

		if group[i].PrevWord != nil && *group[i].PrevWord != w {
			exited[*group[i].PrevWord] = true
		}
		prevRun = group[i].RunID
	}
}
