package measures

// WordMeasures is one output row: every reading measure for one token of the
// word inventory. Measures default to 0 when the word has no matching
// fixations; Skipped is 1 for exactly those words.
type WordMeasures struct {
	Trial   string `json:"trial"`
	Page    string `json:"page"`
	WordIdx int    `json:"word_idx"`
	Word    string `json:"word"`
	Skipped int    `json:"skipped"`

	TFC    int     `json:"TFC"`     // total fixation count, all passes
	FPFC   int     `json:"FPFC"`    // first-pass fixation count
	FD     float64 `json:"FD"`      // duration of the first fixation, any pass
	FFD    float64 `json:"FFD"`     // duration of the first first-pass fixation
	FPRT   float64 `json:"FPRT"`    // first-pass reading time
	FRT    float64 `json:"FRT"`     // reading time of the word's first run
	RRT    float64 `json:"RRT"`     // rereading time (non-first-pass fixations)
	TFT    float64 `json:"TFT"`     // total fixation time, FPRT + RRT
	TRCIn  int     `json:"TRC_in"`  // fixations entered by a regression
	TRCOut int     `json:"TRC_out"` // fixations left by a regression
	LP     int     `json:"LP"`      // landing position (char index of first fixation)
	SLIn   int     `json:"SL_in"`   // incoming saccade length in words
	SLOut  int     `json:"SL_out"`  // outgoing saccade length of the first run
	RPDInc float64 `json:"RPD_inc"` // regression-path duration, inclusive
	RPDExc float64 `json:"RPD_exc"` // regression-path duration on other words
	RBRT   float64 `json:"RBRT"`    // rereading on the word before the rightward exit
	FPF    int     `json:"FPF"`     // 1 if the word received first-pass time
	RR     int     `json:"RR"`      // 1 if the word was reread
	SFD    float64 `json:"SFD"`     // single-fixation duration
}

// BuildWordLevelTable computes one WordMeasures row per token by running the
// per-measure aggregators over the annotated fixation table and left-joining
// their results onto the word inventory. Fixations on words missing from the
// inventory are ignored; inventory words without fixations yield zero rows
// marked skipped.
func BuildWordLevelTable(tokens []AOIToken, fix []AnnotatedFixation) []WordMeasures {
	tfc := totalFixationCount(fix)
	fpfc := firstPassFixationCount(fix)
	fd := firstDuration(fix)
	ffd := firstFixationDuration(fix)
	fprt := firstPassReadingTime(fix)
	frt := firstRunReadingTime(fix)
	rrt := rereadingTime(fix)
	regIn, regOut := regressionCounts(fix)
	lp := landingPosition(fix)
	slIn := saccadeLengthIn(fix)
	slOut := saccadeLengthOut(fix)
	rpdInc, rpdExc, rbrt := regressionPathDurations(fix)
	skipped := MarkSkippedTokens(tokens, fix)

	rows := make([]WordMeasures, 0, len(tokens))
	for _, t := range tokens {
		k := AOITokenKey{t.Trial, t.Page, t.WordIdx}
		r := WordMeasures{
			Trial:   t.Trial,
			Page:    t.Page,
			WordIdx: t.WordIdx,
			Word:    t.Word,
			TFC:     tfc[k],
			FPFC:    fpfc[k],
			FD:      fd[k],
			FFD:     ffd[k],
			FPRT:    fprt[k],
			FRT:     frt[k],
			RRT:     rrt[k],
			TRCIn:   regIn[k],
			TRCOut:  regOut[k],
			LP:      lp[k],
			SLIn:    slIn[k],
			SLOut:   slOut[k],
			RPDInc:  rpdInc[k],
			RPDExc:  rpdExc[k],
			RBRT:    rbrt[k],
		}
		if skipped[k] {
			r.Skipped = 1
		}
		r.TFT = r.FPRT + r.RRT
		if r.FPRT > 0 {
			r.FPF = 1
		}
		if r.RRT > 0 {
			r.RR = 1
		}
		if r.FPFC == 1 {
			r.SFD = r.FFD
		}
		rows = append(rows, r)
	}
	return rows
}

func key(f AnnotatedFixation) AOITokenKey {
	return AOITokenKey{f.Trial, f.Page, f.WordIdx}
}

func totalFixationCount(fix []AnnotatedFixation) map[AOITokenKey]int {
	out := make(map[AOITokenKey]int)
	for _, f := range fix {
		out[key(f)]++
	}
	return out
}

func firstPassFixationCount(fix []AnnotatedFixation) map[AOITokenKey]int {
	out := make(map[AOITokenKey]int)
	for _, f := range fix {
		if f.IsFirstPass {
			out[key(f)]++
		}
	}
	return out
}

// firstDuration relies on fix being sorted by (trial, page, onset): the
// first row seen per word is the first fixation by onset.
func firstDuration(fix []AnnotatedFixation) map[AOITokenKey]float64 {
	out := make(map[AOITokenKey]float64)
	for _, f := range fix {
		if _, ok := out[key(f)]; !ok {
			out[key(f)] = f.Duration
		}
	}
	return out
}

func firstFixationDuration(fix []AnnotatedFixation) map[AOITokenKey]float64 {
	out := make(map[AOITokenKey]float64)
	for _, f := range fix {
		if !f.IsFirstPass {
			continue
		}
		if _, ok := out[key(f)]; !ok {
			out[key(f)] = f.Duration
		}
	}
	return out
}

func firstPassReadingTime(fix []AnnotatedFixation) map[AOITokenKey]float64 {
	out := make(map[AOITokenKey]float64)
	for _, f := range fix {
		if f.IsFirstPass {
			out[key(f)] += f.Duration
		}
	}
	return out
}

// firstRunReadingTime sums the durations of the run with the smallest run_id
// per word: the word's very first visit, whether or not that visit
// classified as first-pass. This is deliberately distinct from FPRT, which
// follows the first-pass flag and may span several runs.
func firstRunReadingTime(fix []AnnotatedFixation) map[AOITokenKey]float64 {
	minRun := make(map[AOITokenKey]int)
	for _, f := range fix {
		k := key(f)
		if r, ok := minRun[k]; !ok || f.RunID < r {
			minRun[k] = f.RunID
		}
	}
	out := make(map[AOITokenKey]float64)
	for _, f := range fix {
		if f.RunID == minRun[key(f)] {
			out[key(f)] += f.Duration
		}
	}
	return out
}

func rereadingTime(fix []AnnotatedFixation) map[AOITokenKey]float64 {
	out := make(map[AOITokenKey]float64)
	for _, f := range fix {
		if !f.IsFirstPass {
			out[key(f)] += f.Duration
		}
	}
	return out
}

func regressionCounts(fix []AnnotatedFixation) (in, out map[AOITokenKey]int) {
	in = make(map[AOITokenKey]int)
	out = make(map[AOITokenKey]int)
	for _, f := range fix {
		if f.IsRegIn {
			in[key(f)]++
		}
		if f.IsRegOut {
			out[key(f)]++
		}
	}
	return in, out
}

// landingPosition is the character index the eyes first landed on within the
// word. Fixations without a character mapping land at 0.
func landingPosition(fix []AnnotatedFixation) map[AOITokenKey]int {
	out := make(map[AOITokenKey]int)
	for _, f := range fix {
		if _, ok := out[key(f)]; ok {
			continue
		}
		pos := 0
		if f.CharIdx != nil {
			pos = *f.CharIdx
		}
		out[key(f)] = pos
	}
	return out
}

// saccadeLengthIn is the signed word distance of the saccade that produced
// the word's first fixation; 0 when that fixation opened the group.
func saccadeLengthIn(fix []AnnotatedFixation) map[AOITokenKey]int {
	out := make(map[AOITokenKey]int)
	for _, f := range fix {
		if !f.IsFirstFix {
			continue
		}
		length := 0
		if f.DeltaIn != nil {
			length = *f.DeltaIn
		}
		out[key(f)] = length
	}
	return out
}

// saccadeLengthOut is the signed word distance of the saccade leaving the
// last fixation of the word's first run; 0 when the run ends the group.
func saccadeLengthOut(fix []AnnotatedFixation) map[AOITokenKey]int {
	minRun := make(map[AOITokenKey]int)
	for _, f := range fix {
		k := key(f)
		if r, ok := minRun[k]; !ok || f.RunID < r {
			minRun[k] = f.RunID
		}
	}
	out := make(map[AOITokenKey]int)
	// fix is onset-sorted, so the last matching row per word wins.
	for _, f := range fix {
		k := key(f)
		if f.RunID != minRun[k] {
			continue
		}
		length := 0
		if f.DeltaOut != nil {
			length = *f.DeltaOut
		}
		out[k] = length
	}
	return out
}

// regressionPathDurations computes the RPD family per word. The window opens
// at the word's earliest first-pass fixation and closes, exclusively, at the
// first subsequent fixation right of the word; with no such fixation it runs
// to the end of the group. RPDInc sums the whole window, RBRT the fixations
// on the word itself, RPDExc the rest, so RPDInc == RPDExc + RBRT. Words
// without a first-pass fixation have no window and stay at 0.
func regressionPathDurations(fix []AnnotatedFixation) (inc, exc, rbrt map[AOITokenKey]float64) {
	inc = make(map[AOITokenKey]float64)
	exc = make(map[AOITokenKey]float64)
	rbrt = make(map[AOITokenKey]float64)

	for start, end := 0, 0; start < len(fix); start = end {
		g := fix[start]
		end = start
		for end < len(fix) && fix[end].Trial == g.Trial && fix[end].Page == g.Page {
			end++
		}
		group := fix[start:end]

		windowStart := make(map[int]int)
		for i, f := range group {
			if f.IsFirstPass {
				if _, ok := windowStart[f.WordIdx]; !ok {
					windowStart[f.WordIdx] = i
				}
			}
		}

		for w, from := range windowStart {
			k := AOITokenKey{g.Trial, g.Page, w}
			for i := from; i < len(group); i++ {
				if group[i].WordIdx > w {
					break
				}
				inc[k] += group[i].Duration
				if group[i].WordIdx == w {
					rbrt[k] += group[i].Duration
				} else {
					exc[k] += group[i].Duration
				}
			}
		}
	}
	return inc, exc, rbrt
}
