package measures

import "sort"

// AOIToken is one unit-of-analysis row from the AOI inventory. The inventory
// arrives at character granularity: several rows share a WordIdx and the
// rows for spaces and punctuation carry a blank Word label until repaired.
type AOIToken struct {
	Trial         string `json:"trial"`
	Page          string `json:"page"`
	WordIdx       int    `json:"word_idx"`
	Word          string `json:"word"`
	LineIdx       int    `json:"line_idx"`
	CharIdxInLine int    `json:"char_idx_in_line"`
}

// RepairWordLabels fills blank word labels from the nearest labelled
// neighbour within each (trial, page, line), ordered by intra-line character
// offset: forward fill first, then backward fill for any leading blanks.
// Space and punctuation AOIs thereby inherit the label of their enclosing
// word. The input is not modified.
func RepairWordLabels(aois []AOIToken) []AOIToken {
	out := make([]AOIToken, len(aois))
	copy(out, aois)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.LineIdx != b.LineIdx {
			return a.LineIdx < b.LineIdx
		}
		return a.CharIdxInLine < b.CharIdxInLine
	})

	sameLine := func(a, b AOIToken) bool {
		return a.Trial == b.Trial && a.Page == b.Page && a.LineIdx == b.LineIdx
	}

	for i := 1; i < len(out); i++ {
		if isBlank(out[i].Word) && !isBlank(out[i-1].Word) && sameLine(out[i], out[i-1]) {
			out[i].Word = out[i-1].Word
		}
	}
	for i := len(out) - 2; i >= 0; i-- {
		if isBlank(out[i].Word) && !isBlank(out[i+1].Word) && sameLine(out[i], out[i+1]) {
			out[i].Word = out[i+1].Word
		}
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// TokensFromAOIs reduces the character-level AOI inventory to one token per
// distinct (trial, page, word_idx), dropping rows whose label is still blank
// after repair. Rows without a trial value take the supplied fallback.
// Result is sorted by (trial, page, word_idx).
func TokensFromAOIs(aois []AOIToken, trial string) []AOIToken {
	type tokenKey struct {
		Trial   string
		Page    string
		WordIdx int
	}
	seen := make(map[tokenKey]bool)
	var tokens []AOIToken
	for _, a := range aois {
		if isBlank(a.Word) {
			continue
		}
		if a.Trial == "" {
			a.Trial = trial
		}
		k := tokenKey{a.Trial, a.Page, a.WordIdx}
		if seen[k] {
			continue
		}
		seen[k] = true
		tokens = append(tokens, a)
	}
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.WordIdx < b.WordIdx
	})
	return tokens
}

// MarkSkippedTokens reports, for each token, whether no fixation of the same
// (trial, page) landed on its word. Keys map token identity to skipped.
func MarkSkippedTokens(tokens []AOIToken, fix []AnnotatedFixation) map[AOITokenKey]bool {
	fixated := make(map[AOITokenKey]bool, len(fix))
	for _, f := range fix {
		fixated[AOITokenKey{f.Trial, f.Page, f.WordIdx}] = true
	}
	skipped := make(map[AOITokenKey]bool, len(tokens))
	for _, t := range tokens {
		k := AOITokenKey{t.Trial, t.Page, t.WordIdx}
		skipped[k] = !fixated[k]
	}
	return skipped
}

// AOITokenKey identifies one token across tables.
type AOITokenKey struct {
	Trial   string
	Page    string
	WordIdx int
}
