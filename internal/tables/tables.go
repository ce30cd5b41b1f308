// Package tables loads and saves the flat CSV tables the measures engine
// exchanges with the rest of the preprocessing pipeline: the fixation event
// table from event detection, the AOI word inventory from stimulus geometry
// and the word-level measures output.
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/multipleye-data/reading.report/internal/measures"
)

// fixationColumns are required in a fixation table, in any order.
var fixationColumns = []string{
	"trial", "stimulus", "page", "name",
	"onset", "duration", "word_idx", "char_idx", "char", "word",
}

// aoiColumns are required in an AOI inventory. "trial" and "height" are
// optional: the former defaults to a caller-supplied label, the latter is
// only validated for consistency when present.
var aoiColumns = []string{
	"page", "word_idx", "word", "line_idx", "char_idx_in_line",
}

// header maps column names to their position, validating required columns
// up front so a malformed file fails before any row is parsed.
type header struct {
	table string
	cols  map[string]int
}

func newHeader(table string, record []string, required []string) (*header, error) {
	h := &header{table: table, cols: make(map[string]int, len(record))}
	for i, name := range record {
		h.cols[name] = i
	}
	for _, name := range required {
		if _, ok := h.cols[name]; !ok {
			return nil, &measures.SchemaError{Table: table, Column: name}
		}
	}
	return h, nil
}

func (h *header) str(record []string, col string) string {
	i, ok := h.cols[col]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (h *header) float(record []string, col string) (float64, error) {
	s := h.str(record, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("table %q: column %q: bad number %q: %w", h.table, col, s, err)
	}
	return v, nil
}

func (h *header) int(record []string, col string) (int, error) {
	s := h.str(record, col)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("table %q: column %q: bad integer %q: %w", h.table, col, s, err)
	}
	return v, nil
}

// optInt parses an optional integer column; empty and literal null spellings
// map to nil.
func (h *header) optInt(record []string, col string) (*int, error) {
	s := h.str(record, col)
	if s == "" || s == "null" || s == "NA" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("table %q: column %q: bad integer %q: %w", h.table, col, s, err)
	}
	return &v, nil
}

// LoadFixations reads a fixation event table. All event types are kept; the
// engine filters to fixations itself.
func LoadFixations(path string) ([]measures.FixationEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixation table: %w", err)
	}
	defer f.Close()
	return ReadFixations(f)
}

// ReadFixations reads a fixation event table from r.
func ReadFixations(r io.Reader) ([]measures.FixationEvent, error) {
	cr := csv.NewReader(r)

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read fixation header: %w", err)
	}
	h, err := newHeader("fixations", first, fixationColumns)
	if err != nil {
		return nil, err
	}

	var events []measures.FixationEvent
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fixation row: %w", err)
		}

		onset, err := h.float(record, "onset")
		if err != nil {
			return nil, err
		}
		duration, err := h.float(record, "duration")
		if err != nil {
			return nil, err
		}
		wordIdx, err := h.optInt(record, "word_idx")
		if err != nil {
			return nil, err
		}
		charIdx, err := h.optInt(record, "char_idx")
		if err != nil {
			return nil, err
		}

		events = append(events, measures.FixationEvent{
			Trial:    h.str(record, "trial"),
			Stimulus: h.str(record, "stimulus"),
			Page:     h.str(record, "page"),
			Name:     h.str(record, "name"),
			Onset:    onset,
			Duration: duration,
			WordIdx:  wordIdx,
			CharIdx:  charIdx,
			Char:     h.str(record, "char"),
			Word:     h.str(record, "word"),
		})
	}
	return events, nil
}

// LoadAOIs reads an AOI word inventory. Rows without a trial column take the
// supplied label. When the optional height column is present, all rows of a
// page must agree on it; line positions derived from diverging heights would
// be meaningless for the correction components sharing this table.
func LoadAOIs(path, trial string) ([]measures.AOIToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open aoi table: %w", err)
	}
	defer f.Close()
	return ReadAOIs(f, trial)
}

// ReadAOIs reads an AOI word inventory from r.
func ReadAOIs(r io.Reader, trial string) ([]measures.AOIToken, error) {
	cr := csv.NewReader(r)

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read aoi header: %w", err)
	}
	h, err := newHeader("aois", first, aoiColumns)
	if err != nil {
		return nil, err
	}
	_, hasTrial := h.cols["trial"]
	_, hasHeight := h.cols["height"]

	pageHeights := make(map[string][]float64)
	var aois []measures.AOIToken
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read aoi row: %w", err)
		}

		wordIdx, err := h.int(record, "word_idx")
		if err != nil {
			return nil, err
		}
		lineIdx, err := h.int(record, "line_idx")
		if err != nil {
			return nil, err
		}
		charIdxInLine, err := h.int(record, "char_idx_in_line")
		if err != nil {
			return nil, err
		}

		t := trial
		if hasTrial && h.str(record, "trial") != "" {
			t = h.str(record, "trial")
		}
		page := h.str(record, "page")

		if hasHeight {
			height, err := h.float(record, "height")
			if err != nil {
				return nil, err
			}
			heights := pageHeights[page]
			known := false
			for _, v := range heights {
				if v == height {
					known = true
					break
				}
			}
			if !known {
				pageHeights[page] = append(heights, height)
			}
		}

		aois = append(aois, measures.AOIToken{
			Trial:         t,
			Page:          page,
			WordIdx:       wordIdx,
			Word:          h.str(record, "word"),
			LineIdx:       lineIdx,
			CharIdxInLine: charIdxInLine,
		})
	}

	for page, heights := range pageHeights {
		if len(heights) > 1 {
			return nil, &measures.InconsistentGeometryError{Page: page, Heights: heights}
		}
	}
	return aois, nil
}
