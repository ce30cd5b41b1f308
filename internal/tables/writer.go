package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/multipleye-data/reading.report/internal/measures"
)

// MeasuresColumns is the stable column order of the word-level output table.
var MeasuresColumns = []string{
	"trial", "page", "word_idx", "word", "skipped",
	"TFC", "FPFC", "FD", "FFD", "FPRT", "FRT", "RRT", "TFT",
	"TRC_in", "TRC_out", "LP", "SL_in", "SL_out",
	"RPD_inc", "RPD_exc", "RBRT", "FPF", "RR", "SFD",
}

// SaveMeasures writes the measures table to a CSV file at path.
func SaveMeasures(path string, rows []measures.WordMeasures) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create measures table: %w", err)
	}
	if err := WriteMeasures(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteMeasures writes the measures table as CSV to w, header first, in
// MeasuresColumns order. Durations keep the numeric unit of the input table
// and are printed without trailing zeros, so integral millisecond inputs
// round-trip unchanged.
func WriteMeasures(w io.Writer, rows []measures.WordMeasures) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MeasuresColumns); err != nil {
		return fmt.Errorf("write measures header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Trial,
			r.Page,
			strconv.Itoa(r.WordIdx),
			r.Word,
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.TFC),
			strconv.Itoa(r.FPFC),
			formatDuration(r.FD),
			formatDuration(r.FFD),
			formatDuration(r.FPRT),
			formatDuration(r.FRT),
			formatDuration(r.RRT),
			formatDuration(r.TFT),
			strconv.Itoa(r.TRCIn),
			strconv.Itoa(r.TRCOut),
			strconv.Itoa(r.LP),
			strconv.Itoa(r.SLIn),
			strconv.Itoa(r.SLOut),
			formatDuration(r.RPDInc),
			formatDuration(r.RPDExc),
			formatDuration(r.RBRT),
			strconv.Itoa(r.FPF),
			strconv.Itoa(r.RR),
			formatDuration(r.SFD),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write measures row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDuration(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
