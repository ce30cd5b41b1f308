package api

import (
	"fmt"
	"net/http"

	"github.com/multipleye-data/reading.report/internal/httputil"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// handleDurationsPlot renders a PNG histogram of per-word total fixation
// times for a run. Useful for spotting sessions whose duration distribution
// looks off before they enter the quality report.
func (s *Server) handleDurationsPlot(w http.ResponseWriter, runID string) {
	rows, err := s.store.ListByRun(runID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load measures: %v", err))
		return
	}

	values := make(plotter.Values, 0, len(rows))
	for _, r := range rows {
		if r.TFC > 0 {
			values = append(values, r.TFT)
		}
	}
	if len(values) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "run has no fixated words")
		return
	}

	p := plot.New()
	p.Title.Text = "Total fixation time per word"
	p.X.Label.Text = "TFT"
	p.Y.Label.Text = "Words"

	hist, err := plotter.NewHist(values, 16)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build histogram: %v", err))
		return
	}
	p.Add(hist)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		return
	}
}
