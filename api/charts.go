package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/multipleye-data/reading.report/internal/httputil"
	"github.com/multipleye-data/reading.report/internal/storage/sqlite"
)

// handleChart renders an HTML bar chart of per-word reading times for a run
// using go-echarts. This is a debugging endpoint for eyeballing a session
// without the full report tooling.
func (s *Server) handleChart(w http.ResponseWriter, run *sqlite.AnalysisRun) {
	rows, err := s.store.ListByRun(run.RunID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load measures: %v", err))
		return
	}
	if len(rows) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "run has no measures")
		return
	}

	x := make([]string, 0, len(rows))
	fprt := make([]opts.BarData, 0, len(rows))
	rrt := make([]opts.BarData, 0, len(rows))
	for _, r := range rows {
		x = append(x, fmt.Sprintf("%d:%s", r.WordIdx, r.Word))
		fprt = append(fprt, opts.BarData{Value: r.FPRT})
		rrt = append(rrt, opts.BarData{Value: r.RRT})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-word reading time",
			Subtitle: fmt.Sprintf("run=%s trial=%s", run.RunID, run.TrialLabel),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("first pass (FPRT)", fprt).
		AddSeries("rereading (RRT)", rrt)

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
