package measures

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PageSummary holds descriptive statistics of one (trial, page) measures
// table, the figures the session quality report is built from.
type PageSummary struct {
	Trial          string  `json:"trial"`
	Page           string  `json:"page"`
	Words          int     `json:"words"`
	SkipRate       float64 `json:"skip_rate"`       // fraction of words never fixated
	RegressionRate float64 `json:"regression_rate"` // fraction of words entered by a regression
	MeanTFT        float64 `json:"mean_tft"`
	MedianTFT      float64 `json:"median_tft"`
	P95TFT         float64 `json:"p95_tft"`
	MeanFPRT       float64 `json:"mean_fprt"`
}

// Summarize reduces a measures table to one PageSummary per (trial, page),
// in table order. Quantiles are computed over all words of the page,
// including skipped ones, so pages with heavy skipping are visibly cheap.
func Summarize(rows []WordMeasures) []PageSummary {
	var out []PageSummary
	for start, end := 0, 0; start < len(rows); start = end {
		g := rows[start]
		end = start
		for end < len(rows) && rows[end].Trial == g.Trial && rows[end].Page == g.Page {
			end++
		}
		page := rows[start:end]

		tft := make([]float64, 0, len(page))
		fprt := make([]float64, 0, len(page))
		skippedWords := 0
		regressedWords := 0
		for _, r := range page {
			tft = append(tft, r.TFT)
			fprt = append(fprt, r.FPRT)
			if r.Skipped == 1 {
				skippedWords++
			}
			if r.TRCIn > 0 {
				regressedWords++
			}
		}
		sort.Float64s(tft)

		n := float64(len(page))
		out = append(out, PageSummary{
			Trial:          g.Trial,
			Page:           g.Page,
			Words:          len(page),
			SkipRate:       float64(skippedWords) / n,
			RegressionRate: float64(regressedWords) / n,
			MeanTFT:        stat.Mean(tft, nil),
			MedianTFT:      stat.Quantile(0.5, stat.Empirical, tft, nil),
			P95TFT:         stat.Quantile(0.95, stat.Empirical, tft, nil),
			MeanFPRT:       stat.Mean(fprt, nil),
		})
	}
	return out
}
