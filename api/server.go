// Package api exposes the measures engine and its run store over HTTP.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/multipleye-data/reading.report/internal/httputil"
	"github.com/multipleye-data/reading.report/internal/measures"
	"github.com/multipleye-data/reading.report/internal/monitoring"
	"github.com/multipleye-data/reading.report/internal/security"
	"github.com/multipleye-data/reading.report/internal/storage/sqlite"
	"github.com/multipleye-data/reading.report/internal/tables"
)

type Server struct {
	db       *sqlite.DB
	runs     *sqlite.RunStore
	store    *sqlite.MeasuresStore
	trial    string
	dataDirs []string
}

// NewServer creates an API server over an open database. trial is the
// fallback trial label for AOI inventories without one; dataDirs widens the
// set of directories input tables may be read from.
func NewServer(db *sqlite.DB, trial string, dataDirs ...string) *Server {
	return &Server{
		db:       db,
		runs:     sqlite.NewRunStore(db),
		store:    sqlite.NewMeasuresStore(db),
		trial:    trial,
		dataDirs: dataDirs,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/runs/", s.handleRunByID)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the Reading Measures Server!"))
}

// handleRuns lists runs (GET) or analyses a new pair of input tables (POST).
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		runs, err := s.runs.List()
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
			return
		}
		if runs == nil {
			runs = []*sqlite.AnalysisRun{}
		}
		httputil.WriteJSONOK(w, runs)
	case http.MethodPost:
		s.handleCreateRun(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

type createRunRequest struct {
	FixationsPath string `json:"fixations_path"`
	AOIPath       string `json:"aoi_path"`
	Trial         string `json:"trial,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
		return
	}
	if req.FixationsPath == "" || req.AOIPath == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "fixations_path and aoi_path are required")
		return
	}
	for _, p := range []string{req.FixationsPath, req.AOIPath} {
		if err := security.ValidateInputPath(p, s.dataDirs...); err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("rejected input path: %v", err))
			return
		}
	}
	trial := req.Trial
	if trial == "" {
		trial = s.trial
	}

	events, err := tables.LoadFixations(req.FixationsPath)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("fixation table: %v", err))
		return
	}
	aois, err := tables.LoadAOIs(req.AOIPath, trial)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("aoi table: %v", err))
		return
	}

	rows, err := measures.New(measures.Config{Trial: trial}).Run(aois, events)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	run := &sqlite.AnalysisRun{
		TrialLabel:    trial,
		FixationsPath: req.FixationsPath,
		AOIPath:       req.AOIPath,
	}
	if err := s.runs.Insert(run); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store run: %v", err))
		return
	}
	if err := s.store.InsertMeasures(run.RunID, rows); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store measures: %v", err))
		return
	}

	monitoring.Logf("analysed %s (%d gaze events, %d words)", req.FixationsPath, len(events), len(rows))
	httputil.WriteJSON(w, http.StatusCreated, run)
}

// handleRunByID routes /runs/{id} and /runs/{id}/<resource>.
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	parts := strings.SplitN(rest, "/", 2)
	runID := parts[0]
	resource := ""
	if len(parts) == 2 {
		resource = parts[1]
	}

	run, err := s.runs.Get(runID)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteJSONError(w, http.StatusNotFound, "no such run")
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load run: %v", err))
		return
	}

	switch resource {
	case "":
		httputil.WriteJSONOK(w, run)
	case "measures":
		s.handleMeasures(w, r, runID)
	case "summary":
		s.handleSummary(w, runID)
	case "chart":
		s.handleChart(w, run)
	case "durations.png":
		s.handleDurationsPlot(w, runID)
	default:
		httputil.WriteJSONError(w, http.StatusNotFound, "unknown resource")
	}
}

func (s *Server) handleMeasures(w http.ResponseWriter, r *http.Request, runID string) {
	rows, err := s.store.ListByRun(runID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load measures: %v", err))
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=measures-%s.csv", security.SanitizeFilename(runID)))
		if err := tables.WriteMeasures(w, rows); err != nil {
			monitoring.Logf("failed to write measures csv: %v", err)
		}
		return
	}

	if rows == nil {
		rows = []measures.WordMeasures{}
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *Server) handleSummary(w http.ResponseWriter, runID string) {
	rows, err := s.store.ListByRun(runID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load measures: %v", err))
		return
	}
	summary := measures.Summarize(rows)
	if summary == nil {
		summary = []measures.PageSummary{}
	}
	httputil.WriteJSONOK(w, summary)
}
