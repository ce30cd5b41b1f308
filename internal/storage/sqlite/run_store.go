package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnalysisRun records one invocation of the measures engine: which input
// files were analysed and under which trial label.
type AnalysisRun struct {
	RunID         string `json:"run_id"`
	TrialLabel    string `json:"trial_label"`
	FixationsPath string `json:"fixations_path"`
	AOIPath       string `json:"aoi_path"`
	CreatedAt     int64  `json:"created_at"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore on an open database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// Insert persists a run record. An empty RunID is filled with a fresh UUID,
// an empty CreatedAt with the current time.
func (s *RunStore) Insert(run *AnalysisRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (run_id, trial_label, fixations_path, aoi_path, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, run.TrialLabel, run.FixationsPath, run.AOIPath, run.CreatedAt,
		)
		return err
	})
}

// Get returns the run with the given ID, or sql.ErrNoRows.
func (s *RunStore) Get(runID string) (*AnalysisRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, trial_label, fixations_path, aoi_path, created_at
		FROM analysis_runs WHERE run_id = ?`, runID)
	var run AnalysisRun
	if err := row.Scan(&run.RunID, &run.TrialLabel, &run.FixationsPath, &run.AOIPath, &run.CreatedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns all runs, newest first.
func (s *RunStore) List() ([]*AnalysisRun, error) {
	rows, err := s.db.Query(`
		SELECT run_id, trial_label, fixations_path, aoi_path, created_at
		FROM analysis_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*AnalysisRun
	for rows.Next() {
		var run AnalysisRun
		if err := rows.Scan(&run.RunID, &run.TrialLabel, &run.FixationsPath, &run.AOIPath, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
