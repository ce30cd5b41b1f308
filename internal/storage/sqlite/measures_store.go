package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/multipleye-data/reading.report/internal/measures"
)

// MeasuresStore provides persistence for the word-level measures of an
// analysis run.
type MeasuresStore struct {
	db *sql.DB
}

// NewMeasuresStore creates a MeasuresStore on an open database.
func NewMeasuresStore(db *DB) *MeasuresStore {
	return &MeasuresStore{db: db.DB}
}

// InsertMeasures stores the measures table of one run. The engine is
// re-runnable, so stale rows are never silently replaced: inserting into a
// run that already has rows is a DuplicateComputationError and the caller
// must DeleteByRun first.
func (s *MeasuresStore) InsertMeasures(runID string, rows []measures.WordMeasures) error {
	var existing int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM word_measures WHERE run_id = ?`, runID).Scan(&existing); err != nil {
		return fmt.Errorf("check existing measures: %w", err)
	}
	if existing > 0 {
		return &measures.DuplicateComputationError{RunID: runID, Rows: existing}
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO word_measures (
				run_id, trial, page, word_idx, word, skipped,
				tfc, fpfc, fd, ffd, fprt, frt, rrt, tft,
				trc_in, trc_out, lp, sl_in, sl_out,
				rpd_inc, rpd_exc, rbrt, fpf, rr, sfd
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.Exec(
				runID, r.Trial, r.Page, r.WordIdx, r.Word, r.Skipped,
				r.TFC, r.FPFC, r.FD, r.FFD, r.FPRT, r.FRT, r.RRT, r.TFT,
				r.TRCIn, r.TRCOut, r.LP, r.SLIn, r.SLOut,
				r.RPDInc, r.RPDExc, r.RBRT, r.FPF, r.RR, r.SFD,
			); err != nil {
				return fmt.Errorf("insert measures row (%s, %s, %d): %w", r.Trial, r.Page, r.WordIdx, err)
			}
		}
		return tx.Commit()
	})
}

// ListByRun returns the measures of one run ordered by (trial, page,
// word_idx), the same order the engine emits.
func (s *MeasuresStore) ListByRun(runID string) ([]measures.WordMeasures, error) {
	rows, err := s.db.Query(`
		SELECT trial, page, word_idx, word, skipped,
		       tfc, fpfc, fd, ffd, fprt, frt, rrt, tft,
		       trc_in, trc_out, lp, sl_in, sl_out,
		       rpd_inc, rpd_exc, rbrt, fpf, rr, sfd
		FROM word_measures
		WHERE run_id = ?
		ORDER BY trial, page, word_idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query measures: %w", err)
	}
	defer rows.Close()

	var out []measures.WordMeasures
	for rows.Next() {
		var r measures.WordMeasures
		if err := rows.Scan(
			&r.Trial, &r.Page, &r.WordIdx, &r.Word, &r.Skipped,
			&r.TFC, &r.FPFC, &r.FD, &r.FFD, &r.FPRT, &r.FRT, &r.RRT, &r.TFT,
			&r.TRCIn, &r.TRCOut, &r.LP, &r.SLIn, &r.SLOut,
			&r.RPDInc, &r.RPDExc, &r.RBRT, &r.FPF, &r.RR, &r.SFD,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteByRun removes all measures of a run, clearing the way for a
// recomputation.
func (s *MeasuresStore) DeleteByRun(runID string) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`DELETE FROM word_measures WHERE run_id = ?`, runID)
		return err
	})
}
