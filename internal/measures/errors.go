package measures

import "fmt"

// SchemaError reports a required column missing from an input table. It is
// raised before any row of the offending table is processed.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %q is missing required column %q", e.Table, e.Column)
}

// InconsistentGeometryError reports AOI rows of one page disagreeing about
// line height. The measures engine itself never derives line positions, but
// the AOI table is shared with the spatial-correction components, so the
// check lives with the loader.
type InconsistentGeometryError struct {
	Page    string
	Heights []float64
}

func (e *InconsistentGeometryError) Error() string {
	return fmt.Sprintf("aoi rows for page %q report %d distinct heights %v; expected exactly one", e.Page, len(e.Heights), e.Heights)
}

// DuplicateComputationError reports an attempt to store a measure set for a
// run that already has one, without removing the existing rows first.
type DuplicateComputationError struct {
	RunID string
	Rows  int
}

func (e *DuplicateComputationError) Error() string {
	return fmt.Sprintf("run %s already has %d measure rows; delete them before recomputing", e.RunID, e.Rows)
}

// DuplicateOnsetError reports two mapped fixations of one (trial, page)
// group sharing an onset, which leaves their order undefined.
type DuplicateOnsetError struct {
	Trial string
	Page  string
	Onset float64
}

func (e *DuplicateOnsetError) Error() string {
	return fmt.Sprintf("trial %q page %q has two mapped fixations at onset %v", e.Trial, e.Page, e.Onset)
}
