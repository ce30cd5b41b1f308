package measures

// Config carries the per-invocation settings of the engine. The engine keeps
// no state between calls; everything it needs arrives here or in the input
// tables.
type Config struct {
	// Trial is the label assumed for AOI rows that carry no trial of
	// their own. AOI inventories are usually exported per stimulus and
	// only the fixation table knows which trial presented it.
	Trial string
}

// Engine ties the three pipeline stages together: fixation annotation, word
// level aggregation and skip marking. It is safe for concurrent use; Run is
// a pure function of its inputs.
type Engine struct {
	cfg Config
}

// New returns an Engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run computes the word-level measures table for one batch of AOI rows and
// gaze events. Running it twice on the same input yields identical output.
func (e *Engine) Run(aois []AOIToken, events []FixationEvent) ([]WordMeasures, error) {
	repaired := RepairWordLabels(aois)
	tokens := TokensFromAOIs(repaired, e.cfg.Trial)

	fix, err := AnnotateFixations(events)
	if err != nil {
		return nil, err
	}

	return BuildWordLevelTable(tokens, fix), nil
}
