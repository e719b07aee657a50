package testutil

// FixedRunID generates the same run id every time.
//
// Unlike engine.FixedGenerator, which returns ids in sequence and panics
// when they run out, FixedRunID never runs out. Scenario runs use it so
// the journal of a rerun is byte-identical to the first.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator returning id.
// If id is empty, Generate returns "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
