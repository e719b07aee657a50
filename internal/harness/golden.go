package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures the observable outcome of a scenario execution.
type Snapshot struct {
	Scenario string         `json:"scenario"`
	ExitCode int            `json:"exit_code"`
	Output   string         `json:"output"`
	Changes  []ChangeRecord `json:"changes"`
}

// ChangeRecord is one journaled change without its run id, which is
// fixed per scenario.
type ChangeRecord struct {
	Seq      int64  `json:"seq"`
	Source   string `json:"source"`
	Document int    `json:"document"`
	Location string `json:"location"`
	Action   string `json:"action"`
	Policy   string `json:"policy,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	s := Snapshot{
		Scenario: scenarioName,
		ExitCode: result.ExitCode,
		Output:   result.Output,
		Changes:  make([]ChangeRecord, len(result.Changes)),
	}
	for i, c := range result.Changes {
		s.Changes[i] = ChangeRecord{
			Seq:      c.Seq,
			Source:   c.Source,
			Document: c.Document,
			Location: c.Location,
			Action:   c.Action,
			Policy:   c.Policy,
			Detail:   c.Detail,
		}
	}
	return s
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// HTML characters are not escaped so anchors and aliases stay readable.
func (s Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
