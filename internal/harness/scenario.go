package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Scenario defines a conformance scenario: a set of in-memory sources, a
// merge invocation over them and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Files holds the source documents, keyed by source name.
	Files map[string]string `yaml:"files"`

	// Sources lists the source names to merge, in order. Names missing
	// from Files fail to open; "-" reads Stdin.
	Sources []string `yaml:"sources"`

	// Stdin is the content of standard input. If nil, stdin behaves as an
	// interactive terminal and is never read unless named.
	Stdin *string `yaml:"stdin,omitempty"`

	// Config is an optional rule file.
	Config *ConfigFile `yaml:"config,omitempty"`

	// Options carries the command-line merge options.
	Options Options `yaml:"options,omitempty"`

	// Expect describes the run outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the merged document and the recorded changes.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run id for the journal.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// ConfigFile is a rule file given inline. Name selects the format by its
// extension.
type ConfigFile struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// Options mirrors the merge command flags.
type Options struct {
	Anchors string `yaml:"anchors,omitempty"`
	Arrays  string `yaml:"arrays,omitempty"`
	Hashes  string `yaml:"hashes,omitempty"`
	AoH     string `yaml:"aoh,omitempty"`
	MergeAt string `yaml:"mergeat,omitempty"`
	Format  string `yaml:"format,omitempty"`
	NoStdin bool   `yaml:"nostdin,omitempty"`
}

// Expect specifies the expected run outcome.
type Expect struct {
	// ExitCode is the expected process exit status. Zero means success.
	ExitCode int `yaml:"exit_code"`

	// Output is the exact expected document text. If nil, output is not
	// compared.
	Output *string `yaml:"output,omitempty"`

	// Error is a substring of the expected error message.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the merged document or the recorded changes.
type Assertion struct {
	// Type specifies the assertion type:
	// - "value": the scalar at Path has Value
	// - "absent": Path addresses no node
	// - "anchor": the node at Path carries anchor Name
	// - "change": a change with Action was recorded at Path
	// - "change_count": exactly Count changes with Action were recorded,
	//   at Path when one is given
	Type string `yaml:"type"`

	// Path is a locator in either separator mode.
	Path string `yaml:"path,omitempty"`

	// Value is the expected scalar text (used by value).
	Value string `yaml:"value,omitempty"`

	// Name is the expected anchor name (used by anchor).
	Name string `yaml:"name,omitempty"`

	// Action is a change action such as insert or deepen.
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of changes (used by change_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertValue       = "value"
	AssertAbsent      = "absent"
	AssertAnchor      = "anchor"
	AssertChange      = "change"
	AssertChangeCount = "change_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML content.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Sources) == 0 {
		return fmt.Errorf("sources list is required and must be non-empty")
	}

	if s.Config != nil && s.Config.Name == "" {
		return fmt.Errorf("config: name is required")
	}

	if s.Expect.ExitCode < 0 || s.Expect.ExitCode > 7 {
		return fmt.Errorf("expect: exit_code %d is out of range 0..7", s.Expect.ExitCode)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertValue, AssertAbsent, AssertAnchor, AssertChange:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertChangeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Path != "" {
		if _, err := yamlpath.Parse(a.Path); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertAnchor:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for anchor", index)
		}
	case AssertChange, AssertChangeCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for %s", index, a.Type)
		}
	}

	return nil
}
