package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/yamlpath/internal/config"
	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/engine"
	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/testutil"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expected outcome and every assertion matched.
	Pass bool `json:"pass"`

	// ExitCode is the exit status the merge command would report.
	ExitCode int `json:"exit_code"`

	// Output is the emitted document text; empty when the run failed.
	Output string `json:"output"`

	// Error is the run error message; empty on success.
	Error string `json:"error,omitempty"`

	// Changes lists the journaled merge decisions, ordered by seq.
	Changes []store.Change `json:"changes"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the merged document; nil when the run failed.
	Document *ir.Document `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Changes: []store.Change{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against in-memory sources and a fresh in-memory
// journal, with a fixed run id, so reruns produce identical results.
// The returned error reports harness failures; merge failures are part of
// the result and are checked against scenario.Expect.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer st.Close()

	result := NewResult()

	resolver, opts, err := prepare(scenario)
	if err != nil {
		// Bad flags and rule files stop the command before any source is
		// read.
		result.ExitCode = engine.ExitValidation
		result.Error = err.Error()
		checkExpect(scenario, result)
		return result, nil
	}

	var (
		stdin    io.Reader
		terminal = true
	)
	if scenario.Stdin != nil {
		stdin = strings.NewReader(*scenario.Stdin)
		terminal = false
	}

	var out bytes.Buffer
	files := testutil.NewFiles(scenario.Files)
	eng := engine.New(resolver, testutil.NewFixedRunID(scenario.RunID),
		engine.WithLogger(logger),
		engine.WithOpener(files.Open),
		engine.WithStdin(stdin, terminal),
		engine.WithStdout(&out),
		engine.WithJournal(st),
	)

	res, runErr := eng.Run(ctx, opts)
	result.ExitCode = engine.ExitCode(runErr)
	if runErr != nil {
		result.Error = runErr.Error()
	} else {
		result.Output = out.String()
		result.Document = res.Document
		changes, err := st.Changes(ctx, res.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		result.Changes = changes
	}

	checkExpect(scenario, result)
	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(result, assertion); err != nil {
			result.AddError(err.Error())
		}
	}

	logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "exit_code", result.ExitCode)
	return result, nil
}

// prepare builds the resolver and run options the merge command would
// build from the scenario's flags and rule file.
func prepare(scenario *Scenario) (*rules.Resolver, engine.Options, error) {
	o := scenario.Options

	layers := make([]rules.Layer, 0, 2)
	command, err := config.CommandLayer(map[rules.Category]string{
		rules.Anchors: o.Anchors,
		rules.Arrays:  o.Arrays,
		rules.Hashes:  o.Hashes,
		rules.AoH:     o.AoH,
	})
	if err != nil {
		return nil, engine.Options{}, err
	}
	layers = append(layers, command)

	if c := scenario.Config; c != nil {
		f, err := config.Parse(c.Name, []byte(c.Content))
		if err != nil {
			return nil, engine.Options{}, err
		}
		layer, err := f.Layer()
		if err != nil {
			return nil, engine.Options{}, err
		}
		layers = append(layers, layer)
	}

	resolver, err := rules.NewResolver(layers...)
	if err != nil {
		return nil, engine.Options{}, err
	}

	mergeAt := yamlpath.Root()
	if o.MergeAt != "" {
		mergeAt, err = yamlpath.Parse(o.MergeAt)
		if err != nil {
			return nil, engine.Options{}, err
		}
	}

	format, err := docio.ParseFormat(o.Format)
	if err != nil {
		return nil, engine.Options{}, err
	}

	return resolver, engine.Options{
		Sources: scenario.Sources,
		MergeAt: mergeAt,
		Format:  format,
		NoStdin: o.NoStdin,
	}, nil
}

// checkExpect compares the run outcome with scenario.Expect.
func checkExpect(scenario *Scenario, result *Result) {
	want := scenario.Expect

	if result.ExitCode != want.ExitCode {
		result.AddError((&AssertionError{
			Type:     "exit_code",
			Expected: fmt.Sprintf("%d", want.ExitCode),
			Actual:   fmt.Sprintf("%d (%s)", result.ExitCode, result.Error),
		}).Error())
	}

	if want.Output != nil && result.Output != *want.Output {
		result.AddError((&AssertionError{
			Type:     "output",
			Expected: fmt.Sprintf("%q", *want.Output),
			Actual:   fmt.Sprintf("%q", result.Output),
		}).Error())
	}

	if want.Error != "" && !strings.Contains(result.Error, want.Error) {
		result.AddError((&AssertionError{
			Type:     "error",
			Expected: fmt.Sprintf("message containing %q", want.Error),
			Actual:   fmt.Sprintf("%q", result.Error),
		}).Error())
	}
}
