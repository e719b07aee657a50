// Package harness runs conformance scenarios against the merge
// orchestrator.
//
// # Scenario Format
//
// Scenarios are YAML files holding their sources inline:
//
//	name: deep_merge_hashes
//	description: "Nested mappings merge key by key"
//	files:
//	  base.yaml: |
//	    settings:
//	      debug: false
//	  override.yaml: |
//	    settings:
//	      debug: true
//	sources: [base.yaml, override.yaml]
//	options:
//	  hashes: deep
//	expect:
//	  exit_code: 0
//	assertions:
//	  - type: value
//	    path: /settings/debug
//	    value: "true"
//	  - type: change
//	    path: settings.debug
//	    action: replace
//
// Sources not listed under files fail to open. A source named "-" reads
// the stdin field; without it stdin behaves as an interactive terminal.
// A config entry supplies an inline rule file whose name selects the
// format.
//
// # Assertion Types
//
//   - value: the scalar at path has the given text
//   - absent: path addresses no node
//   - anchor: the node at path carries the given anchor name
//   - change: a change with the given action was recorded at path
//   - change_count: the number of changes with an action, optionally at path
//
// # Deterministic Testing
//
// Every scenario runs with in-memory sources, a fixed run id and a fresh
// in-memory SQLite journal, so a rerun yields a byte-identical snapshot
// for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/deep_merge_hashes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
