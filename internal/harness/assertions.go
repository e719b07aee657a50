package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/yamlpath/internal/search"
	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Changes  []store.Change // Recorded changes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Changes) > 0 {
		fmt.Fprintf(&buf, "\nChanges:\n")
		for _, c := range e.Changes {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", c.Seq, c.Action, c.Location, c.Detail)
		}
	}

	return buf.String()
}

// evaluateAssertion dispatches to the checker for a.Type.
func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertValue:
		return assertValue(result, a)
	case AssertAbsent:
		return assertAbsent(result, a)
	case AssertAnchor:
		return assertAnchor(result, a)
	case AssertChange:
		return assertChange(result.Changes, a)
	case AssertChangeCount:
		return assertChangeCount(result.Changes, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertValue checks that the scalar at a.Path has text a.Value.
func assertValue(result *Result, a Assertion) error {
	if result.Document == nil {
		return &AssertionError{Type: AssertValue, Expected: fmt.Sprintf("%s = %q", a.Path, a.Value), Actual: "no merged document"}
	}
	id, ok := search.Get(result.Document, yamlpath.MustParse(a.Path))
	if !ok {
		return &AssertionError{Type: AssertValue, Expected: fmt.Sprintf("%s = %q", a.Path, a.Value), Actual: "path addresses no single node"}
	}
	n := result.Document.Node(id)
	if !n.IsScalar() {
		return &AssertionError{Type: AssertValue, Expected: fmt.Sprintf("%s = %q", a.Path, a.Value), Actual: "node is not a scalar"}
	}
	if n.Value != a.Value {
		return &AssertionError{Type: AssertValue, Expected: fmt.Sprintf("%s = %q", a.Path, a.Value), Actual: fmt.Sprintf("%q", n.Value)}
	}
	return nil
}

// assertAbsent checks that a.Path addresses no node.
func assertAbsent(result *Result, a Assertion) error {
	if result.Document == nil {
		return &AssertionError{Type: AssertAbsent, Expected: a.Path + " absent", Actual: "no merged document"}
	}
	if found := search.Resolve(result.Document, yamlpath.MustParse(a.Path)); len(found) > 0 {
		return &AssertionError{Type: AssertAbsent, Expected: a.Path + " absent", Actual: fmt.Sprintf("%d node(s) found", len(found))}
	}
	return nil
}

// assertAnchor checks that the node at a.Path carries anchor a.Name.
func assertAnchor(result *Result, a Assertion) error {
	expected := fmt.Sprintf("%s anchored as &%s", a.Path, a.Name)
	if result.Document == nil {
		return &AssertionError{Type: AssertAnchor, Expected: expected, Actual: "no merged document"}
	}
	id, ok := search.Get(result.Document, yamlpath.MustParse(a.Path))
	if !ok {
		return &AssertionError{Type: AssertAnchor, Expected: expected, Actual: "path addresses no single node"}
	}
	if got := result.Document.Node(id).Anchor; got != a.Name {
		return &AssertionError{Type: AssertAnchor, Expected: expected, Actual: fmt.Sprintf("anchor %q", got)}
	}
	return nil
}

// assertChange checks that a change with a.Action was recorded at a.Path.
func assertChange(changes []store.Change, a Assertion) error {
	loc := normalize(a.Path)
	for _, c := range changes {
		if c.Location == loc && c.Action == a.Action {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertChange,
		Expected: fmt.Sprintf("%s at %s", a.Action, loc),
		Actual:   "no matching change",
		Changes:  changes,
	}
}

// assertChangeCount checks the number of changes with a.Action, limited
// to a.Path when one is given.
func assertChangeCount(changes []store.Change, a Assertion) error {
	loc := ""
	if a.Path != "" {
		loc = normalize(a.Path)
	}
	count := 0
	for _, c := range changes {
		if c.Action == a.Action && (loc == "" || c.Location == loc) {
			count++
		}
	}
	if count != a.Count {
		expected := fmt.Sprintf("%s exactly %d times", a.Action, a.Count)
		if loc != "" {
			expected = fmt.Sprintf("%s at %s exactly %d times", a.Action, loc, a.Count)
		}
		return &AssertionError{
			Type:     AssertChangeCount,
			Expected: expected,
			Actual:   fmt.Sprintf("%d times", count),
			Changes:  changes,
		}
	}
	return nil
}

// normalize renders a locator the way the journal stores it.
func normalize(path string) string {
	return yamlpath.MustParse(path).Render(yamlpath.Slash)
}
