package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/testutil"
)

func testResult(t *testing.T, text string, changes ...store.Change) *Result {
	t.Helper()
	result := NewResult()
	result.Document = testutil.Document(t, text)
	result.Changes = append(result.Changes, changes...)
	return result
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertChange,
		Expected: "insert at /a",
		Actual:   "no matching change",
		Changes:  []store.Change{{Seq: 1, Location: "/", Action: "deepen", Detail: "builtin default"}},
	}

	want := "Assertion failed: change\n" +
		"  Expected: insert at /a\n" +
		"  Actual: no matching change\n" +
		"\nChanges:\n" +
		"  [1] deepen / builtin default\n"
	assert.Equal(t, want, err.Error())
}

func TestAssertValue(t *testing.T) {
	result := testResult(t, "a: 1\nm:\n  k: v\nl: [x, y]\n")

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{name: "slash path", a: Assertion{Path: "/m/k", Value: "v"}},
		{name: "dot path", a: Assertion{Path: "l[1]", Value: "y"}},
		{name: "wrong value", a: Assertion{Path: "/a", Value: "2"}, wantErr: `Actual: "1"`},
		{name: "missing", a: Assertion{Path: "/zz", Value: "1"}, wantErr: "no single node"},
		{name: "not scalar", a: Assertion{Path: "/m", Value: "v"}, wantErr: "not a scalar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertValue
			err := evaluateAssertion(result, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertAbsent(t *testing.T) {
	result := testResult(t, "a: 1\nl: [x]\n")

	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertAbsent, Path: "/b"}))
	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertAbsent, Path: "/l[3]"}))

	err := evaluateAssertion(result, Assertion{Type: AssertAbsent, Path: "/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 node(s) found")
}

func TestAssertAnchor(t *testing.T) {
	result := testResult(t, "a: &base 1\nb: 2\n")

	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertAnchor, Path: "/a", Name: "base"}))

	err := evaluateAssertion(result, Assertion{Type: AssertAnchor, Path: "/b", Name: "base"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `anchor ""`)
}

func TestDocumentAssertions_NoDocument(t *testing.T) {
	result := NewResult()

	for _, a := range []Assertion{
		{Type: AssertValue, Path: "/a", Value: "1"},
		{Type: AssertAbsent, Path: "/a"},
		{Type: AssertAnchor, Path: "/a", Name: "x"},
	} {
		err := evaluateAssertion(result, a)
		require.Error(t, err, a.Type)
		assert.Contains(t, err.Error(), "no merged document")
	}
}

func TestAssertChange(t *testing.T) {
	result := testResult(t, "a: 1\n",
		store.Change{Seq: 1, Location: "/", Action: "deepen"},
		store.Change{Seq: 2, Location: "/a/b", Action: "insert"},
	)

	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChange, Path: "/a/b", Action: "insert"}))
	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChange, Path: "a.b", Action: "insert"}))
	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChange, Path: "/", Action: "deepen"}))

	err := evaluateAssertion(result, Assertion{Type: AssertChange, Path: "/a/b", Action: "replace"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: replace at /a/b")
	assert.Contains(t, err.Error(), "[2] insert /a/b")
}

func TestAssertChangeCount(t *testing.T) {
	result := testResult(t, "l: [1, 2, 3]\n",
		store.Change{Seq: 1, Location: "/", Action: "deepen"},
		store.Change{Seq: 2, Location: "/l[1]", Action: "append"},
		store.Change{Seq: 3, Location: "/l[2]", Action: "append"},
	)

	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChangeCount, Action: "append", Count: 2}))
	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChangeCount, Action: "append", Path: "l[2]", Count: 1}))
	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertChangeCount, Action: "insert", Count: 0}))

	err := evaluateAssertion(result, Assertion{Type: AssertChangeCount, Action: "append", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: append exactly 3 times")
	assert.Contains(t, err.Error(), "Actual: 2 times")

	err = evaluateAssertion(result, Assertion{Type: AssertChangeCount, Action: "append", Path: "/l[1]", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append at /l[1] exactly 2 times")
}

func TestEvaluateAssertion_UnknownType(t *testing.T) {
	err := evaluateAssertion(NewResult(), Assertion{Type: "trace_order"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")
}
