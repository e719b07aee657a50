package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/merge"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/testutil"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// recordingJournal captures WriteRun calls.
type recordingJournal struct {
	runs    []store.Run
	changes [][]store.Change
	err     error
}

func (j *recordingJournal) WriteRun(_ context.Context, run store.Run, changes []store.Change) error {
	if j.err != nil {
		return j.err
	}
	j.runs = append(j.runs, run)
	j.changes = append(j.changes, changes)
	return nil
}

func newResolver(t *testing.T, layers ...rules.Layer) *rules.Resolver {
	t.Helper()
	r, err := rules.NewResolver(layers...)
	require.NoError(t, err)
	return r
}

func command(c rules.Category, p rules.Policy) rules.Layer {
	return rules.Layer{Name: "command", Defaults: map[rules.Category]rules.Policy{c: p}}
}

type fixture struct {
	files  *testutil.Files
	stdout *bytes.Buffer
	engine *Engine
}

func newFixture(t *testing.T, files map[string]string, layers []rules.Layer, opts ...EngineOption) *fixture {
	t.Helper()
	f := &fixture{files: testutil.NewFiles(files), stdout: &bytes.Buffer{}}
	all := append([]EngineOption{WithOpener(f.files.Open), WithStdout(f.stdout)}, opts...)
	f.engine = New(newResolver(t, layers...), NewFixedGenerator("run-1"), all...)
	return f
}

func (f *fixture) run(sources ...string) (*Result, error) {
	return f.engine.Run(context.Background(), Options{Sources: sources})
}

func TestEngine_New(t *testing.T) {
	e := New(newResolver(t), nil)

	assert.NotNil(t, e.logger)
	assert.NotNil(t, e.open)
	assert.IsType(t, UUIDv7Generator{}, e.runIDs)
	assert.True(t, e.stdinTerminal, "no stdin counts as interactive")
}

func TestRun_MergesSourcesInOrder(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.yaml": "a: 1\nb: 1\n",
		"b.yaml": "b: 2\nc: 2\n",
		"c.yaml": "c: 3\n",
	}, nil)

	res, err := f.run("a.yaml", "b.yaml", "c.yaml")
	require.NoError(t, err)

	assert.Equal(t, "a: 1\nb: 2\nc: 3\n", f.stdout.String())
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"a.yaml", "b.yaml", "c.yaml"}, res.Sources)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, docio.FormatYAML, res.Format)
}

func TestRun_OrderSensitive(t *testing.T) {
	files := map[string]string{
		"a.yaml": "v: a\n",
		"b.yaml": "v: b\n",
		"c.yaml": "v: c\n",
	}
	layers := []rules.Layer{command(rules.Hashes, rules.Right)}

	f := newFixture(t, files, layers)
	_, err := f.run("a.yaml", "b.yaml", "c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "v: c\n", f.stdout.String())

	f = newFixture(t, files, layers)
	_, err = f.run("a.yaml", "c.yaml", "b.yaml")
	require.NoError(t, err)
	assert.Equal(t, "v: b\n", f.stdout.String())
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		noStdin bool
		stdin   io.Reader
		code    ValidationCode
	}{
		{name: "no sources", code: ErrCodeTooFewSources},
		{name: "one source, interactive stdin", sources: []string{"a.yaml"}, code: ErrCodeTooFewSources},
		{name: "one source, stdin disabled", sources: []string{"a.yaml"}, noStdin: true, stdin: strings.NewReader("b: 1\n"), code: ErrCodeTooFewSources},
		{name: "stdin alone", sources: []string{"-"}, stdin: strings.NewReader("b: 1\n"), code: ErrCodeTooFewSources},
		{name: "stdin twice", sources: []string{"a.yaml", "-", "-"}, stdin: strings.NewReader("b: 1\n"), code: ErrCodeDuplicateStdin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []EngineOption
			if tt.stdin != nil {
				opts = append(opts, WithStdin(tt.stdin, false))
			}
			f := newFixture(t, map[string]string{"a.yaml": "a: 1\n"}, nil, opts...)

			_, err := f.engine.Run(context.Background(), Options{Sources: tt.sources, NoStdin: tt.noStdin})
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %T: %v", err, err)
			assert.Equal(t, tt.code, ve.Code)
			assert.Empty(t, f.files.Opened(), "validation must happen before any source is opened")
			assert.Empty(t, f.stdout.String())
		})
	}
}

func TestRun_OutputExists(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, os.WriteFile(out, []byte("old\n"), 0o644))

	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"}, nil)
	_, err := f.engine.Run(context.Background(), Options{Sources: []string{"a.yaml", "b.yaml"}, Output: out})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ErrCodeOutputExists, ve.Code)
	assert.Empty(t, f.files.Opened())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))
}

func TestRun_WritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.yaml")

	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"}, nil)
	_, err := f.engine.Run(context.Background(), Options{Sources: []string{"a.yaml", "b.yaml"}, Output: out})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb: 2\n", string(data))
	assert.Empty(t, f.stdout.String())
}

func TestRun_SingleSourceReadsPipedStdin(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n"}, nil,
		WithStdin(strings.NewReader("b: 2\n"), false))

	res, err := f.run("a.yaml")
	require.NoError(t, err)

	assert.Equal(t, "a: 1\nb: 2\n", f.stdout.String())
	assert.Equal(t, []string{"a.yaml", "-"}, res.Sources)
}

func TestRun_DrainsUnreadStdinLast(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "v: a\n", "b.yaml": "v: b\n"}, nil,
		WithStdin(strings.NewReader("v: stdin\n"), false))

	res, err := f.run("a.yaml", "b.yaml")
	require.NoError(t, err)

	assert.Equal(t, "v: stdin\n", f.stdout.String())
	assert.Equal(t, []string{"a.yaml", "b.yaml", "-"}, res.Sources)
	assert.Equal(t, 2, res.Documents)
}

func TestRun_StdinNotDrained(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		noStdin  bool
		sources  []string
		want     string
	}{
		{name: "interactive", terminal: true, sources: []string{"a.yaml", "b.yaml"}, want: "v: b\n"},
		{name: "disabled", noStdin: true, sources: []string{"a.yaml", "b.yaml"}, want: "v: b\n"},
		{name: "already named", sources: []string{"a.yaml", "-", "b.yaml"}, want: "v: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"a.yaml": "v: a\n", "b.yaml": "v: b\n"}, nil,
				WithStdin(strings.NewReader("v: stdin\n"), tt.terminal))

			res, err := f.engine.Run(context.Background(), Options{Sources: tt.sources, NoStdin: tt.noStdin})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.stdout.String())
			assert.Equal(t, tt.sources, res.Sources)
		})
	}
}

func TestRun_MultiDocumentPrime(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.yaml": "a: 1\n---\nb: 2\n---\nc: 3\n",
		"b.yaml": "c: 4\n",
	}, nil)

	res, err := f.run("a.yaml", "b.yaml")
	require.NoError(t, err)

	assert.Equal(t, "a: 1\nb: 2\nc: 4\n", f.stdout.String())
	assert.Equal(t, 3, res.Documents)
}

func TestRun_SkipsEmptyDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.yaml": "a: 1\n",
		"b.yaml": "~\n---\nb: 2\n---\n~\n",
	}, nil)

	res, err := f.run("a.yaml", "b.yaml")
	require.NoError(t, err)

	assert.Equal(t, "a: 1\nb: 2\n", f.stdout.String())
	assert.Equal(t, 1, res.Documents)
}

func TestRun_EmptyPrime(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "~\n", "b.yaml": "b: 2\n"}, nil)

	_, err := f.run("a.yaml", "b.yaml")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ErrCodeEmptyPrime, ve.Code)
	assert.Empty(t, f.stdout.String())
}

func TestRun_SourceErrors(t *testing.T) {
	t.Run("missing prime", func(t *testing.T) {
		f := newFixture(t, map[string]string{"b.yaml": "b: 2\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.True(t, IsPrimeError(err))
		assert.True(t, docio.IsAccessError(err))
	})

	t.Run("missing right-hand source", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: 1\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.False(t, IsPrimeError(err))
		var ae *docio.AccessError
		require.True(t, errors.As(err, &ae))
		assert.True(t, ae.NotFound())
		assert.Empty(t, f.stdout.String())
	})

	t.Run("unparsable right-hand source", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "a: [1\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.True(t, docio.IsParseError(err))
		assert.Equal(t, []string{"a.yaml", "b.yaml"}, f.files.Opened())
	})

	t.Run("later sources are not opened after a failure", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "c.yaml": "c: 3\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml", "c.yaml")

		require.Error(t, err)
		assert.Equal(t, []string{"a.yaml", "b.yaml"}, f.files.Opened())
	})
}

func TestRun_MergeErrorsCarryDocumentPosition(t *testing.T) {
	t.Run("single document", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: &X 1\n", "b.yaml": "b: &X 2\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.True(t, merge.IsConflict(err))
		assert.False(t, IsMultiDocument(err))
	})

	t.Run("multi document", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: &X 1\n", "b.yaml": "x: 1\n---\nb: &X 2\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.True(t, merge.IsConflict(err))
		assert.True(t, IsMultiDocument(err))

		var se *SourceError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "b.yaml", se.Source)
		assert.Equal(t, 1, se.Document)
		assert.Contains(t, se.Error(), "b.yaml (document 2)")
	})

	t.Run("extra prime documents count as multi document", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "a: &X 1\n---\nb: &X 2\n", "b.yaml": "c: 3\n"}, nil)
		_, err := f.run("a.yaml", "b.yaml")

		require.Error(t, err)
		assert.True(t, merge.IsConflict(err))
		assert.True(t, IsMultiDocument(err))
		assert.False(t, IsPrimeError(err))
	})

	t.Run("path errors", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.yaml": "l: [1, 2]\n", "b.yaml": "x: 1\n"}, nil)
		_, err := f.engine.Run(context.Background(), Options{
			Sources: []string{"a.yaml", "b.yaml"},
			MergeAt: yamlpath.MustParse("/l[5]"),
		})

		require.Error(t, err)
		assert.True(t, merge.IsPathError(err))
		assert.Empty(t, f.stdout.String())
	})
}

func TestRun_MergeAt(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "x: 2\n"}, nil)

	res, err := f.engine.Run(context.Background(), Options{
		Sources: []string{"a.yaml", "b.yaml"},
		MergeAt: yamlpath.MustParse("/sub"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nsub:\n  x: 2\n", f.stdout.String())
	assert.Equal(t, 1, res.Documents)
}

func TestRun_JSONFollowsPrime(t *testing.T) {
	f := newFixture(t, map[string]string{"a.json": `{"a": 1}`, "b.yaml": "b: [x]\n"}, nil)

	res, err := f.run("a.json", "b.yaml")
	require.NoError(t, err)

	assert.Equal(t, docio.FormatJSON, res.Format)
	assert.JSONEq(t, `{"a": 1, "b": ["x"]}`, f.stdout.String())
}

func TestRun_FormatOverride(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"}, nil)

	res, err := f.engine.Run(context.Background(), Options{
		Sources: []string{"a.yaml", "b.yaml"},
		Format:  docio.FormatJSON,
	})
	require.NoError(t, err)

	assert.Equal(t, docio.FormatJSON, res.Format)
	assert.JSONEq(t, `{"a": 1, "b": 2}`, f.stdout.String())
}

func TestRun_Journal(t *testing.T) {
	j := &recordingJournal{}
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "a: 2\nb: 3\n"}, nil, WithJournal(j))

	res, err := f.run("a.yaml", "b.yaml")
	require.NoError(t, err)

	require.Len(t, j.runs, 1)
	assert.Equal(t, store.Run{
		ID:        "run-1",
		Sources:   []string{"a.yaml", "b.yaml"},
		Format:    "yaml",
		MergeAt:   "/",
		Documents: 1,
	}, j.runs[0])

	changes := j.changes[0]
	require.Len(t, changes, 3)
	type step struct {
		seq      int64
		location string
		action   string
	}
	var got []step
	for _, c := range changes {
		assert.Equal(t, "run-1", c.RunID)
		assert.Equal(t, "b.yaml", c.Source)
		assert.Equal(t, 0, c.Document)
		got = append(got, step{c.Seq, c.Location, c.Action})
	}
	assert.Equal(t, []step{
		{1, "/", "deepen"},
		{2, "/a", "replace"},
		{3, "/b", "insert"},
	}, got)
	assert.Equal(t, changes, res.Changes)
}

func TestRun_FailedRunSkipsJournal(t *testing.T) {
	j := &recordingJournal{}
	f := newFixture(t, map[string]string{"a.yaml": "a: &X 1\n", "b.yaml": "b: &X 2\n"}, nil, WithJournal(j))

	_, err := f.run("a.yaml", "b.yaml")
	require.Error(t, err)
	assert.Empty(t, j.runs)
}

func TestRun_JournalError(t *testing.T) {
	j := &recordingJournal{err: errors.New("disk full")}
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"}, nil, WithJournal(j))

	_, err := f.run("a.yaml", "b.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_JournalStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "a: 2\n"}, nil, WithJournal(s))
	_, err = f.run("a.yaml", "b.yaml")
	require.NoError(t, err)

	history, err := s.History(context.Background(), "/a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "replace", history[0].Action)
	assert.Equal(t, "b.yaml", history[0].Source)
}

func TestRun_ContextCancelled(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Run(ctx, Options{Sources: []string{"a.yaml", "b.yaml"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.files.Opened())
	assert.Empty(t, f.stdout.String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "MERGE_NEXT_SOURCE", StateMergeNextSource.String())
	assert.Equal(t, "MAYBE_DRAIN_STDIN", StateMaybeDrainStdin.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
