package testutil

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yamlpath/internal/docio"
)

func TestFixedRunID_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunID("run-123")

	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())
}

func TestFixedRunID_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())
}

func TestFiles_Open(t *testing.T) {
	f := NewFiles(map[string]string{"a.yaml": "a: 1\n"})

	rc, err := f.Open("a.yaml")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a: 1\n", string(data))

	_, err = f.Open("b.yaml")
	assert.True(t, errors.Is(err, docio.ErrSourceNotFound))

	assert.Equal(t, []string{"a.yaml", "b.yaml"}, f.Opened())
}

func TestFiles_IsOpener(t *testing.T) {
	f := NewFiles(map[string]string{"a.yaml": "a: 1\n---\nb: 2\n"})

	src, err := docio.Load("a.yaml", f.Open, nil)
	require.NoError(t, err)
	assert.True(t, src.MultiDocument())
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := Document(t, "a: &A 1\nb: *A\n")
	assert.Equal(t, "a: &A 1\nb: *A\n", YAML(t, doc))
}
