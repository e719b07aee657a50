package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/ir"
)

// Document decodes text as exactly one document.
func Document(t testing.TB, text string) *ir.Document {
	t.Helper()
	src, err := docio.Decode("test.yaml", []byte(text))
	require.NoError(t, err)
	require.Len(t, src.Documents, 1, "expected a single document")
	return src.Documents[0]
}

// YAML emits doc as YAML text.
func YAML(t testing.TB, doc *ir.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, docio.EmitYAML(&buf, doc))
	return buf.String()
}
