package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yamlpath/internal/yamlpath"
)

const resolveDoc = `hosts:
  web-1: {port: 80}
  web-2: {port: 81}
  db: {port: 5432}
services:
  - &api {name: api, port: 8080}
  - {name: worker, port: 9090}
  - {name: web, port: 80}
`

func resolvePaths(t *testing.T, path string) []string {
	t.Helper()
	doc := parseDoc(t, resolveDoc)
	var out []string
	for _, r := range Resolve(doc, yamlpath.MustParse(path)) {
		assert.True(t, r.Locator.Concrete())
		out = append(out, r.Locator.Render(yamlpath.Slash))
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/hosts/db/port", []string{"/hosts/db/port"}},
		{"/hosts/web-*/port", []string{"/hosts/web-1/port", "/hosts/web-2/port"}},
		{"/hosts/[*]", []string{"/hosts/web-1", "/hosts/web-2", "/hosts/db"}},
		{"/services[-1]/name", []string{"/services[2]/name"}},
		{"/services[0:2]", []string{"/services[0]", "/services[1]"}},
		{"/services[name=worker]/port", []string{"/services[1]/port"}},
		{"/services[port<9000]", []string{"/services[0]", "/services[2]"}},
		{"/services[&api]/port", []string{"/services[&api]/port"}},
		{"/[&api]/name", []string{"/[&api]/name"}},
		{"/hosts[.^web]", []string{"/hosts/web-1", "/hosts/web-2"}},
		{"/hosts[port=80]", []string{"/hosts/web-1"}},
		{"/missing/key", nil},
		{"/services[7]", nil},
		{"/hosts[0]", nil},
		{"/", []string{"/"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, resolvePaths(t, tt.path))
		})
	}
}

func TestGet(t *testing.T) {
	doc := parseDoc(t, resolveDoc)

	id, ok := Get(doc, yamlpath.MustParse("/services[1]/port"))
	require.True(t, ok)
	assert.Equal(t, "9090", doc.Node(id).Value)

	_, ok = Get(doc, yamlpath.MustParse("/hosts/web-*"))
	assert.False(t, ok, "ambiguous locators do not resolve to a single node")
}
