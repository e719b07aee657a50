package testutil

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/yamlpath/internal/docio"
)

// Files is an in-memory set of named sources. Its Open method is a
// docio.Opener that records every name it is asked for.
type Files struct {
	mu     sync.Mutex
	files  map[string]string
	opened []string
}

// NewFiles creates a source set holding files, keyed by source name.
func NewFiles(files map[string]string) *Files {
	f := &Files{files: make(map[string]string, len(files))}
	for name, text := range files {
		f.files[name] = text
	}
	return f
}

// Open returns the named source. A missing name yields an error matching
// docio.ErrSourceNotFound.
func (f *Files) Open(name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opened = append(f.opened, name)
	text, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docio.ErrSourceNotFound, name)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// Opened returns the names passed to Open, in call order.
func (f *Files) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.opened)
}
