package config

import (
	"bytes"
	"errors"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

type tomlFile struct {
	Defaults map[string]string `toml:"defaults"`
	Rules    map[string]string `toml:"rules"`
	Keys     map[string]string `toml:"keys"`
}

// parseTOML decodes a TOML rule file. TOML tables are unordered once
// decoded, so entries are taken in lexical order.
func parseTOML(path string, data []byte) (*File, error) {
	var raw tomlFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		le := &LoadError{Path: path, Message: err.Error()}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			le.Line, le.Column = de.Position()
		}
		return nil, le
	}
	return &File{
		Path:     path,
		Defaults: sortedEntries(raw.Defaults),
		Rules:    sortedEntries(raw.Rules),
		Keys:     sortedEntries(raw.Keys),
	}, nil
}

func sortedEntries(m map[string]string) []Entry {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		out = append(out, Entry{Name: name, Value: m[name]})
	}
	return out
}
