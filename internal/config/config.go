package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Section names.
const (
	SectionDefaults = "defaults"
	SectionRules    = "rules"
	SectionKeys     = "keys"
)

// Entry is one name = value line of a section, in declaration order.
type Entry struct {
	Name  string
	Value string
	Line  int
}

// File is a decoded rule file.
type File struct {
	Path     string
	Defaults []Entry
	Rules    []Entry
	Keys     []Entry
}

// LoadError reports an unreadable or invalid rule file.
type LoadError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
}

// Load reads and decodes the rule file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse decodes rule file content, choosing the format from the name.
func Parse(path string, data []byte) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return parseTOML(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return parseINI(path, data)
	}
}

// CommandLayer converts command-line policy flags into the "command"
// layer. Empty values are left to the built-in defaults.
func CommandLayer(flags map[rules.Category]string) (rules.Layer, error) {
	layer := rules.Layer{Name: "command", Defaults: make(map[rules.Category]rules.Policy)}
	for _, c := range rules.Categories {
		v := strings.TrimSpace(flags[c])
		if v == "" {
			continue
		}
		p, err := rules.ParsePolicy(c, v)
		if err != nil {
			return rules.Layer{}, err
		}
		layer.Defaults[c] = p
	}
	return layer, nil
}

// LoadLayer loads path and converts it into a rules layer.
func LoadLayer(path string) (rules.Layer, error) {
	f, err := Load(path)
	if err != nil {
		return rules.Layer{}, err
	}
	return f.Layer()
}

// Layer converts the file into a rules layer named after the file.
func (f *File) Layer() (rules.Layer, error) {
	layer := rules.Layer{Name: f.Path, Defaults: make(map[rules.Category]rules.Policy)}

	for _, e := range f.Defaults {
		c, err := rules.ParseCategory(e.Name)
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %v", SectionDefaults, err)
		}
		p, err := rules.ParsePolicy(c, e.Value)
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %v", SectionDefaults, err)
		}
		layer.Defaults[c] = p
	}

	for _, e := range f.Rules {
		pattern, err := yamlpath.Parse(e.Name)
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %v", SectionRules, err)
		}
		parsed, err := ruleValue(e.Value)
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %s: %v", SectionRules, e.Name, err)
		}
		for _, r := range parsed {
			r.Pattern = pattern
			layer.Rules = append(layer.Rules, r)
		}
	}

	for _, e := range f.Keys {
		pattern, err := yamlpath.Parse(e.Name)
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %v", SectionKeys, err)
		}
		key, err := yamlpath.Parse(strings.TrimSpace(e.Value))
		if err != nil {
			return rules.Layer{}, f.fail(e, "[%s] %s: %v", SectionKeys, e.Name, err)
		}
		layer.Keys = append(layer.Keys, rules.KeyBinding{Pattern: pattern, Key: key})
	}
	return layer, nil
}

func (f *File) fail(e Entry, format string, args ...any) error {
	return &LoadError{Path: f.Path, Line: e.Line, Message: fmt.Sprintf(format, args...)}
}

// ruleValue parses "policy" or "category:policy". A bare policy expands to
// one rule per non-anchor category that accepts it.
func ruleValue(value string) ([]rules.Rule, error) {
	value = strings.TrimSpace(value)
	if cat, pol, ok := strings.Cut(value, ":"); ok {
		c, err := rules.ParseCategory(cat)
		if err != nil {
			return nil, err
		}
		if c == rules.Anchors {
			return nil, fmt.Errorf("anchor policy cannot be set per path")
		}
		p, err := rules.ParsePolicy(c, pol)
		if err != nil {
			return nil, err
		}
		return []rules.Rule{{Category: c, Policy: p}}, nil
	}
	p := rules.Policy(strings.ToLower(value))
	var out []rules.Rule
	for _, c := range rules.Categories {
		if c != rules.Anchors && c.Allows(p) {
			out = append(out, rules.Rule{Category: c, Policy: p})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unknown policy %q", value)
	}
	return out, nil
}
