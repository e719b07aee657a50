package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(path string, data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	f := &File{Path: path}
	if len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{Path: path, Line: root.Line, Column: root.Column, Message: "rule file must be a mapping of sections"}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i], root.Content[i+1]
		var dst *[]Entry
		switch name.Value {
		case SectionDefaults:
			dst = &f.Defaults
		case SectionRules:
			dst = &f.Rules
		case SectionKeys:
			dst = &f.Keys
		default:
			return nil, &LoadError{Path: path, Line: name.Line, Column: name.Column, Message: fmt.Sprintf("unknown section %q", name.Value)}
		}
		if body.Kind == yaml.ScalarNode && body.ShortTag() == "!!null" {
			continue
		}
		if body.Kind != yaml.MappingNode {
			return nil, &LoadError{Path: path, Line: body.Line, Column: body.Column, Message: fmt.Sprintf("section %q must be a mapping", name.Value)}
		}
		for j := 0; j+1 < len(body.Content); j += 2 {
			k, v := body.Content[j], body.Content[j+1]
			if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
				return nil, &LoadError{Path: path, Line: k.Line, Column: k.Column, Message: "section entries must be scalar name: value pairs"}
			}
			*dst = append(*dst, Entry{Name: k.Value, Value: v.Value, Line: k.Line})
		}
	}
	return f, nil
}
