package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

func parseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(path, err)
	}

	top, err := v.Fields()
	if err != nil {
		return nil, cueLoadError(path, err)
	}
	for top.Next() {
		switch name := top.Selector().Unquoted(); name {
		case SectionDefaults, SectionRules, SectionKeys:
		default:
			pos := top.Value().Pos()
			return nil, &LoadError{Path: path, Line: pos.Line(), Column: pos.Column(), Message: fmt.Sprintf("unknown section %q", name)}
		}
	}

	f := &File{Path: path}
	sections := []struct {
		name string
		dst  *[]Entry
	}{
		{SectionDefaults, &f.Defaults},
		{SectionRules, &f.Rules},
		{SectionKeys, &f.Keys},
	}
	for _, sec := range sections {
		sv := v.LookupPath(cue.ParsePath(sec.name))
		if !sv.Exists() {
			continue
		}
		iter, err := sv.Fields()
		if err != nil {
			return nil, cueLoadError(path, err)
		}
		for iter.Next() {
			val, err := iter.Value().String()
			if err != nil {
				return nil, cueLoadError(path, err)
			}
			*sec.dst = append(*sec.dst, Entry{Name: iter.Selector().Unquoted(), Value: val, Line: iter.Value().Pos().Line()})
		}
	}
	return f, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Line = positions[0].Line()
		le.Column = positions[0].Column()
	}
	return le
}
