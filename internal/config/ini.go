package config

import "gopkg.in/ini.v1"

func parseINI(path string, data []byte) (*File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		// Paths may contain ':' so only '=' separates names from values.
		KeyValueDelimiters: "=",
	}, data)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	f := &File{Path: path}
	for _, sec := range cfg.Sections() {
		var dst *[]Entry
		switch sec.Name() {
		case SectionDefaults:
			dst = &f.Defaults
		case SectionRules:
			dst = &f.Rules
		case SectionKeys:
			dst = &f.Keys
		case ini.DefaultSection:
			if len(sec.Keys()) == 0 {
				continue
			}
			return nil, &LoadError{Path: path, Message: "entries must appear under [defaults], [rules] or [keys]"}
		default:
			return nil, &LoadError{Path: path, Message: "unknown section [" + sec.Name() + "]"}
		}
		for _, k := range sec.Keys() {
			*dst = append(*dst, Entry{Name: k.Name(), Value: k.Value()})
		}
	}
	return f, nil
}
