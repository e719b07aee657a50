package yamlpath

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports malformed path text.
type ParseError struct {
	Path   string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid YAML path %q at offset %d: %s", e.Path, e.Offset, e.Msg)
}

// Parse parses path text, inferring the separator: text starting with '/'
// is read in slash mode, anything else in dot mode.
func Parse(path string) (Locator, error) {
	return ParseWith(path, Auto)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(path string) Locator {
	l, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseWith parses path text in the given separator mode.
func ParseWith(path string, sep Separator) (Locator, error) {
	if sep == Auto {
		sep = Dot
		if strings.HasPrefix(path, "/") {
			sep = Slash
		}
	}
	p := &parser{src: path, sep: sep.rune()}
	if sep == Slash {
		if !strings.HasPrefix(path, "/") {
			return Locator{}, p.fail(0, "slash-mode path must start with '/'")
		}
		p.pos = 1
	}
	return p.parse()
}

type parser struct {
	src  string
	sep  rune
	pos  int
	segs []Segment

	key     strings.Builder
	glob    strings.Builder
	inKey   bool
	isGlob  bool
	keyFrom int
}

func (p *parser) fail(at int, format string, args ...any) error {
	return &ParseError{Path: p.src, Offset: at, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (Locator, error) {
	// afterBracket is set when the previous segment was bracketed and no
	// separator has been read since.
	afterBracket := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return Locator{}, p.fail(p.pos, "dangling escape")
			}
			if afterBracket {
				return Locator{}, p.fail(p.pos, "expected separator after ']'")
			}
			r, size := decodeRune(p.src[p.pos+1:])
			p.startKey()
			p.key.WriteString(r)
			if strings.ContainsAny(r, `*?[]{}\`) {
				p.glob.WriteByte('\\')
			}
			p.glob.WriteString(r)
			p.pos += 1 + size
		case rune(c) == p.sep:
			if !p.inKey && !afterBracket {
				if p.pos == len(p.src)-1 && p.sep == '/' {
					// Trailing slash.
					p.pos++
					continue
				}
				return Locator{}, p.fail(p.pos, "empty path segment")
			}
			if p.inKey {
				p.flushKey()
			}
			afterBracket = false
			p.pos++
		case c == '[':
			if p.inKey {
				p.flushKey()
			}
			seg, err := p.bracket()
			if err != nil {
				return Locator{}, err
			}
			p.segs = append(p.segs, seg)
			afterBracket = true
		case c == ']':
			return Locator{}, p.fail(p.pos, "unbalanced ']'")
		default:
			if afterBracket {
				return Locator{}, p.fail(p.pos, "expected separator after ']'")
			}
			p.startKey()
			if c == '*' || c == '?' {
				p.isGlob = true
			}
			r, size := decodeRune(p.src[p.pos:])
			p.key.WriteString(r)
			p.glob.WriteString(r)
			p.pos += size
		}
	}
	if p.inKey {
		p.flushKey()
	} else if !afterBracket && len(p.segs) > 0 && p.sep != '/' {
		return Locator{}, p.fail(len(p.src), "path ends with a separator")
	}
	return Locator{segs: p.segs}, nil
}

func (p *parser) startKey() {
	if !p.inKey {
		p.inKey = true
		p.keyFrom = p.pos
	}
}

func (p *parser) flushKey() {
	if p.isGlob {
		p.segs = append(p.segs, Wildcard(p.glob.String()))
	} else {
		p.segs = append(p.segs, Key(p.key.String()))
	}
	p.key.Reset()
	p.glob.Reset()
	p.inKey = false
	p.isGlob = false
}

// bracket consumes a bracketed segment starting at '['.
func (p *parser) bracket() (Segment, error) {
	start := p.pos
	i := p.pos + 1
	for i < len(p.src) && p.src[i] != ']' {
		if p.src[i] == '\\' {
			i++
		}
		i++
	}
	if i >= len(p.src) {
		return Segment{}, p.fail(start, "unterminated '['")
	}
	body := p.src[start+1 : i]
	p.pos = i + 1

	switch {
	case body == "":
		return Segment{}, p.fail(start, "empty brackets")
	case body == "*":
		return Wildcard("*"), nil
	case body == `""`:
		return Key(""), nil
	case body[0] == '&':
		name := unescapeBracket(body[1:])
		if name == "" {
			return Segment{}, p.fail(start, "empty anchor name")
		}
		return Anchor(name), nil
	}
	if n, err := strconv.Atoi(body); err == nil {
		return Index(n), nil
	}
	if lo, hi, ok := strings.Cut(body, ":"); ok {
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		if errA == nil && errB == nil {
			if a < 0 || b < a {
				return Segment{}, p.fail(start, "invalid slice [%s]", body)
			}
			return Slice(a, b), nil
		}
	}
	terms, err := parseSearchBody(body)
	if err != nil {
		return Segment{}, p.fail(start, "%v", err)
	}
	return Search(terms), nil
}

// unescapeBracket removes the escapes of '\' and ']'. Other backslashes
// are kept so regular expressions survive unchanged.
func unescapeBracket(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == ']') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func decodeRune(s string) (string, int) {
	for i := range s {
		if i > 0 {
			return s[:i], i
		}
	}
	return s, len(s)
}
