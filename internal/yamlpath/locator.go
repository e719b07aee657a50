package yamlpath

import (
	"fmt"
	"slices"
	"strings"
)

// Separator selects the textual form of a path.
type Separator uint8

const (
	// Auto infers the separator from the text: a leading '/' selects Slash.
	Auto Separator = iota
	Dot
	Slash
)

// ParseSeparator accepts the names used on the command line.
func ParseSeparator(name string) (Separator, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return Auto, nil
	case "dot", ".":
		return Dot, nil
	case "fslash", "slash", "/":
		return Slash, nil
	default:
		return Auto, fmt.Errorf("unknown path separator %q (want dot or fslash)", name)
	}
}

func (s Separator) String() string {
	switch s {
	case Dot:
		return "dot"
	case Slash:
		return "fslash"
	default:
		return "auto"
	}
}

func (s Separator) rune() rune {
	if s == Slash {
		return '/'
	}
	return '.'
}

// Locator addresses a node inside a document. The zero value is the root.
// Locators are immutable; Append returns a new value.
type Locator struct {
	segs []Segment
}

// Root returns the locator of the document root.
func Root() Locator {
	return Locator{}
}

// New builds a locator from segments.
func New(segs ...Segment) Locator {
	return Locator{segs: slices.Clone(segs)}
}

// Append returns a locator extended by seg.
func (l Locator) Append(seg Segment) Locator {
	segs := make([]Segment, len(l.segs), len(l.segs)+1)
	copy(segs, l.segs)
	return Locator{segs: append(segs, seg)}
}

// Join returns l followed by every segment of rel.
func (l Locator) Join(rel Locator) Locator {
	segs := make([]Segment, 0, len(l.segs)+len(rel.segs))
	segs = append(segs, l.segs...)
	return Locator{segs: append(segs, rel.segs...)}
}

// Len returns the number of segments.
func (l Locator) Len() int { return len(l.segs) }

// IsRoot reports whether l addresses the document root.
func (l Locator) IsRoot() bool { return len(l.segs) == 0 }

// At returns the i-th segment.
func (l Locator) At(i int) Segment { return l.segs[i] }

// Segments returns a copy of the segments.
func (l Locator) Segments() []Segment { return slices.Clone(l.segs) }

// Parent returns l without its last segment. The parent of the root is
// the root.
func (l Locator) Parent() Locator {
	if len(l.segs) == 0 {
		return l
	}
	return Locator{segs: l.segs[:len(l.segs)-1:len(l.segs)-1]}
}

// Last returns the final segment.
func (l Locator) Last() (Segment, bool) {
	if len(l.segs) == 0 {
		return Segment{}, false
	}
	return l.segs[len(l.segs)-1], true
}

// Concrete reports whether every segment addresses at most one node.
func (l Locator) Concrete() bool {
	for _, s := range l.segs {
		if !s.Concrete() {
			return false
		}
	}
	return true
}

// HasSearch reports whether any segment is a search expression.
func (l Locator) HasSearch() bool {
	for _, s := range l.segs {
		if s.Kind == SearchSegment {
			return true
		}
	}
	return false
}

// Equal reports whether two locators have identical segments.
func (l Locator) Equal(o Locator) bool {
	return slices.EqualFunc(l.segs, o.segs, Segment.Equal)
}

// Render writes l in the given separator mode. Auto renders as Dot.
//
// Slash mode always starts with '/' and the root renders as "/". Dot mode
// has no leading separator and the root renders as "".
func (l Locator) Render(sep Separator) string {
	if sep == Auto {
		sep = Dot
	}
	var b strings.Builder
	if sep == Slash {
		b.WriteByte('/')
	}
	for i, s := range l.segs {
		if i > 0 && !s.bracketed() {
			b.WriteRune(sep.rune())
		}
		s.render(&b, sep, i == 0)
	}
	return b.String()
}

// String renders l in dot mode.
func (l Locator) String() string {
	return l.Render(Dot)
}
