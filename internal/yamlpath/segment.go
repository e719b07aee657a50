package yamlpath

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind classifies a path segment.
type SegmentKind uint8

const (
	KeySegment SegmentKind = iota + 1
	IndexSegment
	SliceSegment
	AnchorSegment
	WildcardSegment
	SearchSegment
)

func (k SegmentKind) String() string {
	switch k {
	case KeySegment:
		return "key"
	case IndexSegment:
		return "index"
	case SliceSegment:
		return "slice"
	case AnchorSegment:
		return "anchor"
	case WildcardSegment:
		return "wildcard"
	case SearchSegment:
		return "search"
	default:
		return fmt.Sprintf("SegmentKind(%d)", uint8(k))
	}
}

// Segment is one step of a Locator.
//
// Text holds the key for KeySegment, the anchor name for AnchorSegment and
// a doublestar glob for WildcardSegment. Index and End bound IndexSegment
// and SliceSegment (End is exclusive).
type Segment struct {
	Kind   SegmentKind
	Text   string
	Index  int
	End    int
	Search *SearchTerms
}

// Key returns a mapping key segment.
func Key(name string) Segment {
	return Segment{Kind: KeySegment, Text: name}
}

// Index returns a sequence index segment.
func Index(i int) Segment {
	return Segment{Kind: IndexSegment, Index: i}
}

// Slice returns a sequence slice segment covering [start, end).
func Slice(start, end int) Segment {
	return Segment{Kind: SliceSegment, Index: start, End: end}
}

// Anchor returns a segment addressing the child that carries anchor name.
func Anchor(name string) Segment {
	return Segment{Kind: AnchorSegment, Text: name}
}

// Wildcard returns a segment matching keys against a glob. "*" also
// matches every sequence element.
func Wildcard(pattern string) Segment {
	return Segment{Kind: WildcardSegment, Text: pattern}
}

// Search returns a segment filtering children by a search expression.
func Search(terms *SearchTerms) Segment {
	return Segment{Kind: SearchSegment, Search: terms}
}

// Concrete reports whether the segment addresses at most one child.
func (s Segment) Concrete() bool {
	switch s.Kind {
	case KeySegment, IndexSegment, AnchorSegment:
		return true
	default:
		return false
	}
}

// Equal reports whether two segments are identical.
func (s Segment) Equal(o Segment) bool {
	if s.Kind != o.Kind || s.Text != o.Text || s.Index != o.Index || s.End != o.End {
		return false
	}
	if s.Search == nil || o.Search == nil {
		return s.Search == o.Search
	}
	return s.Search.String() == o.Search.String()
}

func (s Segment) bracketed() bool {
	if s.Kind == KeySegment {
		return s.Text == ""
	}
	return !(s.Kind == WildcardSegment && s.Text != "*")
}

// render writes the segment in the given separator mode. first marks the
// segment at the head of a dot-mode path.
func (s Segment) render(b *strings.Builder, sep Separator, first bool) {
	switch s.Kind {
	case KeySegment:
		if s.Text == "" {
			b.WriteString(emptyKey)
			return
		}
		escapeKey(b, s.Text, sep, first)
	case IndexSegment:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.Index))
		b.WriteByte(']')
	case SliceSegment:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.Index))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.End))
		b.WriteByte(']')
	case AnchorSegment:
		b.WriteString("[&")
		escapeBracket(b, s.Text)
		b.WriteByte(']')
	case WildcardSegment:
		if s.Text == "*" {
			b.WriteString("[*]")
			return
		}
		renderGlob(b, s.Text, sep, first)
	case SearchSegment:
		b.WriteByte('[')
		b.WriteString(s.Search.String())
		b.WriteByte(']')
	}
}

// emptyKey is the bracketed form of the zero-length mapping key, which has
// no bare rendering between two separators.
const emptyKey = `[""]`

func isKeySpecial(r rune, sep Separator) bool {
	switch r {
	case '\\', '[', ']', '&', '*', '?':
		return true
	}
	return r == sep.rune()
}

func escapeKey(b *strings.Builder, key string, sep Separator, first bool) {
	for i, r := range key {
		if isKeySpecial(r, sep) || (i == 0 && first && sep == Dot && r == '/') {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}

// renderGlob writes a doublestar pattern as a key segment. Escapes already
// present in the pattern are kept; locator metacharacters that the glob
// treats literally are escaped.
func renderGlob(b *strings.Builder, pattern string, sep Separator, first bool) {
	escaped := false
	for i, r := range pattern {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			b.WriteByte('\\')
			escaped = true
		case r == '*' || r == '?':
			b.WriteRune(r)
		case r == '[' || r == ']' || r == '&' || r == sep.rune() || (i == 0 && first && sep == Dot && r == '/'):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
}

func escapeBracket(b *strings.Builder, s string) {
	for _, r := range s {
		if r == '\\' || r == ']' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}
