package yamlpath

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/yamlpath/internal/ir"
)

// Method is a search comparison.
type Method uint8

const (
	Equals Method = iota + 1
	StartsWith
	EndsWith
	Contains
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	Regex
)

var operators = []struct {
	op     string
	method Method
}{
	// Two-character operators first so that "<=" is not read as "<".
	{"<=", LessOrEqual},
	{">=", GreaterOrEqual},
	{"=~", Regex},
	{"=", Equals},
	{"^", StartsWith},
	{"$", EndsWith},
	{"%", Contains},
	{"<", LessThan},
	{">", GreaterThan},
}

// Operator returns the textual operator of m.
func (m Method) Operator() string {
	for _, o := range operators {
		if o.method == m {
			return o.op
		}
	}
	return "?"
}

func (m Method) String() string {
	switch m {
	case Equals:
		return "equals"
	case StartsWith:
		return "starts-with"
	case EndsWith:
		return "ends-with"
	case Contains:
		return "contains"
	case LessThan:
		return "less-than"
	case GreaterThan:
		return "greater-than"
	case LessOrEqual:
		return "less-or-equal"
	case GreaterOrEqual:
		return "greater-or-equal"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// SearchTerms is a parsed search expression. Attribute "." tests the
// candidate itself; any other attribute names a child key of the candidate.
type SearchTerms struct {
	Attribute string
	Method    Method
	Term      string
	Invert    bool

	delim rune
	re    *regexp.Regexp
}

// NewSearchTerms builds a search expression, compiling regex terms.
func NewSearchTerms(attribute string, method Method, term string, invert bool) (*SearchTerms, error) {
	if attribute == "" {
		attribute = "."
	}
	t := &SearchTerms{Attribute: attribute, Method: method, Term: term, Invert: invert, delim: '/'}
	if method == Regex {
		re, err := regexp.Compile(term)
		if err != nil {
			return nil, fmt.Errorf("invalid regular expression %q: %w", term, err)
		}
		t.re = re
		if strings.ContainsRune(term, '/') {
			t.delim = pickDelimiter(term)
		}
	}
	return t, nil
}

// ParseSearch parses a command-line search expression of the form
// [!]OPERATOR TERM, for example "^team" or "!=~/^x/".
func ParseSearch(expr string) (*SearchTerms, error) {
	invert := false
	rest := expr
	if strings.HasPrefix(rest, "!") {
		invert = true
		rest = rest[1:]
	}
	method, term, ok := splitOperator(rest)
	if !ok {
		return nil, fmt.Errorf("search expression %q must start with one of = ^ $ %% < > <= >= =~", expr)
	}
	if method == Regex {
		pattern, delim, err := unwrapRegex(term)
		if err != nil {
			return nil, fmt.Errorf("search expression %q: %w", expr, err)
		}
		t, err := NewSearchTerms(".", Regex, pattern, invert)
		if err != nil {
			return nil, err
		}
		t.delim = delim
		return t, nil
	}
	return NewSearchTerms(".", method, term, invert)
}

// parseSearchBody parses the inside of a bracketed search segment:
// ATTRIBUTE [!] OPERATOR TERM with backslash escapes for '\' and ']'.
func parseSearchBody(body string) (*SearchTerms, error) {
	var attr strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			attr.WriteByte(body[i+1])
			i += 2
			continue
		}
		if strings.IndexByte("!=^$%<>", c) >= 0 {
			break
		}
		attr.WriteByte(c)
		i++
	}
	rest := body[i:]
	invert := false
	if strings.HasPrefix(rest, "!") {
		invert = true
		rest = rest[1:]
	}
	method, term, ok := splitOperator(rest)
	if !ok {
		return nil, fmt.Errorf("missing search operator in %q", body)
	}
	term = unescapeBracket(term)
	name := strings.TrimSpace(attr.String())
	if method == Regex {
		pattern, delim, err := unwrapRegex(term)
		if err != nil {
			return nil, err
		}
		t, err := NewSearchTerms(name, Regex, pattern, invert)
		if err != nil {
			return nil, err
		}
		t.delim = delim
		return t, nil
	}
	return NewSearchTerms(name, method, term, invert)
}

func splitOperator(s string) (Method, string, bool) {
	for _, o := range operators {
		if strings.HasPrefix(s, o.op) {
			return o.method, s[len(o.op):], true
		}
	}
	return 0, "", false
}

// unwrapRegex strips the delimiters of a regex term. The first character
// is the delimiter and the term must end with the same character.
func unwrapRegex(term string) (string, rune, error) {
	if len(term) < 2 {
		return "", 0, fmt.Errorf("regular expression %q needs matching delimiters", term)
	}
	delim := rune(term[0])
	if rune(term[len(term)-1]) != delim {
		return "", 0, fmt.Errorf("regular expression %q is not closed by %q", term, delim)
	}
	return term[1 : len(term)-1], delim, nil
}

func pickDelimiter(pattern string) rune {
	for _, r := range "/!#%|~@" {
		if !strings.ContainsRune(pattern, r) {
			return r
		}
	}
	return '/'
}

// Matches reports whether a scalar candidate satisfies the expression,
// after applying inversion.
func (t *SearchTerms) Matches(value string, typ ir.ScalarType) bool {
	return t.test(value, typ) != t.Invert
}

func (t *SearchTerms) test(value string, typ ir.ScalarType) bool {
	switch t.Method {
	case Regex:
		return t.re.MatchString(value)
	case StartsWith:
		return strings.HasPrefix(value, t.Term)
	case EndsWith:
		return strings.HasSuffix(value, t.Term)
	case Contains:
		return strings.Contains(value, t.Term)
	case Equals:
		switch typ {
		case ir.IntType:
			a, ok1 := ir.ParseInt(value)
			b, ok2 := ir.ParseInt(t.Term)
			return ok1 && ok2 && a == b
		case ir.FloatType:
			a, ok1 := ir.ParseFloat(value)
			b, ok2 := ir.ParseFloat(t.Term)
			return ok1 && ok2 && a == b
		case ir.BoolType:
			a, ok1 := ir.ParseBool(value)
			b, ok2 := ir.ParseBool(t.Term)
			return ok1 && ok2 && a == b
		default:
			return value == t.Term
		}
	case LessThan, GreaterThan, LessOrEqual, GreaterOrEqual:
		cmp, ok := t.compare(value, typ)
		if !ok {
			return false
		}
		switch t.Method {
		case LessThan:
			return cmp < 0
		case GreaterThan:
			return cmp > 0
		case LessOrEqual:
			return cmp <= 0
		default:
			return cmp >= 0
		}
	}
	return false
}

// compare orders the candidate against the term: numerically for numeric
// candidates, lexically otherwise.
func (t *SearchTerms) compare(value string, typ ir.ScalarType) (int, bool) {
	switch typ {
	case ir.IntType:
		a, ok1 := ir.ParseInt(value)
		b, ok2 := ir.ParseInt(t.Term)
		if !ok1 || !ok2 {
			return 0, false
		}
		return cmpOrdered(a, b), true
	case ir.FloatType:
		a, ok1 := ir.ParseFloat(value)
		b, ok2 := ir.ParseFloat(t.Term)
		if !ok1 || !ok2 {
			return 0, false
		}
		return cmpOrdered(a, b), true
	default:
		return strings.Compare(value, t.Term), true
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Expression renders the command-line form, without attribute.
func (t *SearchTerms) Expression() string {
	var b strings.Builder
	if t.Invert {
		b.WriteByte('!')
	}
	b.WriteString(t.Method.Operator())
	b.WriteString(t.termText())
	return b.String()
}

// String renders the bracket-body form used inside a locator.
func (t *SearchTerms) String() string {
	var b strings.Builder
	if t.Attribute != "." {
		for _, r := range t.Attribute {
			if r == '\\' || r == ']' || strings.ContainsRune("!=^$%<>", r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	} else {
		b.WriteByte('.')
	}
	if t.Invert {
		b.WriteByte('!')
	}
	b.WriteString(t.Method.Operator())
	escapeBracket(&b, t.termText())
	return b.String()
}

func (t *SearchTerms) termText() string {
	if t.Method == Regex {
		d := string(t.delim)
		return d + t.Term + d
	}
	return t.Term
}
