package ir

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Canonical renders the value of id as canonical JSON: object keys sorted
// by UTF-16 code units (RFC 8785), strings NFC normalized, numbers in
// their shortest decimal form. Anchors, tags beyond the resolved scalar
// type, styles and comments do not contribute. Mappings contribute their
// folded view, so a merge-key source and an inline copy compare equal.
func (d *Document) Canonical(id NodeID) []byte {
	var buf bytes.Buffer
	d.writeCanonical(&buf, id, make(map[NodeID]bool))
	return buf.Bytes()
}

// Equal reports whether node a of da and node b of db hold the same value.
func Equal(da *Document, a NodeID, db *Document, b NodeID) bool {
	return bytes.Equal(da.Canonical(a), db.Canonical(b))
}

func (d *Document) writeCanonical(buf *bytes.Buffer, id NodeID, visiting map[NodeID]bool) {
	if id == NoNode {
		buf.WriteString("null")
		return
	}
	if visiting[id] {
		// Recursive alias; the cycle is cut rather than followed.
		buf.WriteString(`"*cycle"`)
		return
	}
	n := d.Node(id)
	switch n.Kind {
	case ScalarNode:
		writeCanonicalScalar(buf, n.Value, n.Type)
	case SequenceNode:
		visiting[id] = true
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			d.writeCanonical(buf, item, visiting)
		}
		buf.WriteByte(']')
		delete(visiting, id)
	case MappingNode:
		visiting[id] = true
		entries := d.Folded(id)
		slices.SortFunc(entries, func(a, b Entry) int {
			return compareKeysRFC8785(a.Key.Value, b.Key.Value)
		})
		buf.WriteByte('{')
		for i, e := range entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(marshalCanonicalString(e.Key.Value))
			buf.WriteByte(':')
			d.writeCanonical(buf, e.Value, visiting)
		}
		buf.WriteByte('}')
		delete(visiting, id)
	}
}

func writeCanonicalScalar(buf *bytes.Buffer, value string, typ ScalarType) {
	switch typ {
	case NullType:
		buf.WriteString("null")
		return
	case BoolType:
		if b, ok := ParseBool(value); ok {
			buf.WriteString(strconv.FormatBool(b))
			return
		}
	case IntType:
		if i, ok := ParseInt(value); ok {
			buf.WriteString(strconv.FormatInt(i, 10))
			return
		}
	case FloatType:
		if f, ok := ParseFloat(value); ok {
			buf.WriteString(formatCanonicalFloat(f))
			return
		}
	}
	buf.Write(marshalCanonicalString(value))
}

func formatCanonicalFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping. U+2028 and U+2029 stay literal.
func marshalCanonicalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(norm.NFC.String(s))
	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return unescapeLineSeparators(out)
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters, leaving escaped backslashes
// followed by the same text untouched.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, '\\', '\\')
			i++
			continue
		}
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// compareKeysRFC8785 compares strings by UTF-16 code units. Go's native
// string ordering compares UTF-8 bytes, which differs above U+FFFF.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
