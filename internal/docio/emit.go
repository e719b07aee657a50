package docio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/yamlpath/internal/ir"
)

// Emit writes doc to w. FormatAuto writes YAML.
func Emit(w io.Writer, doc *ir.Document, f Format) error {
	if f == FormatJSON {
		return EmitJSON(w, doc)
	}
	return EmitYAML(w, doc)
}

// EmitYAML writes doc as a YAML document with two-space indentation. The
// first occurrence of an anchored node carries the anchor; later
// occurrences become aliases.
func EmitYAML(w io.Writer, doc *ir.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ToNode(doc)); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// ToNode converts doc into a yaml.v3 document node.
func ToNode(doc *ir.Document) *yaml.Node {
	e := &encoder{doc: doc, out: make(map[ir.NodeID]*yaml.Node)}
	out := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: doc.Comments.Head,
		LineComment: doc.Comments.Line,
		FootComment: doc.Comments.Foot,
	}
	if doc.Root == ir.NoNode {
		out.Content = []*yaml.Node{{Kind: yaml.ScalarNode, Tag: "!!null"}}
		return out
	}
	out.Content = []*yaml.Node{e.node(doc.Root)}
	return out
}

type encoder struct {
	doc *ir.Document
	out map[ir.NodeID]*yaml.Node
}

func (e *encoder) node(id ir.NodeID) *yaml.Node {
	n := e.doc.Node(id)
	if prev, ok := e.out[id]; ok && n.Anchor != "" {
		return &yaml.Node{Kind: yaml.AliasNode, Value: n.Anchor, Alias: prev}
	}
	y := &yaml.Node{
		Anchor:      n.Anchor,
		Tag:         n.Tag,
		Style:       yaml.Style(n.Style),
		HeadComment: n.Comments.Head,
		LineComment: n.Comments.Line,
		FootComment: n.Comments.Foot,
	}
	if _, ok := e.out[id]; !ok {
		e.out[id] = y
	}
	switch n.Kind {
	case ir.ScalarNode:
		y.Kind = yaml.ScalarNode
		y.Value = n.Value
	case ir.SequenceNode:
		y.Kind = yaml.SequenceNode
		for _, c := range n.Items {
			y.Content = append(y.Content, e.node(c))
		}
	case ir.MappingNode:
		y.Kind = yaml.MappingNode
		if len(n.Merges) > 0 {
			y.Content = append(y.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "<<"}, e.merges(n.Merges))
		}
		for _, entry := range n.Entries {
			k := &yaml.Node{
				Kind:        yaml.ScalarNode,
				Value:       entry.Key.Value,
				Tag:         entry.Key.Tag,
				Style:       yaml.Style(entry.Key.Style),
				HeadComment: entry.Key.Comments.Head,
				LineComment: entry.Key.Comments.Line,
				FootComment: entry.Key.Comments.Foot,
			}
			y.Content = append(y.Content, k, e.node(entry.Value))
		}
	}
	return y
}

func (e *encoder) merges(srcs []ir.NodeID) *yaml.Node {
	if len(srcs) == 1 {
		return e.node(srcs[0])
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, s := range srcs {
		seq.Content = append(seq.Content, e.node(s))
	}
	return seq
}

// EmitJSON writes doc as indented JSON. Aliases are expanded and mappings
// are rendered through their folded view.
func EmitJSON(w io.Writer, doc *ir.Document) error {
	var compact bytes.Buffer
	if err := writeJSON(&compact, doc, doc.Root, make(map[ir.NodeID]bool)); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("format JSON: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

func writeJSON(buf *bytes.Buffer, doc *ir.Document, id ir.NodeID, visiting map[ir.NodeID]bool) error {
	if id == ir.NoNode {
		buf.WriteString("null")
		return nil
	}
	if visiting[id] {
		return fmt.Errorf("recursive alias cannot be rendered as JSON")
	}
	n := doc.Node(id)
	switch n.Kind {
	case ir.ScalarNode:
		writeJSONScalar(buf, n.Value, n.Type)
	case ir.SequenceNode:
		visiting[id] = true
		buf.WriteByte('[')
		for i, c := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, doc, c, visiting); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		delete(visiting, id)
	case ir.MappingNode:
		visiting[id] = true
		buf.WriteByte('{')
		for i, entry := range doc.Folded(id) {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(jsonString(entry.Key.Value))
			buf.WriteByte(':')
			if err := writeJSON(buf, doc, entry.Value, visiting); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		delete(visiting, id)
	}
	return nil
}

func writeJSONScalar(buf *bytes.Buffer, value string, typ ir.ScalarType) {
	switch typ {
	case ir.NullType:
		buf.WriteString("null")
		return
	case ir.BoolType:
		if b, ok := ir.ParseBool(value); ok {
			buf.WriteString(strconv.FormatBool(b))
			return
		}
	case ir.IntType:
		if i, ok := ir.ParseInt(value); ok {
			buf.WriteString(strconv.FormatInt(i, 10))
			return
		}
	case ir.FloatType:
		if f, ok := ir.ParseFloat(value); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
			if isJSONNumber(value) {
				buf.WriteString(value)
			} else {
				buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			}
			return
		}
	}
	buf.Write(jsonString(value))
}

func isJSONNumber(s string) bool {
	if s == "" || !(s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

func jsonString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
}
