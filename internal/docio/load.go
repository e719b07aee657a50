package docio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/yamlpath/internal/ir"
)

// Stdin is the pseudo-file name of the standard-input source.
const Stdin = "-"

// Source is a decoded input: one or more documents read from one name.
type Source struct {
	Name      string
	Format    Format
	Documents []*ir.Document
}

// MultiDocument reports whether the source held more than one document.
func (s *Source) MultiDocument() bool {
	return len(s.Documents) > 1
}

// Opener opens a named source for reading.
type Opener func(name string) (io.ReadCloser, error)

// OpenFile opens a file from disk. A missing file yields an error matching
// ErrSourceNotFound.
func OpenFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
		}
		return nil, err
	}
	return f, nil
}

// Load reads and decodes the source called name. The Stdin name reads
// from stdin; a nil stdin reads as empty.
func Load(name string, open Opener, stdin io.Reader) (*Source, error) {
	var r io.Reader
	if name == Stdin {
		if stdin == nil {
			stdin = bytes.NewReader(nil)
		}
		r = stdin
	} else {
		if open == nil {
			open = OpenFile
		}
		rc, err := open(name)
		if err != nil {
			return nil, &AccessError{Source: name, Err: err}
		}
		defer rc.Close()
		r = rc
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &AccessError{Source: name, Err: err}
	}
	return Decode(name, data)
}

// Decode parses every document of data.
func Decode(name string, data []byte) (*Source, error) {
	src := &Source{Name: name, Format: Detect(data)}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for i := 0; ; i++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: name, Document: i, Err: err}
		}
		doc, err := convert(&node, src.Format == FormatJSON)
		if err != nil {
			pe := &ParseError{Source: name, Document: i, Err: err}
			var ce *convertError
			if errors.As(err, &ce) {
				pe.Line = ce.line
				pe.Err = ce.err
			}
			return nil, pe
		}
		src.Documents = append(src.Documents, doc)
	}
	return src, nil
}

// IsEmpty reports whether doc holds no content: no root, or a null root
// such as "~".
func IsEmpty(doc *ir.Document) bool {
	if doc.Root == ir.NoNode {
		return true
	}
	n := doc.Node(doc.Root)
	return n.Kind == ir.ScalarNode && n.Type == ir.NullType
}

type convertError struct {
	line int
	err  error
}

func (e *convertError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }

func (e *convertError) Unwrap() error { return e.err }

// decoder converts one yaml.v3 document tree into the arena model.
type decoder struct {
	doc   *ir.Document
	ids   map[*yaml.Node]ir.NodeID
	plain bool
}

func convert(n *yaml.Node, plain bool) (*ir.Document, error) {
	d := &decoder{doc: ir.NewDocument(), ids: make(map[*yaml.Node]ir.NodeID), plain: plain}
	root := n
	if n.Kind == yaml.DocumentNode {
		d.doc.Comments = comments(n)
		if len(n.Content) == 0 {
			return d.doc, nil
		}
		root = n.Content[0]
	}
	id, err := d.node(root)
	if err != nil {
		return nil, err
	}
	d.doc.Root = id
	return d.doc, nil
}

func (d *decoder) fail(n *yaml.Node, format string, args ...any) error {
	return &convertError{line: n.Line, err: fmt.Errorf(format, args...)}
}

func (d *decoder) style(s yaml.Style) ir.Style {
	if d.plain {
		s &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	}
	return ir.Style(s)
}

func (d *decoder) add(n *yaml.Node, node ir.Node) (ir.NodeID, error) {
	node.Anchor = n.Anchor
	node.Tag = n.Tag
	node.Style = d.style(n.Style)
	node.Comments = comments(n)
	id, err := d.doc.Add(node)
	if err != nil {
		return ir.NoNode, d.fail(n, "%v", err)
	}
	d.ids[n] = id
	return id, nil
}

func (d *decoder) node(n *yaml.Node) (ir.NodeID, error) {
	switch n.Kind {
	case yaml.AliasNode:
		id, ok := d.ids[n.Alias]
		if n.Alias == nil || !ok {
			return ir.NoNode, d.fail(n, "alias *%s does not refer to a preceding anchor", n.Value)
		}
		return id, nil

	case yaml.ScalarNode:
		return d.add(n, ir.Node{Kind: ir.ScalarNode, Value: n.Value, Type: ir.TypeOfTag(n.ShortTag())})

	case yaml.SequenceNode:
		id, err := d.add(n, ir.Node{Kind: ir.SequenceNode})
		if err != nil {
			return ir.NoNode, err
		}
		for _, c := range n.Content {
			cid, err := d.node(c)
			if err != nil {
				return ir.NoNode, err
			}
			d.doc.Append(id, cid)
		}
		return id, nil

	case yaml.MappingNode:
		return d.mapping(n)

	default:
		return ir.NoNode, d.fail(n, "unexpected node kind %d", n.Kind)
	}
}

func (d *decoder) mapping(n *yaml.Node) (ir.NodeID, error) {
	id, err := d.add(n, ir.Node{Kind: ir.MappingNode})
	if err != nil {
		return ir.NoNode, err
	}
	firstSeen := make(map[string]int)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			if err := d.mergeKey(id, v); err != nil {
				return ir.NoNode, err
			}
			continue
		}
		key, err := d.key(k)
		if err != nil {
			return ir.NoNode, err
		}
		if line, dup := firstSeen[key.Value]; dup {
			return ir.NoNode, d.fail(k, "duplicate key %q (first defined on line %d)", key.Value, line)
		}
		firstSeen[key.Value] = k.Line
		vid, err := d.node(v)
		if err != nil {
			return ir.NoNode, err
		}
		d.doc.Set(id, key, vid)
	}
	return id, nil
}

// key converts a mapping key. An anchored key is also registered as a
// scalar node so later aliases of it resolve as values.
func (d *decoder) key(k *yaml.Node) (ir.Key, error) {
	src := k
	if k.Kind == yaml.AliasNode {
		if k.Alias == nil {
			return ir.Key{}, d.fail(k, "alias *%s does not refer to a preceding anchor", k.Value)
		}
		src = k.Alias
	}
	if src.Kind != yaml.ScalarNode {
		return ir.Key{}, d.fail(k, "only scalar mapping keys are supported")
	}
	if k.Kind == yaml.ScalarNode && k.Anchor != "" {
		if _, err := d.add(k, ir.Node{Kind: ir.ScalarNode, Value: k.Value, Type: ir.TypeOfTag(k.ShortTag())}); err != nil {
			return ir.Key{}, err
		}
	}
	return ir.Key{
		Value:    src.Value,
		Type:     ir.TypeOfTag(src.ShortTag()),
		Tag:      src.Tag,
		Style:    d.style(src.Style),
		Comments: comments(k),
	}, nil
}

func (d *decoder) mergeKey(m ir.NodeID, v *yaml.Node) error {
	sources := []*yaml.Node{v}
	if v.Kind == yaml.SequenceNode {
		sources = v.Content
	}
	for _, s := range sources {
		id, err := d.node(s)
		if err != nil {
			return err
		}
		if d.doc.Node(id).Kind != ir.MappingNode {
			return d.fail(s, "merge key source must be a mapping")
		}
		d.doc.AddMerge(m, id)
	}
	return nil
}

func comments(n *yaml.Node) ir.Comments {
	return ir.Comments{Head: n.HeadComment, Line: n.LineComment, Foot: n.FootComment}
}
