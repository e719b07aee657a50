package search

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Resolved is one node addressed by a locator, with its concrete locator.
type Resolved struct {
	Locator yamlpath.Locator
	Node    ir.NodeID
}

// Resolve expands loc against doc. Every returned locator is concrete.
// Segments that do not fit the document shape select nothing.
func Resolve(doc *ir.Document, loc yamlpath.Locator) []Resolved {
	if doc.Root == ir.NoNode {
		return nil
	}
	return ResolveAt(doc, doc.Root, yamlpath.Root(), loc)
}

// ResolveAt expands rel relative to node, whose own locator is base.
func ResolveAt(doc *ir.Document, node ir.NodeID, base yamlpath.Locator, rel yamlpath.Locator) []Resolved {
	cur := []Resolved{{Locator: base, Node: node}}
	for i := 0; i < rel.Len() && len(cur) > 0; i++ {
		seg := rel.At(i)
		var next []Resolved
		for _, r := range cur {
			next = append(next, step(doc, r, seg)...)
		}
		if len(next) == 0 && i == 0 && seg.Kind == yamlpath.AnchorSegment {
			// A leading anchor may name any node of the document.
			if id, ok := doc.Anchored(seg.Text); ok {
				next = append(next, Resolved{Locator: base.Append(seg), Node: id})
			}
		}
		cur = next
	}
	return cur
}

// Get returns the single node addressed by loc.
func Get(doc *ir.Document, loc yamlpath.Locator) (ir.NodeID, bool) {
	found := Resolve(doc, loc)
	if len(found) != 1 {
		return ir.NoNode, false
	}
	return found[0].Node, true
}

func step(doc *ir.Document, r Resolved, seg yamlpath.Segment) []Resolved {
	n := doc.Node(r.Node)
	var out []Resolved
	add := func(s yamlpath.Segment, id ir.NodeID) {
		out = append(out, Resolved{Locator: r.Locator.Append(s), Node: id})
	}

	switch seg.Kind {
	case yamlpath.KeySegment:
		if v, ok := doc.Lookup(r.Node, seg.Text); ok {
			add(seg, v)
		}

	case yamlpath.IndexSegment:
		if n.Kind != ir.SequenceNode {
			break
		}
		i := seg.Index
		if i < 0 {
			i += len(n.Items)
		}
		if i >= 0 && i < len(n.Items) {
			add(yamlpath.Index(i), n.Items[i])
		}

	case yamlpath.SliceSegment:
		if n.Kind != ir.SequenceNode {
			break
		}
		for i := seg.Index; i < seg.End && i < len(n.Items); i++ {
			add(yamlpath.Index(i), n.Items[i])
		}

	case yamlpath.AnchorSegment:
		for _, child := range children(doc, r.Node) {
			if doc.Node(child).Anchor == seg.Text {
				add(seg, child)
				break
			}
		}

	case yamlpath.WildcardSegment:
		switch n.Kind {
		case ir.MappingNode:
			for _, e := range doc.Folded(r.Node) {
				if globMatch(seg.Text, e.Key.Value) {
					add(yamlpath.Key(e.Key.Value), e.Value)
				}
			}
		case ir.SequenceNode:
			if seg.Text == "*" {
				for i, item := range n.Items {
					add(yamlpath.Index(i), item)
				}
			}
		}

	case yamlpath.SearchSegment:
		terms := seg.Search
		switch n.Kind {
		case ir.SequenceNode:
			for i, item := range n.Items {
				if attributeMatches(doc, item, terms) {
					add(yamlpath.Index(i), item)
				}
			}
		case ir.MappingNode:
			for _, e := range doc.Folded(r.Node) {
				if terms.Attribute == "." {
					if terms.Matches(e.Key.Value, e.Key.Type) {
						add(yamlpath.Key(e.Key.Value), e.Value)
					}
					continue
				}
				if attributeMatches(doc, e.Value, terms) {
					add(yamlpath.Key(e.Key.Value), e.Value)
				}
			}
		}
	}
	return out
}

// attributeMatches tests node against a search expression: the node itself
// for attribute ".", otherwise the named child of a mapping node.
func attributeMatches(doc *ir.Document, node ir.NodeID, terms *yamlpath.SearchTerms) bool {
	target := node
	if terms.Attribute != "." {
		v, ok := doc.Lookup(node, terms.Attribute)
		if !ok {
			return false
		}
		target = v
	}
	n := doc.Node(target)
	return n.Kind == ir.ScalarNode && terms.Matches(n.Value, n.Type)
}

func children(doc *ir.Document, id ir.NodeID) []ir.NodeID {
	n := doc.Node(id)
	switch n.Kind {
	case ir.SequenceNode:
		return n.Items
	case ir.MappingNode:
		entries := doc.Folded(id)
		out := make([]ir.NodeID, len(entries))
		for i, e := range entries {
			out[i] = e.Value
		}
		return out
	}
	return nil
}

// globMatch matches a key against a doublestar pattern. Malformed patterns
// match nothing.
func globMatch(pattern, key string) bool {
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}
