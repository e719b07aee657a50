package search

import (
	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Options selects what a search tests.
type Options struct {
	// SearchKeys tests mapping keys.
	SearchKeys bool
	// SearchValues tests scalar values and sequence elements.
	SearchValues bool
	// IncludeAliases reports every alias of an anchored scalar instead of
	// only the first one seen in each container, and searches inherited
	// merge-key entries of mappings.
	IncludeAliases bool
}

// Iterator is a single-pass, non-restartable stream of matching locators.
type Iterator struct {
	doc   *ir.Document
	terms *yamlpath.SearchTerms
	opts  Options
	stack []*frame
}

// frame is one container being scanned. seen holds the anchors met among
// the direct children of this container only.
type frame struct {
	node    ir.NodeID
	loc     yamlpath.Locator
	kind    ir.Kind
	items   []ir.NodeID
	entries []ir.Entry
	pos     int
	seen    map[string]bool

	// keyTested is set once the key of entries[pos] has been tested and
	// possibly yielded; keyMatched records the outcome.
	keyTested  bool
	keyMatched bool
}

func (f *frame) exhausted() bool {
	if f.kind == ir.SequenceNode {
		return f.pos >= len(f.items)
	}
	return f.pos >= len(f.entries)
}

// Match searches doc from its root.
func Match(doc *ir.Document, terms *yamlpath.SearchTerms, opts Options) *Iterator {
	return MatchAt(doc, doc.Root, yamlpath.Root(), terms, opts)
}

// MatchAt searches the subtree rooted at node, prefixing results with base.
// A scalar root yields nothing.
func MatchAt(doc *ir.Document, node ir.NodeID, base yamlpath.Locator, terms *yamlpath.SearchTerms, opts Options) *Iterator {
	it := &Iterator{doc: doc, terms: terms, opts: opts}
	if node != ir.NoNode {
		it.push(node, base)
	}
	return it
}

func (it *Iterator) push(node ir.NodeID, loc yamlpath.Locator) {
	n := it.doc.Node(node)
	f := &frame{node: node, loc: loc, kind: n.Kind, seen: make(map[string]bool)}
	switch n.Kind {
	case ir.SequenceNode:
		f.items = n.Items
	case ir.MappingNode:
		if it.opts.IncludeAliases {
			f.entries = it.doc.Folded(node)
		} else {
			f.entries = n.Entries
		}
	default:
		return
	}
	it.stack = append(it.stack, f)
}

// Next returns the next matching locator. ok is false once the stream is
// exhausted; later calls keep returning false.
func (it *Iterator) Next() (yamlpath.Locator, bool) {
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		if f.exhausted() {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		if f.kind == ir.SequenceNode {
			if loc, ok := it.stepSequence(f); ok {
				return loc, true
			}
			continue
		}
		if loc, ok := it.stepMapping(f); ok {
			return loc, true
		}
	}
	return yamlpath.Root(), false
}

func (it *Iterator) stepSequence(f *frame) (yamlpath.Locator, bool) {
	idx := f.pos
	child := f.items[idx]
	f.pos++

	n := it.doc.Node(child)
	seg := yamlpath.Index(idx)
	if n.Anchor != "" {
		if f.seen[n.Anchor] {
			if !it.opts.IncludeAliases {
				return yamlpath.Locator{}, false
			}
		} else {
			f.seen[n.Anchor] = true
		}
		seg = yamlpath.Anchor(n.Anchor)
	}
	loc := f.loc.Append(seg)

	if n.Kind != ir.ScalarNode {
		it.push(child, loc)
		return yamlpath.Locator{}, false
	}
	if it.opts.SearchValues && it.terms.Matches(n.Value, n.Type) {
		return loc, true
	}
	return yamlpath.Locator{}, false
}

func (it *Iterator) stepMapping(f *frame) (yamlpath.Locator, bool) {
	e := f.entries[f.pos]
	loc := f.loc.Append(yamlpath.Key(e.Key.Value))

	if !f.keyTested {
		f.keyTested = true
		f.keyMatched = it.opts.SearchKeys && it.terms.Matches(e.Key.Value, e.Key.Type)
		if f.keyMatched {
			return loc, true
		}
	}
	keyMatched := f.keyMatched
	f.pos++
	f.keyTested = false
	f.keyMatched = false

	n := it.doc.Node(e.Value)
	if n.Kind != ir.ScalarNode {
		it.push(e.Value, loc)
		return yamlpath.Locator{}, false
	}
	if !it.opts.SearchValues || keyMatched {
		return yamlpath.Locator{}, false
	}
	if n.Anchor != "" {
		if f.seen[n.Anchor] {
			if !it.opts.IncludeAliases {
				return yamlpath.Locator{}, false
			}
		} else {
			f.seen[n.Anchor] = true
		}
	}
	if it.terms.Matches(n.Value, n.Type) {
		return loc, true
	}
	return yamlpath.Locator{}, false
}

// Collect drains it.
func Collect(it *Iterator) []yamlpath.Locator {
	var out []yamlpath.Locator
	for {
		loc, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, loc)
	}
}
