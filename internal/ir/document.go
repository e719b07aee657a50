package ir

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateAnchor is returned when an anchor name is already bound to
// another node of the same document.
var ErrDuplicateAnchor = errors.New("duplicate anchor")

// Document is an arena-backed YAML document.
type Document struct {
	nodes   []Node
	anchors map[string]NodeID

	// Root is the top-level node, NoNode for an empty document.
	Root NodeID

	// Comments attached to the document itself.
	Comments Comments
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		anchors: make(map[string]NodeID),
		Root:    NoNode,
	}
}

// Len returns the number of nodes allocated in the arena, including nodes
// that are no longer reachable from Root.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns the node stored under id. The pointer is invalidated by the
// next call that allocates a node; callers must not hold it across Add.
func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		panic(fmt.Sprintf("ir: node %d out of range [0,%d)", id, len(d.nodes)))
	}
	return &d.nodes[id]
}

// Valid reports whether id addresses a node of d.
func (d *Document) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}

// Add appends n to the arena and returns its ID. A non-empty n.Anchor is
// bound to the new node.
func (d *Document) Add(n Node) (NodeID, error) {
	anchor := n.Anchor
	n.Anchor = ""
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, n)
	if anchor != "" {
		if err := d.SetAnchor(id, anchor); err != nil {
			return id, err
		}
	}
	return id, nil
}

// NewScalar allocates a scalar node.
func (d *Document) NewScalar(value string, typ ScalarType) NodeID {
	id, _ := d.Add(Node{Kind: ScalarNode, Value: value, Type: typ, Tag: tagOfType(typ)})
	return id
}

// NewMapping allocates an empty mapping node.
func (d *Document) NewMapping() NodeID {
	id, _ := d.Add(Node{Kind: MappingNode, Tag: "!!map"})
	return id
}

// NewSequence allocates a sequence node holding items.
func (d *Document) NewSequence(items ...NodeID) NodeID {
	id, _ := d.Add(Node{Kind: SequenceNode, Tag: "!!seq", Items: slices.Clone(items)})
	return id
}

// SetAnchor binds name to id, replacing any anchor id already had.
func (d *Document) SetAnchor(id NodeID, name string) error {
	if other, ok := d.anchors[name]; ok && other != id {
		return fmt.Errorf("%w: &%s", ErrDuplicateAnchor, name)
	}
	n := d.Node(id)
	if n.Anchor != "" && n.Anchor != name {
		delete(d.anchors, n.Anchor)
	}
	n.Anchor = name
	d.anchors[name] = id
	return nil
}

// ClearAnchor removes the anchor bound to id, if any.
func (d *Document) ClearAnchor(id NodeID) {
	n := d.Node(id)
	if n.Anchor == "" {
		return
	}
	delete(d.anchors, n.Anchor)
	n.Anchor = ""
}

// Anchored returns the node bound to name.
func (d *Document) Anchored(name string) (NodeID, bool) {
	id, ok := d.anchors[name]
	return id, ok
}

// AnchorNames returns every anchor name of d in sorted order.
func (d *Document) AnchorNames() []string {
	names := make([]string, 0, len(d.anchors))
	for name := range d.anchors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Overwrite replaces the content of id in place. The node keeps its anchor,
// so every alias of id observes the new content.
func (d *Document) Overwrite(id NodeID, n Node) {
	cur := d.Node(id)
	n.Anchor = cur.Anchor
	*cur = n
}

// Append adds child to the end of sequence seq.
func (d *Document) Append(seq, child NodeID) {
	n := d.Node(seq)
	if n.Kind != SequenceNode {
		panic(fmt.Sprintf("ir: append to %s node %d", n.Kind, seq))
	}
	n.Items = append(n.Items, child)
}

// SetItem replaces the i-th item of sequence seq.
func (d *Document) SetItem(seq NodeID, i int, child NodeID) {
	n := d.Node(seq)
	if n.Kind != SequenceNode {
		panic(fmt.Sprintf("ir: set item on %s node %d", n.Kind, seq))
	}
	n.Items[i] = child
}

// Set binds key to value in mapping m. An existing own entry keeps its
// position and key presentation; otherwise the entry is appended.
func (d *Document) Set(m NodeID, key Key, value NodeID) {
	n := d.Node(m)
	if n.Kind != MappingNode {
		panic(fmt.Sprintf("ir: set key on %s node %d", n.Kind, m))
	}
	for i := range n.Entries {
		if n.Entries[i].Key.Value == key.Value {
			n.Entries[i].Value = value
			return
		}
	}
	n.Entries = append(n.Entries, Entry{Key: key, Value: value})
}

// AddMerge appends src to the merge-key sources of mapping m.
func (d *Document) AddMerge(m, src NodeID) {
	n := d.Node(m)
	if n.Kind != MappingNode {
		panic(fmt.Sprintf("ir: merge key on %s node %d", n.Kind, m))
	}
	n.Merges = append(n.Merges, src)
}

// Get returns the value of an own entry of mapping m.
func (d *Document) Get(m NodeID, key string) (NodeID, bool) {
	n := d.Node(m)
	if n.Kind != MappingNode {
		return NoNode, false
	}
	for _, e := range n.Entries {
		if e.Key.Value == key {
			return e.Value, true
		}
	}
	return NoNode, false
}

// Lookup returns the value of key in the folded view of mapping m.
func (d *Document) Lookup(m NodeID, key string) (NodeID, bool) {
	for _, e := range d.Folded(m) {
		if e.Key.Value == key {
			return e.Value, true
		}
	}
	return NoNode, false
}

// Folded returns the effective entries of mapping m: own entries in order,
// then entries inherited through merge keys in source order. A key defined
// more than once keeps its first definition.
func (d *Document) Folded(m NodeID) []Entry {
	n := d.Node(m)
	if n.Kind != MappingNode {
		return nil
	}
	if len(n.Merges) == 0 {
		return slices.Clone(n.Entries)
	}
	var out []Entry
	seen := make(map[string]bool)
	visiting := map[NodeID]bool{m: true}
	d.fold(m, &out, seen, visiting)
	return out
}

func (d *Document) fold(m NodeID, out *[]Entry, seen map[string]bool, visiting map[NodeID]bool) {
	n := d.Node(m)
	for _, e := range n.Entries {
		if !seen[e.Key.Value] {
			seen[e.Key.Value] = true
			*out = append(*out, e)
		}
	}
	for _, src := range n.Merges {
		if visiting[src] || d.Node(src).Kind != MappingNode {
			continue
		}
		visiting[src] = true
		d.fold(src, out, seen, visiting)
		delete(visiting, src)
	}
}

// Inherited reports whether key is visible in mapping m only through a
// merge-key source.
func (d *Document) Inherited(m NodeID, key string) bool {
	if _, own := d.Get(m, key); own {
		return false
	}
	_, ok := d.Lookup(m, key)
	return ok
}

// Walk visits every node reachable from id in document order, each node
// once. Returning false from fn skips the children of that node.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	seen := make(map[NodeID]bool)
	var visit func(NodeID)
	visit = func(id NodeID) {
		if id == NoNode || seen[id] {
			return
		}
		seen[id] = true
		if !fn(id) {
			return
		}
		n := d.Node(id)
		switch n.Kind {
		case SequenceNode:
			for _, c := range n.Items {
				visit(c)
			}
		case MappingNode:
			for _, e := range n.Entries {
				visit(e.Value)
			}
			for _, src := range n.Merges {
				visit(src)
			}
		}
	}
	visit(id)
}

// References counts how many parent slots point at each node reachable
// from id. The root itself counts one reference.
func (d *Document) References(id NodeID) map[NodeID]int {
	refs := make(map[NodeID]int)
	if id == NoNode {
		return refs
	}
	refs[id] = 1
	d.Walk(id, func(cur NodeID) bool {
		n := d.Node(cur)
		switch n.Kind {
		case SequenceNode:
			for _, c := range n.Items {
				refs[c]++
			}
		case MappingNode:
			for _, e := range n.Entries {
				refs[e.Value]++
			}
			for _, src := range n.Merges {
				refs[src]++
			}
		}
		return true
	})
	return refs
}

func tagOfType(t ScalarType) string {
	switch t {
	case IntType:
		return "!!int"
	case FloatType:
		return "!!float"
	case BoolType:
		return "!!bool"
	case NullType:
		return "!!null"
	default:
		return "!!str"
	}
}
