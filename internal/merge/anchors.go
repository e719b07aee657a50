package merge

import (
	"fmt"

	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// resolveAnchors applies the anchor policy to every anchor name bound in
// both documents. It runs before any structural merging.
func (p *pass) resolveAnchors() error {
	policy, origin := p.resolver.Explain(yamlpath.Root(), rules.Anchors)
	live := reachable(p.right)

	var superseded []ir.NodeID
	for _, name := range p.right.AnchorNames() {
		rid, _ := p.right.Anchored(name)
		if !live[rid] {
			continue
		}
		pid, ok := p.prime.Anchored(name)
		if !ok {
			continue
		}
		loc := yamlpath.New(yamlpath.Anchor(name))

		if ir.Equal(p.prime, pid, p.right, rid) {
			p.memo[rid] = pid
			continue
		}
		switch policy {
		case rules.Stop:
			return anchorConflict(name, loc)
		case rules.Left:
			p.memo[rid] = pid
			p.record(loc, ActionAnchor, policy, "kept prime value")
		case rules.Right:
			p.overwrite[name] = pid
			superseded = append(superseded, rid)
		case rules.Rename:
			fresh := p.freshAnchor(name)
			p.rename[name] = fresh
			p.record(loc, ActionAnchor, policy, "renamed to &"+fresh)
		}
		p.logger.Debug("anchor conflict", "anchor", name, "policy", policy, "from", origin)
	}

	for _, rid := range superseded {
		p.importNode(rid)
	}
	return nil
}

// freshAnchor returns the first name_N bound in neither document.
func (p *pass) freshAnchor(name string) string {
	used := make(map[string]bool, len(p.rename))
	for _, v := range p.rename {
		used[v] = true
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if used[candidate] {
			continue
		}
		if _, ok := p.prime.Anchored(candidate); ok {
			continue
		}
		if _, ok := p.right.Anchored(candidate); ok {
			continue
		}
		return candidate
	}
}

// importNode copies the incoming node r into the prime document and
// returns its ID there. Nodes already imported or adopted are reused.
func (p *pass) importNode(r ir.NodeID) ir.NodeID {
	if id, ok := p.memo[r]; ok {
		return id
	}
	src := *p.right.Node(r)

	n := ir.Node{
		Kind:     src.Kind,
		Tag:      src.Tag,
		Style:    src.Style,
		Comments: src.Comments,
		Value:    src.Value,
		Type:     src.Type,
	}
	switch src.Kind {
	case ir.SequenceNode:
		n.Items = make([]ir.NodeID, 0, len(src.Items))
		for _, c := range src.Items {
			n.Items = append(n.Items, p.importNode(c))
		}
	case ir.MappingNode:
		n.Entries = make([]ir.Entry, 0, len(src.Entries))
		for _, e := range src.Entries {
			n.Entries = append(n.Entries, ir.Entry{Key: e.Key, Value: p.importNode(e.Value)})
		}
		for _, m := range src.Merges {
			n.Merges = append(n.Merges, p.importNode(m))
		}
	}

	if pid, ok := p.overwrite[src.Anchor]; ok && src.Anchor != "" {
		p.prime.Overwrite(pid, n)
		p.memo[r] = pid
		p.record(yamlpath.New(yamlpath.Anchor(src.Anchor)), ActionAnchor, rules.Right, "replaced prime value")
		return pid
	}

	id, _ := p.prime.Add(n)
	if src.Anchor != "" {
		p.bindAnchor(id, src.Anchor)
	}
	p.memo[r] = id
	return id
}

// adopt makes the prime node l stand for the incoming node r.
func (p *pass) adopt(l, r ir.NodeID) {
	p.memo[r] = l
	name := p.right.Node(r).Anchor
	if name == "" || p.prime.Node(l).Anchor != "" {
		return
	}
	p.bindAnchor(l, name)
}

func (p *pass) bindAnchor(id ir.NodeID, name string) {
	if fresh, ok := p.rename[name]; ok {
		name = fresh
	}
	if _, taken := p.prime.Anchored(name); taken {
		return
	}
	_ = p.prime.SetAnchor(id, name)
}

// pruneAnchors unbinds anchors of nodes no longer reachable from the root.
func pruneAnchors(doc *ir.Document) {
	live := reachable(doc)
	for _, name := range doc.AnchorNames() {
		if id, _ := doc.Anchored(name); !live[id] {
			doc.ClearAnchor(id)
		}
	}
}

func reachable(doc *ir.Document) map[ir.NodeID]bool {
	live := make(map[ir.NodeID]bool)
	doc.Walk(doc.Root, func(id ir.NodeID) bool {
		live[id] = true
		return true
	})
	return live
}
