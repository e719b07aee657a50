package merge

import (
	"fmt"
	"slices"

	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/search"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// merge combines the incoming node r into the prime node l found at loc.
// It returns the node that must occupy l's slot afterwards.
func (p *pass) merge(l, r ir.NodeID, loc yamlpath.Locator) (ir.NodeID, error) {
	if id, ok := p.memo[r]; ok {
		if id == l {
			p.record(loc, ActionKeep, "", "same node")
			return id, nil
		}
		// r already merged into another slot through an alias. This slot
		// keeps its own content and merges a private copy of r.
		defer p.restore(p.detach(r))
	}

	lk, rk := p.prime.Node(l).Kind, p.right.Node(r).Kind
	switch {
	case lk == ir.MappingNode && rk == ir.MappingNode:
		return p.mergeMapping(l, r, loc)
	case lk == ir.SequenceNode && rk == ir.SequenceNode:
		return p.mergeSequence(l, r, loc)
	default:
		// Leaf or kind mismatch: the incoming node wins regardless of
		// policy.
		p.record(loc, ActionReplace, "", "")
		return p.importNode(r), nil
	}
}

// detach forgets the prime counterparts of r and its descendants and
// returns them for restore.
func (p *pass) detach(r ir.NodeID) map[ir.NodeID]ir.NodeID {
	saved := make(map[ir.NodeID]ir.NodeID)
	p.right.Walk(r, func(id ir.NodeID) bool {
		if pid, ok := p.memo[id]; ok {
			saved[id] = pid
			delete(p.memo, id)
		}
		return true
	})
	return saved
}

// restore rebinds incoming nodes to the prime nodes they first merged
// into, so later aliases without a slot of their own still share them.
func (p *pass) restore(saved map[ir.NodeID]ir.NodeID) {
	for id, pid := range saved {
		p.memo[id] = pid
	}
}

func (p *pass) mergeMapping(l, r ir.NodeID, loc yamlpath.Locator) (ir.NodeID, error) {
	policy, origin := p.resolver.Explain(loc, rules.Hashes)
	if policy == rules.Right {
		p.record(loc, ActionReplace, policy, origin)
		return p.importNode(r), nil
	}
	p.adopt(l, r)
	p.record(loc, ActionDeepen, policy, origin)

	for _, e := range p.right.Folded(r) {
		at := loc.Append(yamlpath.Key(e.Key.Value))
		cur, own := p.prime.Get(l, e.Key.Value)
		if !own {
			if policy == rules.Left && p.prime.Inherited(l, e.Key.Value) {
				p.record(at, ActionKeep, policy, "inherited")
				continue
			}
			p.prime.Set(l, e.Key, p.importNode(e.Value))
			p.record(at, ActionInsert, policy, "")
			continue
		}

		switch policy {
		case rules.Left:
			p.record(at, ActionKeep, policy, origin)
		case rules.Shallow:
			p.prime.Set(l, e.Key, p.importNode(e.Value))
			p.record(at, ActionReplace, policy, origin)
		default:
			merged, err := p.merge(cur, e.Value, at)
			if err != nil {
				return ir.NoNode, err
			}
			if merged != cur {
				p.prime.Set(l, e.Key, merged)
			}
		}
	}
	return l, nil
}

func (p *pass) mergeSequence(l, r ir.NodeID, loc yamlpath.Locator) (ir.NodeID, error) {
	if p.isRecordSet(l, r) {
		policy, origin := p.resolver.Explain(loc, rules.AoH)
		if policy == rules.Deep {
			return p.mergeRecords(l, r, loc, origin)
		}
		return p.mergeItems(l, r, loc, policy, origin), nil
	}
	policy, origin := p.resolver.Explain(loc, rules.Arrays)
	return p.mergeItems(l, r, loc, policy, origin), nil
}

// isRecordSet reports whether l and r form an array-of-hashes pair: r holds
// at least one item and every item on both sides is a mapping.
func (p *pass) isRecordSet(l, r ir.NodeID) bool {
	ritems := p.right.Node(r).Items
	if len(ritems) == 0 {
		return false
	}
	for _, id := range ritems {
		if !p.right.Node(id).IsMapping() {
			return false
		}
	}
	for _, id := range p.prime.Node(l).Items {
		if !p.prime.Node(id).IsMapping() {
			return false
		}
	}
	return true
}

func (p *pass) mergeItems(l, r ir.NodeID, loc yamlpath.Locator, policy rules.Policy, origin string) ir.NodeID {
	switch policy {
	case rules.Left:
		p.record(loc, ActionKeep, policy, origin)
		return l
	case rules.Right:
		p.record(loc, ActionReplace, policy, origin)
		return p.importNode(r)
	}

	p.adopt(l, r)
	for _, item := range slices.Clone(p.right.Node(r).Items) {
		if policy == rules.Unique && p.containsEqual(l, item) {
			continue
		}
		p.prime.Append(l, p.importNode(item))
		at := loc.Append(yamlpath.Index(len(p.prime.Node(l).Items) - 1))
		p.record(at, ActionAppend, policy, origin)
	}
	return l
}

// containsEqual reports whether sequence l already holds an item equal in
// value to the incoming node item.
func (p *pass) containsEqual(l, item ir.NodeID) bool {
	for _, id := range p.prime.Node(l).Items {
		if ir.Equal(p.prime, id, p.right, item) {
			return true
		}
	}
	return false
}

// mergeRecords pairs the records of two arrays-of-hashes by identity key.
// Matched pairs merge as mappings, incoming records without a partner are
// appended and prime records without a partner are left as they are.
func (p *pass) mergeRecords(l, r ir.NodeID, loc yamlpath.Locator, origin string) (ir.NodeID, error) {
	key, err := p.identityKey(r, loc)
	if err != nil {
		return ir.NoNode, err
	}

	incoming := slices.Clone(p.right.Node(r).Items)
	ids := make([]string, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for i, rec := range incoming {
		at := loc.Append(yamlpath.Index(i))
		id, ok, err := identity(p.right, rec, key, at)
		if err != nil {
			return ir.NoNode, err
		}
		if !ok {
			return ir.NoNode, &PathError{
				Code:     ErrCodeMissingIdentityKey,
				Message:  "incoming record has no identity key",
				Location: at,
				Path:     key.String(),
			}
		}
		if seen[id] {
			return ir.NoNode, duplicateIdentity("incoming", id, loc)
		}
		seen[id] = true
		ids[i] = id
	}

	existing := p.prime.Node(l).Items
	index := make(map[string]int, len(existing))
	ambiguous := make(map[string]bool)
	for j, rec := range existing {
		id, ok, err := identity(p.prime, rec, key, p.recordLocation(loc, rec, j))
		if err != nil {
			return ir.NoNode, err
		}
		if !ok {
			continue
		}
		if _, dup := index[id]; dup {
			ambiguous[id] = true
			continue
		}
		index[id] = j
	}
	for _, id := range ids {
		if ambiguous[id] {
			return ir.NoNode, duplicateIdentity("prime", id, loc)
		}
	}

	p.adopt(l, r)
	p.record(loc, ActionDeepen, rules.Deep, origin)

	for i, rec := range incoming {
		j, ok := index[ids[i]]
		if !ok {
			p.prime.Append(l, p.importNode(rec))
			at := loc.Append(yamlpath.Index(len(p.prime.Node(l).Items) - 1))
			p.record(at, ActionAppend, rules.Deep, "identity "+ids[i])
			continue
		}
		prev := p.prime.Node(l).Items[j]
		merged, err := p.merge(prev, rec, p.recordLocation(loc, prev, j))
		if err != nil {
			return ir.NoNode, err
		}
		if merged != prev {
			p.prime.SetItem(l, j, merged)
		}
	}
	return l, nil
}

// identityKey returns the bound identity key for loc, or the first key of
// the first incoming record.
func (p *pass) identityKey(r ir.NodeID, loc yamlpath.Locator) (yamlpath.Locator, error) {
	if key, ok := p.resolver.IdentityKey(loc); ok {
		return key, nil
	}
	first := p.right.Node(r).Items[0]
	entries := p.right.Folded(first)
	if len(entries) == 0 {
		return yamlpath.Locator{}, &PathError{
			Code:     ErrCodeMissingIdentityKey,
			Message:  "first incoming record is empty, no identity key can be inferred",
			Location: loc.Append(yamlpath.Index(0)),
		}
	}
	return yamlpath.New(yamlpath.Key(entries[0].Key.Value)), nil
}

// identity returns the canonical form of the identity value of rec. The
// key must address at most one scalar.
func identity(doc *ir.Document, rec ir.NodeID, key yamlpath.Locator, at yamlpath.Locator) (string, bool, error) {
	found := search.ResolveAt(doc, rec, yamlpath.Root(), key)
	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
	default:
		return "", false, &PathError{
			Code:     ErrCodeBadIdentityKey,
			Message:  fmt.Sprintf("identity key matches %d nodes", len(found)),
			Location: at,
			Path:     key.String(),
		}
	}
	if !doc.Node(found[0].Node).IsScalar() {
		return "", false, &PathError{
			Code:     ErrCodeBadIdentityKey,
			Message:  "identity key does not address a scalar",
			Location: at,
			Path:     key.String(),
		}
	}
	return string(doc.Canonical(found[0].Node)), true, nil
}

// recordLocation addresses a record by anchor when it has one.
func (p *pass) recordLocation(loc yamlpath.Locator, rec ir.NodeID, i int) yamlpath.Locator {
	if name := p.prime.Node(rec).Anchor; name != "" {
		return loc.Append(yamlpath.Anchor(name))
	}
	return loc.Append(yamlpath.Index(i))
}
