package merge

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/search"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Merger merges incoming documents into one prime document, in place.
//
// The prime document is owned by the Merger for its whole lifetime and is
// never replaced, only mutated. Incoming documents are read and then
// discarded by the caller. A Merger is not safe for concurrent use.
type Merger struct {
	prime    *ir.Document
	resolver *rules.Resolver
	mergeAt  yamlpath.Locator
	logger   *slog.Logger
	observer Observer
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithMergeAt merges incoming documents into the subtree of the prime
// document addressed by loc instead of its root.
func WithMergeAt(loc yamlpath.Locator) MergerOption {
	return func(m *Merger) {
		m.mergeAt = loc
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) MergerOption {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers fn to receive every merge decision.
func WithObserver(fn Observer) MergerOption {
	return func(m *Merger) {
		m.observer = fn
	}
}

// New returns a Merger that owns prime.
func New(prime *ir.Document, resolver *rules.Resolver, opts ...MergerOption) *Merger {
	m := &Merger{
		prime:    prime,
		resolver: resolver,
		mergeAt:  yamlpath.Root(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Document returns the prime document.
func (m *Merger) Document() *ir.Document {
	return m.prime
}

// MergeWith merges incoming into the prime document. incoming is not
// modified. On error the prime document may be partially merged and must
// be discarded.
func (m *Merger) MergeWith(incoming *ir.Document) error {
	if incoming.Root == ir.NoNode {
		return nil
	}
	p := &pass{
		Merger:    m,
		right:     incoming,
		memo:      make(map[ir.NodeID]ir.NodeID),
		rename:    make(map[string]string),
		overwrite: make(map[string]ir.NodeID),
	}

	pruneAnchors(m.prime)
	if err := p.resolveAnchors(); err != nil {
		return err
	}
	m.logger.Debug("merging document", "at", m.mergeAt.Render(yamlpath.Slash), "kind", incoming.Node(incoming.Root).Kind)
	return p.mergeAtTarget()
}

// pass holds the state of one MergeWith call.
type pass struct {
	*Merger
	right *ir.Document

	// memo maps incoming nodes to the prime nodes that now stand for them,
	// so that aliases in the incoming document stay aliases.
	memo map[ir.NodeID]ir.NodeID

	// rename maps incoming anchor names to their replacement names.
	rename map[string]string

	// overwrite holds the prime nodes whose content is superseded by the
	// incoming node of the same anchor name.
	overwrite map[string]ir.NodeID
}

func (p *pass) record(loc yamlpath.Locator, action Action, policy rules.Policy, detail string) {
	if p.observer != nil {
		p.observer(Change{Location: loc, Action: action, Policy: policy, Detail: detail})
	}
}

func (p *pass) mergeAtTarget() error {
	rroot := p.right.Root

	if p.prime.Root == ir.NoNode {
		if p.mergeAt.IsRoot() {
			p.prime.Root = p.importNode(rroot)
			p.record(yamlpath.Root(), ActionInsert, "", "empty prime document")
			return nil
		}
		p.prime.Root = p.prime.NewMapping()
	}

	if p.mergeAt.IsRoot() {
		merged, err := p.merge(p.prime.Root, rroot, yamlpath.Root())
		if err != nil {
			return err
		}
		p.prime.Root = merged
		return nil
	}

	found := search.Resolve(p.prime, p.mergeAt)
	switch len(found) {
	case 0:
		return p.createTarget()
	case 1:
	default:
		return &PathError{
			Code:     ErrCodeUnresolvedPath,
			Message:  fmt.Sprintf("merge target matches %d nodes", len(found)),
			Location: yamlpath.Root(),
			Path:     p.mergeAt.Render(yamlpath.Slash),
		}
	}

	target := found[0]
	merged, err := p.merge(target.Node, rroot, target.Locator)
	if err != nil {
		return err
	}
	if merged != target.Node {
		// The target may be reachable through several parents, so its
		// content is replaced in place.
		p.prime.Overwrite(target.Node, *p.prime.Node(merged))
	}
	return nil
}

// createTarget adds the missing trailing keys of the merge target and
// inserts the incoming document there.
func (p *pass) createTarget() error {
	segs := p.mergeAt.Segments()
	parent := p.prime.Root
	at := yamlpath.Root()

	i := 0
	for ; i < len(segs); i++ {
		found := search.ResolveAt(p.prime, parent, at, yamlpath.New(segs[i]))
		if len(found) != 1 {
			break
		}
		parent, at = found[0].Node, found[0].Locator
	}

	for j, seg := range segs[i:] {
		if seg.Kind != yamlpath.KeySegment || (j == 0 && !p.prime.Node(parent).IsMapping()) {
			return &PathError{
				Code:     ErrCodeUnresolvedPath,
				Message:  "merge target does not exist and cannot be created",
				Location: at,
				Path:     p.mergeAt.Render(yamlpath.Slash),
			}
		}
	}

	for j, seg := range segs[i:] {
		at = at.Append(seg)
		var child ir.NodeID
		if i+j == len(segs)-1 {
			child = p.importNode(p.right.Root)
		} else {
			child = p.prime.NewMapping()
		}
		p.prime.Set(parent, ir.StringKey(seg.Text), child)
		p.record(at, ActionInsert, "", "created merge target")
		parent = child
	}
	return nil
}
