package rules

import (
	"errors"
	"fmt"
	"maps"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/yamlpath/internal/yamlpath"
)

// ErrInvalidRule is matched by every error NewResolver returns.
var ErrInvalidRule = errors.New("invalid merge rule")

// Rule overrides the policy of one category for locations matched by
// Pattern.
type Rule struct {
	Pattern  yamlpath.Locator
	Category Category
	Policy   Policy
}

// KeyBinding names the identity key of the array-of-hashes at locations
// matched by Pattern. Key is relative to each record.
type KeyBinding struct {
	Pattern yamlpath.Locator
	Key     yamlpath.Locator
}

// Layer is one source of policy overrides.
type Layer struct {
	Name     string
	Defaults map[Category]Policy
	Rules    []Rule
	Keys     []KeyBinding
}

// Builtin returns the built-in defaults layer.
func Builtin() Layer {
	return Layer{
		Name: "builtin",
		Defaults: map[Category]Policy{
			Anchors: Stop,
			Arrays:  All,
			Hashes:  Deep,
			AoH:     All,
		},
	}
}

// Resolver answers policy questions for locations. It is immutable and
// safe for concurrent use.
type Resolver struct {
	layers   []Layer
	defaults map[Category]Policy
	origin   map[Category]string
	rules    []sourcedRule
	keys     []sourcedKey
}

type sourcedRule struct {
	Rule
	layer string
}

type sourcedKey struct {
	KeyBinding
	layer string
}

// NewResolver builds a Resolver over the built-in layer followed by layers.
func NewResolver(layers ...Layer) (*Resolver, error) {
	all := append([]Layer{Builtin()}, layers...)
	r := &Resolver{
		layers:   all,
		defaults: make(map[Category]Policy),
		origin:   make(map[Category]string),
	}
	for _, l := range all {
		for c, p := range l.Defaults {
			if !c.Allows(p) {
				return nil, fmt.Errorf("%w: %s: %s does not accept %q", ErrInvalidRule, l.Name, c, p)
			}
			r.defaults[c] = p
			r.origin[c] = l.Name
		}
		for _, rule := range l.Rules {
			if rule.Category == Anchors {
				return nil, fmt.Errorf("%w: %s: anchor policy cannot be set per path (%s)", ErrInvalidRule, l.Name, rule.Pattern.Render(yamlpath.Slash))
			}
			if !rule.Category.Allows(rule.Policy) {
				return nil, fmt.Errorf("%w: %s: %s does not accept %q at %s", ErrInvalidRule, l.Name, rule.Category, rule.Policy, rule.Pattern.Render(yamlpath.Slash))
			}
			if rule.Pattern.HasSearch() {
				return nil, fmt.Errorf("%w: %s: search expressions are not allowed in rule paths (%s)", ErrInvalidRule, l.Name, rule.Pattern.Render(yamlpath.Slash))
			}
			r.rules = append(r.rules, sourcedRule{Rule: rule, layer: l.Name})
		}
		for _, k := range l.Keys {
			if k.Pattern.HasSearch() {
				return nil, fmt.Errorf("%w: %s: search expressions are not allowed in key paths (%s)", ErrInvalidRule, l.Name, k.Pattern.Render(yamlpath.Slash))
			}
			if k.Key.IsRoot() || !k.Key.Concrete() {
				return nil, fmt.Errorf("%w: %s: identity key for %s must be a concrete, non-empty path", ErrInvalidRule, l.Name, k.Pattern.Render(yamlpath.Slash))
			}
			r.keys = append(r.keys, sourcedKey{KeyBinding: k, layer: l.Name})
		}
	}
	return r, nil
}

// Default returns the cascaded default policy of c, ignoring path rules.
func (r *Resolver) Default(c Category) Policy {
	return r.defaults[c]
}

// Defaults returns a copy of the cascaded defaults.
func (r *Resolver) Defaults() map[Category]Policy {
	return maps.Clone(r.defaults)
}

// AnchorPolicy returns the global anchor-conflict policy.
func (r *Resolver) AnchorPolicy() Policy {
	return r.defaults[Anchors]
}

// Resolve returns the effective policy of c at loc.
func (r *Resolver) Resolve(loc yamlpath.Locator, c Category) Policy {
	p, _ := r.Explain(loc, c)
	return p
}

// Explain is Resolve plus a description of where the policy came from.
func (r *Resolver) Explain(loc yamlpath.Locator, c Category) (Policy, string) {
	if c != Anchors {
		best := -1
		var winner *sourcedRule
		for i := range r.rules {
			rule := &r.rules[i]
			if rule.Category != c || !Matches(rule.Pattern, loc) {
				continue
			}
			if n := rule.Pattern.Len(); n >= best {
				best = n
				winner = rule
			}
		}
		if winner != nil {
			return winner.Policy, fmt.Sprintf("%s rule %s", winner.layer, winner.Pattern.Render(yamlpath.Slash))
		}
	}
	return r.defaults[c], r.origin[c] + " default"
}

// IdentityKey returns the identity key bound to the array-of-hashes at loc,
// chosen the same way as path rules.
func (r *Resolver) IdentityKey(loc yamlpath.Locator) (yamlpath.Locator, bool) {
	best := -1
	var key yamlpath.Locator
	for _, k := range r.keys {
		if !Matches(k.Pattern, loc) {
			continue
		}
		if n := k.Pattern.Len(); n >= best {
			best = n
			key = k.Key
		}
	}
	return key, best >= 0
}

// Matches reports whether pattern matches loc segment by segment as a
// prefix. Key segments compare exactly, wildcard segments glob-match keys
// and "*" also matches indexes and anchors, slice segments match indexes
// in range.
func Matches(pattern, loc yamlpath.Locator) bool {
	if pattern.Len() > loc.Len() {
		return false
	}
	for i := 0; i < pattern.Len(); i++ {
		if !segmentMatches(pattern.At(i), loc.At(i)) {
			return false
		}
	}
	return true
}

func segmentMatches(p, s yamlpath.Segment) bool {
	switch p.Kind {
	case yamlpath.KeySegment:
		return s.Kind == yamlpath.KeySegment && s.Text == p.Text
	case yamlpath.IndexSegment:
		return s.Kind == yamlpath.IndexSegment && s.Index == p.Index
	case yamlpath.AnchorSegment:
		return s.Kind == yamlpath.AnchorSegment && s.Text == p.Text
	case yamlpath.SliceSegment:
		return s.Kind == yamlpath.IndexSegment && s.Index >= p.Index && s.Index < p.End
	case yamlpath.WildcardSegment:
		if s.Kind == yamlpath.KeySegment {
			ok, err := doublestar.Match(p.Text, s.Text)
			return err == nil && ok
		}
		return p.Text == "*"
	default:
		return false
	}
}
