package merge

import (
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Action is what a merge step did to the prime document.
type Action string

const (
	// ActionInsert adds a key that the prime mapping did not have.
	ActionInsert Action = "insert"

	// ActionReplace substitutes the incoming node for the prime node.
	ActionReplace Action = "replace"

	// ActionAppend adds incoming sequence items after the prime items.
	ActionAppend Action = "append"

	// ActionDeepen recurses into a pair of mappings or records.
	ActionDeepen Action = "deepen"

	// ActionKeep leaves the prime node unchanged.
	ActionKeep Action = "keep"

	// ActionAnchor resolves an anchor defined by both documents.
	ActionAnchor Action = "anchor"
)

// Change records one decision of a merge.
type Change struct {
	Location yamlpath.Locator
	Action   Action
	Policy   rules.Policy
	Detail   string
}

// Observer receives every Change in the order decisions are made.
type Observer func(Change)
