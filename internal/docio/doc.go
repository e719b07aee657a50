// Package docio reads and writes documents for the merge and search
// commands.
//
// Sources are decoded with gopkg.in/yaml.v3 into the ir arena model, one
// ir.Document per document of a multi-document stream. JSON sources are
// read through the same parser since JSON is a subset of YAML. Emission
// goes back through yaml.v3 nodes so anchors, aliases, tags, styles and
// comments survive a round trip; JSON output is rendered from the folded
// view of the tree.
package docio
