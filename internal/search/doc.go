// Package search walks documents to produce YAML Path locators.
//
// Match runs a depth-first, pre-order search for keys and scalar values
// that satisfy a search expression and yields one locator at a time.
// Resolve expands a (possibly non-concrete) locator into the concrete
// locators of the nodes it addresses.
//
// Neither operation mutates the document. Callers must not mutate a
// document while an Iterator over it is live.
package search
