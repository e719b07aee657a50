// Package ir provides the in-memory document model shared by the path
// matcher, the merge engine and the document codecs.
//
// A Document is an arena of nodes addressed by NodeID. Aliases are not
// materialized: a node that is referenced from several places simply
// appears under the same NodeID in several parent slots, so a change made
// through one path is observed through every alias. Anchor names are
// unique within a Document.
//
// Mapping nodes carry their own entries plus an ordered list of merge-key
// sources ("<<"). The folded view of a mapping yields own entries first
// and then inherited entries, with the first definition of a key winning.
//
// ir imports nothing internal so that every other package can depend on it.
package ir
