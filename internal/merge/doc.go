// Package merge combines YAML documents into a prime document.
//
// A Merger owns the prime document and merges incoming documents into it
// one at a time, in place. Every combination is decided by the policy a
// rules.Resolver returns for the location being merged:
//
//	mapping + mapping    hashes policy: deep, shallow, left or right
//	sequence + sequence  arrays policy: all, unique, left or right
//	records + records    aoh policy; deep pairs records by identity key
//	anything else        the incoming node replaces the prime node
//
// Anchors bound in both documents are reconciled before any structural
// merging according to the global anchors policy. Aliases in the incoming
// document stay aliases in the result.
package merge
