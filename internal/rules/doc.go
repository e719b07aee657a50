// Package rules resolves merge policies per document location.
//
// A Resolver is built from an ordered list of layers. Category defaults
// cascade in layer order: the built-in layer first, then command-line
// overrides, then the [defaults] section of a rule file. Path rules from
// any layer beat every default; among the rules whose pattern matches a
// location the longest pattern wins and ties go to the rule declared last.
//
// The anchor policy is global: path rules for the anchors category are
// rejected when the Resolver is built.
package rules
