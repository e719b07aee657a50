// Package config loads merge rule files.
//
// A rule file has three sections. [defaults] maps a category (anchors,
// arrays, hashes, aoh) to a policy. [rules] maps a YAML Path pattern to
// either a bare policy, which applies to every non-anchor category that
// accepts it, or a "category:policy" pair. [keys] maps a YAML Path
// pattern to the identity-key path of the array-of-hashes found there.
//
// The format follows the file extension: .toml files are TOML, .yaml and
// .yml files are YAML, .cue files are CUE, and anything else is INI.
package config
