// Package yamlpath implements the YAML Path addressing language.
//
// A Locator is an immutable sequence of segments addressing a node inside
// a document. Locators render in one of two textual forms:
//
//	dot mode:   hash.list[0].key     [&anchor].key
//	slash mode: /hash/list[0]/key    /[&anchor]/key
//
// Key segments escape the active separator, '\', '[', ']', '&', '*' and
// '?' with a backslash. An unescaped '*' or '?' inside a key turns the
// segment into a wildcard. Bracketed segments address sequence indexes,
// slices, anchors and search expressions such as [name^prod].
package yamlpath
