package rules

import (
	"fmt"
	"slices"
	"strings"
)

// Category is a class of merge decision.
type Category uint8

const (
	Anchors Category = iota + 1
	Arrays
	Hashes
	AoH
)

// Categories lists every category in declaration order.
var Categories = []Category{Anchors, Arrays, Hashes, AoH}

func (c Category) String() string {
	switch c {
	case Anchors:
		return "anchors"
	case Arrays:
		return "arrays"
	case Hashes:
		return "hashes"
	case AoH:
		return "aoh"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// ParseCategory accepts a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown merge category %q (want anchors, arrays, hashes or aoh)", s)
}

// Policy is a merge resolution.
type Policy string

const (
	All     Policy = "all"
	Unique  Policy = "unique"
	Left    Policy = "left"
	Right   Policy = "right"
	Deep    Policy = "deep"
	Shallow Policy = "shallow"
	Stop    Policy = "stop"
	Rename  Policy = "rename"
)

var allowed = map[Category][]Policy{
	Anchors: {Stop, Left, Right, Rename},
	Arrays:  {All, Unique, Left, Right},
	Hashes:  {Deep, Shallow, Left, Right},
	AoH:     {All, Deep, Left, Right},
}

// Policies returns the policies valid for c.
func (c Category) Policies() []Policy {
	return slices.Clone(allowed[c])
}

// Allows reports whether p is valid for c.
func (c Category) Allows(p Policy) bool {
	return slices.Contains(allowed[c], p)
}

// ParsePolicy parses a policy name valid for category c.
func ParsePolicy(c Category, s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !c.Allows(p) {
		names := make([]string, 0, len(allowed[c]))
		for _, a := range allowed[c] {
			names = append(names, string(a))
		}
		return "", fmt.Errorf("invalid %s policy %q (want one of %s)", c, s, strings.Join(names, ", "))
	}
	return p, nil
}
