package ir

import "fmt"

// NodeID addresses a node inside a Document.
type NodeID int

// NoNode is the zero reference returned when a lookup fails.
const NoNode NodeID = -1

// Kind is the structural kind of a node.
type Kind uint8

const (
	ScalarNode Kind = iota + 1
	SequenceNode
	MappingNode
)

func (k Kind) String() string {
	switch k {
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ScalarType is the resolved type hint of a scalar value.
type ScalarType uint8

const (
	StringType ScalarType = iota
	IntType
	FloatType
	BoolType
	NullType
)

func (t ScalarType) String() string {
	switch t {
	case StringType:
		return "string"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case BoolType:
		return "bool"
	case NullType:
		return "null"
	default:
		return fmt.Sprintf("ScalarType(%d)", uint8(t))
	}
}

// Numeric reports whether values of this type compare numerically.
func (t ScalarType) Numeric() bool {
	return t == IntType || t == FloatType
}

// TypeOfTag maps a short YAML core-schema tag to a ScalarType.
// Unknown tags resolve to StringType.
func TypeOfTag(tag string) ScalarType {
	switch tag {
	case "!!int":
		return IntType
	case "!!float":
		return FloatType
	case "!!bool":
		return BoolType
	case "!!null":
		return NullType
	default:
		return StringType
	}
}

// Style holds presentation flags carried over from the parser. The bits
// are opaque to this package.
type Style uint32

// Comments attached to a node or key.
type Comments struct {
	Head string
	Line string
	Foot string
}

// Key is a mapping key. Keys are always scalars.
type Key struct {
	Value    string
	Type     ScalarType
	Tag      string
	Style    Style
	Comments Comments
}

// StringKey returns a plain string key.
func StringKey(s string) Key {
	return Key{Value: s, Type: StringType, Tag: "!!str"}
}

// Entry is one key/value slot of a mapping.
type Entry struct {
	Key   Key
	Value NodeID
}

// Node is a single element of the arena. Container children are held by ID.
type Node struct {
	Kind     Kind
	Anchor   string
	Tag      string
	Style    Style
	Comments Comments

	// Scalar content.
	Value string
	Type  ScalarType

	// Sequence items.
	Items []NodeID

	// Mapping content: own entries in document order and merge-key sources.
	Entries []Entry
	Merges  []NodeID
}

// IsScalar reports whether n is a scalar.
func (n *Node) IsScalar() bool { return n.Kind == ScalarNode }

// IsSequence reports whether n is a sequence.
func (n *Node) IsSequence() bool { return n.Kind == SequenceNode }

// IsMapping reports whether n is a mapping.
func (n *Node) IsMapping() bool { return n.Kind == MappingNode }
