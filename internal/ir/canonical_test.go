package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   ScalarType
		want  string
	}{
		{"string", "hello", StringType, `"hello"`},
		{"no html escape", "<a&b>", StringType, `"<a&b>"`},
		{"decimal int", "42", IntType, `42`},
		{"hex int", "0x10", IntType, `16`},
		{"underscored int", "1_000", IntType, `1000`},
		{"float", "1.50", FloatType, `1.5`},
		{"whole float", "2.0", FloatType, `2`},
		{"infinity", ".inf", FloatType, `Infinity`},
		{"bool yes", "yes", BoolType, `true`},
		{"bool False", "False", BoolType, `false`},
		{"null", "~", NullType, `null`},
		{"bad int falls back to string", "12ab", IntType, `"12ab"`},
		{"line separator stays literal", "a\u2028b", StringType, "\"a\u2028b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument()
			id := d.NewScalar(tt.value, tt.typ)
			assert.Equal(t, tt.want, string(d.Canonical(id)))
		})
	}
}

func TestCanonical_NFCNormalization(t *testing.T) {
	d := NewDocument()
	composed := d.NewScalar("caf\u00e9", StringType)
	decomposed := d.NewScalar("cafe\u0301", StringType)
	assert.True(t, Equal(d, composed, d, decomposed))
}

func TestCanonical_KeyOrder(t *testing.T) {
	d := NewDocument()
	m := d.NewMapping()
	d.Set(m, StringKey("b"), d.NewScalar("2", IntType))
	d.Set(m, StringKey("a"), d.NewScalar("1", IntType))
	assert.Equal(t, `{"a":1,"b":2}`, string(d.Canonical(m)))
}

func TestCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before
	// U+FF61 in UTF-16 but after it in UTF-8.
	assert.Equal(t, -1, compareKeysRFC8785("\U0001F600", "\uFF61"))
	assert.Equal(t, 0, compareKeysRFC8785("abc", "abc"))
	assert.Equal(t, -1, compareKeysRFC8785("ab", "abc"))
}

func TestCanonical_IgnoresPresentation(t *testing.T) {
	a := NewDocument()
	am := a.NewMapping()
	a.Set(am, StringKey("k"), a.NewScalar("v", StringType))
	a.Node(am).Comments.Head = "note"
	_ = a.SetAnchor(am, "anchor")

	b := NewDocument()
	bm := b.NewMapping()
	b.Set(bm, StringKey("k"), b.NewScalar("v", StringType))
	b.Node(bm).Style = 1

	assert.True(t, Equal(a, am, b, bm))
}

func TestCanonical_TypeSensitive(t *testing.T) {
	d := NewDocument()
	str := d.NewScalar("1", StringType)
	num := d.NewScalar("1", IntType)
	assert.False(t, Equal(d, str, d, num))
}

func TestCanonical_MergeKeysFold(t *testing.T) {
	d := NewDocument()
	base := d.NewMapping()
	d.Set(base, StringKey("a"), d.NewScalar("1", IntType))
	withMerge := d.NewMapping()
	d.AddMerge(withMerge, base)
	d.Set(withMerge, StringKey("b"), d.NewScalar("2", IntType))

	inline := d.NewMapping()
	d.Set(inline, StringKey("b"), d.NewScalar("2", IntType))
	d.Set(inline, StringKey("a"), d.NewScalar("1", IntType))

	assert.True(t, Equal(d, withMerge, d, inline))
}

func TestCanonical_RecursiveAliasTerminates(t *testing.T) {
	d := NewDocument()
	seq := d.NewSequence()
	d.Append(seq, seq)
	assert.Equal(t, `["*cycle"]`, string(d.Canonical(seq)))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"10", 10, true},
		{"-0b101", -5, true},
		{"0o17", 15, true},
		{"+7", 7, true},
		{"", 0, false},
		{"1.5", 0, false},
		{"-9223372036854775808", -9223372036854775808, true},
		{"9223372036854775808", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
