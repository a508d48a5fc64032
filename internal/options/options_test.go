package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_BlankIsEmptyMap(t *testing.T) {
	m, err := Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	m, err = Resolve("   \n\t", map[string]string{"FOO": "bar"})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestResolve_PlaceholderSubstitution(t *testing.T) {
	m, err := Resolve("key=${FOO}", map[string]string{"FOO": "bar"})
	require.NoError(t, err)
	v, ok := m.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestResolve_UnresolvedPlaceholderLeftVerbatim(t *testing.T) {
	m, err := Resolve("key=${MISSING}", map[string]string{"FOO": "bar"})
	require.NoError(t, err)
	v, _ := m.Get("key")
	assert.Equal(t, "${MISSING}", v)
}

func TestExpand_ReportsUnresolvedTokens(t *testing.T) {
	expanded, unresolved := Expand("a=${A} b=${B}", map[string]string{"A": "1"})
	assert.Equal(t, "a=1 b=${B}", expanded)
	assert.Equal(t, []string{"B"}, unresolved)
}

func TestResolve_MalformedLineIsParseError(t *testing.T) {
	m, err := Resolve("not a valid line ===", nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestParse_NoSeparator(t *testing.T) {
	m, err := Parse("justakey")
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestParse_CommentsAndColonSeparator(t *testing.T) {
	m, err := Parse("# comment\n! also a comment\nkey1=v1\nkey2: v2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"key1", "key2"}, m.Keys())
	v, _ := m.Get("key2")
	assert.Equal(t, "v2", v)
}

func TestParse_LineContinuation(t *testing.T) {
	m, err := Parse("key=first \\\n  second")
	require.NoError(t, err)
	v, _ := m.Get("key")
	assert.Equal(t, "first second", v)
}

func TestParse_WhitespaceTrimmedAroundSeparator(t *testing.T) {
	m, err := Parse("key   =   value  ")
	require.NoError(t, err)
	v, _ := m.Get("key")
	assert.Equal(t, "value", v)
}

func TestParse_RoundTripPreservesOrderAndPairs(t *testing.T) {
	in := "alpha=1\nbeta=2\ngamma=3\n"
	m, err := Parse(in)
	require.NoError(t, err)

	again, err := Parse(m.String())
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), again.Keys())
	assert.Equal(t, m.Values(), again.Values())
}

func TestParse_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	m, err := Parse("a=1\nb=2\na=3")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, "3", v)
}
