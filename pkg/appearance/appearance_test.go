package appearance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const world = `<?xml version="1.0"?>
<raisim version="1.0">
  <objects>
    <sphere name="ball" mass="1.0">
      <dim radius="0.5"/>
      <appearance> rubber_red </appearance>
    </sphere>
    <box name="crate" appearance="wood"/>
    <capsule name="pill" material="plastic"/>
    <ground name="ground"/>
    <appearance>orphan</appearance>
  </objects>
</raisim>`

func TestParse(t *testing.T) {
	m, err := Parse(world)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	tests := map[string]string{"ball": "rubber_red", "crate": "wood", "pill": "plastic"}
	for name, want := range tests {
		got, ok := m.Resolve(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := m.Resolve("ground")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Parse("<raisim><objects></raisim>")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	fromDoc, err := ParseResolver(world)
	require.NoError(t, err)

	resolve := Chain(Static(map[string]string{"ball": "override"}), nil, fromDoc)

	hint, ok := resolve("ball")
	assert.True(t, ok)
	assert.Equal(t, "override", hint)

	hint, ok = resolve("crate")
	assert.True(t, ok)
	assert.Equal(t, "wood", hint)

	_, ok = resolve("nobody")
	assert.False(t, ok)
}
