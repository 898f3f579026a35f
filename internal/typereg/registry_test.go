package typereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type mockState struct {
	N int `yaml:"n"`
}

func TestDecodeMappingKnownKeys(t *testing.T) {
	reg := New[string]()
	reg.Register("mock", func() any { return &mockState{} })

	var doc yaml.Node
	err := yaml.Unmarshal([]byte("mock:\n  n: 3\n"), &doc)
	require.NoError(t, err)

	decoded, err := reg.DecodeMapping(doc.Content[0])
	require.NoError(t, err)
	assert.Equal(t, &mockState{N: 3}, decoded.Values["mock"])
}

func TestDecodeMappingUnknownKeyRejected(t *testing.T) {
	reg := New[string]()

	var doc yaml.Node
	err := yaml.Unmarshal([]byte("ghost:\n  n: 3\n"), &doc)
	require.NoError(t, err)

	_, err = reg.DecodeMapping(doc.Content[0])
	assert.Error(t, err)
}

func TestDecodeMappingUnknownKeyPreserved(t *testing.T) {
	reg := NewWithUnknowns[string]()

	var doc yaml.Node
	err := yaml.Unmarshal([]byte("ghost:\n  n: 3\n"), &doc)
	require.NoError(t, err)

	decoded, err := reg.DecodeMapping(doc.Content[0])
	require.NoError(t, err)
	assert.Contains(t, decoded.Unknowns, "ghost")
	assert.NotContains(t, decoded.Values, "ghost")
}

func TestRoundTripPreservesUnknowns(t *testing.T) {
	reg := NewWithUnknowns[string]()
	reg.Register("mock", func() any { return &mockState{} })

	var doc yaml.Node
	err := yaml.Unmarshal([]byte("mock:\n  n: 3\nghost:\n  k: v\n"), &doc)
	require.NoError(t, err)

	decoded, err := reg.DecodeMapping(doc.Content[0])
	require.NoError(t, err)

	out, err := reg.EncodeMapping(decoded.Values, decoded.Unknowns, []string{"mock", "ghost"})
	require.NoError(t, err)

	b, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ghost")
	assert.Contains(t, string(b), "mock")
}
