package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeBackendWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := NewNativeBackend()

	path := filepath.Join(dir, "nested", "flow_params.yaml")
	require.NoError(t, b.Write(path, []byte("n: 3\n")))

	data, err := b.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "n: 3\n", string(data))
}

func TestNativeBackendReadOptAbsent(t *testing.T) {
	dir := t.TempDir()
	b := NewNativeBackend()

	data, ok, err := b.ReadOpt(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestNativeBackendReadMissingIsError(t *testing.T) {
	dir := t.TempDir()
	b := NewNativeBackend()

	_, err := b.Read(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestNativeBackendListEntries(t *testing.T) {
	dir := t.TempDir()
	b := NewNativeBackend()

	require.NoError(t, b.Write(filepath.Join(dir, "dev", "flow_params.yaml"), []byte("{}")))
	require.NoError(t, b.Write(filepath.Join(dir, "prod", "flow_params.yaml"), []byte("{}")))

	names, err := b.ListEntries(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dev", "prod"}, names)
}

func TestNativeBackendCreateDirs(t *testing.T) {
	dir := t.TempDir()
	b := NewNativeBackend()

	target := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, b.CreateDirs([]string{target}))

	names, err := b.ListEntries(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)
}
