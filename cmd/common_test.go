package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "my_item", "my_item"},
		{"dashes and slashes become underscores", "my-app/v1", "my_app_v1"},
		{"leading digit gets prefixed", "123abc", "_123abc"},
		{"collapses runs of separators", "a//b--c", "a_b_c"},
		{"empty input gets prefixed", "", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := sanitizeID(tt.input)
			assert.Equal(t, tt.want, string(id))
		})
	}
}

func TestK8sItemID(t *testing.T) {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "my-config",
			"namespace": "default",
		},
	}}
	assert.Equal(t, "ConfigMap_default_my_config", string(k8sItemID(u)))
}

func TestFileItemID(t *testing.T) {
	assert.Equal(t, "file__etc_app_conf", string(fileItemID("/etc/app.conf")))
}

func TestParseFileEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	entries, err := parseFileEntries(fileFlags{entries: []string{"/etc/dest.txt=" + src}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/etc/dest.txt", entries[0].dest)
	assert.Equal(t, "hello", entries[0].contents)
}

func TestParseFileEntriesRejectsMissingEquals(t *testing.T) {
	_, err := parseFileEntries(fileFlags{entries: []string{"no-equals-sign"}})
	assert.Error(t, err)
}

func TestBuildFlowRegistersEachDocAndFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	doc := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "my-config",
			"namespace": "default",
		},
	}}
	files, err := parseFileEntries(fileFlags{entries: []string{"/etc/dest.txt=" + src}})
	require.NoError(t, err)

	g, specs, err := buildFlow([]*unstructured.Unstructured{doc}, files, manifestFlags{defaultNamespace: "default"})
	require.NoError(t, err)
	assert.Len(t, g.InsertionOrder(), 2)
	assert.Equal(t, specs.Len(), 2)
}
