package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/storage"
)

func TestDirsLayout(t *testing.T) {
	d := NewDirs("/ws", "myapp")
	assert.Equal(t, "/ws", d.WorkspaceDir)
	assert.Equal(t, "/ws/.peace", d.PeaceDir)
	assert.Equal(t, "/ws/.peace/myapp", d.PeaceAppDir)

	p, err := NewProfile("dev")
	require.NoError(t, err)
	f, err := NewFlowID("deploy")
	require.NoError(t, err)

	assert.Equal(t, "/ws/.peace/myapp/dev", d.ProfileDir(p))
	assert.Equal(t, "/ws/.peace/myapp/dev/history", d.ProfileHistoryDir(p))
	assert.Equal(t, "/ws/.peace/myapp/dev/deploy", d.FlowDir(p, f))
}

func TestNewProfileRejectsInvalidLexicalForm(t *testing.T) {
	_, err := NewProfile("test_profile_spécïál")
	require.Error(t, err)
	var werr *perrors.WorkspaceError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, perrors.ProfileDirInvalidName, werr.Kind)
}

func TestDiscoverProfilesFiltersAndValidates(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewNativeBackend()
	ws := New(dir, "myapp", backend)
	require.NoError(t, ws.MaterializeBase())

	for _, name := range []string{"dev", "prod", "stage"} {
		p, err := NewProfile(name)
		require.NoError(t, err)
		require.NoError(t, ws.MaterializeProfile(p))
	}
	require.NoError(t, backend.Write(ws.Dirs.WorkspaceParamsPath(), []byte("{}")))

	profiles, err := ws.DiscoverProfiles(func(p Profile) bool { return p == "prod" })
	require.NoError(t, err)
	assert.Equal(t, []Profile{"prod"}, profiles)

	all, err := ws.DiscoverProfiles(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Profile{"dev", "prod", "stage"}, all)
}

func TestDiscoverProfilesInvalidNameSurfaces(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewNativeBackend()
	ws := New(dir, "myapp", backend)
	require.NoError(t, ws.MaterializeBase())
	require.NoError(t, backend.CreateDirs([]string{ws.Dirs.PeaceAppDir + "/test_profile_spécïál"}))

	_, err := ws.DiscoverProfiles(nil)
	require.Error(t, err)
	var werr *perrors.WorkspaceError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, perrors.ProfileDirInvalidName, werr.Kind)
	assert.Equal(t, "test_profile_spécïál", werr.DirName)
}
