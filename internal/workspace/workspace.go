// Package workspace resolves the workspace root, profiles, flows, and
// their on-disk paths. A Workspace value is
// (AppName, Dirs, Storage): the storage backend is pluggable (native or
// browser, see internal/storage) but the directory layout rules are the
// same regardless of backend.
package workspace

import (
	"path/filepath"
	"regexp"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/storage"
)

// workspaceParamsFileName is the one direct file under peace_app_dir
//; DiscoverProfiles excludes it when listing profile
// directories.
const workspaceParamsFileName = "workspace_params.yaml"

// idPattern is shared by ItemID, Profile, and FlowID: all
// three have the identical lexical form `[A-Za-z_][A-Za-z0-9_]*`.
var idPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Profile names a directory under the workspace.
type Profile string

// NewProfile validates name against the shared ItemID-like lexical form.
func NewProfile(name string) (Profile, error) {
	if !idPattern.MatchString(name) {
		return "", &perrors.WorkspaceError{Kind: perrors.ProfileDirInvalidName, DirName: name}
	}
	return Profile(name), nil
}

// FlowID names a directory under a profile.
type FlowID string

func NewFlowID(name string) (FlowID, error) {
	if !idPattern.MatchString(name) {
		return "", &perrors.WorkspaceError{Kind: perrors.ProfileDirInvalidName, DirName: name}
	}
	return FlowID(name), nil
}

// Dirs holds the workspace's directory tree:
//
//	WorkspaceDir
//	  PeaceDir = WorkspaceDir/.peace
//	    PeaceAppDir = PeaceDir/<app>
type Dirs struct {
	WorkspaceDir string
	PeaceDir     string
	PeaceAppDir  string
}

func NewDirs(workspaceDir, appName string) Dirs {
	peaceDir := filepath.Join(workspaceDir, ".peace")
	return Dirs{
		WorkspaceDir: workspaceDir,
		PeaceDir:     peaceDir,
		PeaceAppDir:  filepath.Join(peaceDir, appName),
	}
}

// ProfileDir returns <peace_app_dir>/<profile>.
func (d Dirs) ProfileDir(p Profile) string {
	return filepath.Join(d.PeaceAppDir, string(p))
}

// ProfileHistoryDir returns <profile_dir>/history.
func (d Dirs) ProfileHistoryDir(p Profile) string {
	return filepath.Join(d.ProfileDir(p), "history")
}

// FlowDir returns <profile_dir>/<flow_id>.
func (d Dirs) FlowDir(p Profile, f FlowID) string {
	return filepath.Join(d.ProfileDir(p), string(f))
}

// WorkspaceParamsPath returns <peace_app_dir>/workspace_params.yaml.
func (d Dirs) WorkspaceParamsPath() string {
	return filepath.Join(d.PeaceAppDir, "workspace_params.yaml")
}

// ProfileParamsPath returns <profile_dir>/profile_params.yaml.
func (d Dirs) ProfileParamsPath(p Profile) string {
	return filepath.Join(d.ProfileDir(p), "profile_params.yaml")
}

// FlowParamsPath returns <flow_dir>/flow_params.yaml.
func (d Dirs) FlowParamsPath(p Profile, f FlowID) string {
	return filepath.Join(d.FlowDir(p, f), "flow_params.yaml")
}

// ParamsSpecsPath returns <flow_dir>/params_specs.yaml.
func (d Dirs) ParamsSpecsPath(p Profile, f FlowID) string {
	return filepath.Join(d.FlowDir(p, f), "params_specs.yaml")
}

// StatesCurrentPath returns <flow_dir>/states_current.yaml.
func (d Dirs) StatesCurrentPath(p Profile, f FlowID) string {
	return filepath.Join(d.FlowDir(p, f), "states_current.yaml")
}

// StatesGoalPath returns <flow_dir>/states_goal.yaml.
func (d Dirs) StatesGoalPath(p Profile, f FlowID) string {
	return filepath.Join(d.FlowDir(p, f), "states_goal.yaml")
}

// Workspace is (AppName, Dirs, Storage), materialised lazily: directories
// are created on first use and preserved across runs.
type Workspace struct {
	AppName string
	Dirs    Dirs
	Storage storage.Backend
}

func New(workspaceDir, appName string, backend storage.Backend) *Workspace {
	return &Workspace{
		AppName: appName,
		Dirs:    NewDirs(workspaceDir, appName),
		Storage: backend,
	}
}

// MaterializeBase creates the workspace/.peace/<app> directory chain.
// Profile- and flow-specific directories are materialized separately by
// the command-context builder once the profile/flow are known.
func (w *Workspace) MaterializeBase() error {
	return w.Storage.CreateDirs([]string{w.Dirs.WorkspaceDir, w.Dirs.PeaceDir, w.Dirs.PeaceAppDir})
}

// Chdir sets the process's working directory to the workspace root on
// native builds (chdir_native.go); it is a no-op in the browser
// (chdir_browser.go), which has no process-wide cwd to change. Call once,
// after MaterializeBase, before any item runs.
func (w *Workspace) Chdir() error {
	if err := chdirToWorkspace(w.Dirs.WorkspaceDir); err != nil {
		return &perrors.WorkspaceError{Kind: perrors.CurrentDirSet, Path: w.Dirs.WorkspaceDir, Cause: err}
	}
	return nil
}

// MaterializeProfile creates <peace_app_dir>/<profile> and its history
// directory.
func (w *Workspace) MaterializeProfile(p Profile) error {
	return w.Storage.CreateDirs([]string{w.Dirs.ProfileDir(p), w.Dirs.ProfileHistoryDir(p)})
}

// MaterializeFlow creates <profile_dir>/<flow_id>.
func (w *Workspace) MaterializeFlow(p Profile, f FlowID) error {
	return w.Storage.CreateDirs([]string{w.Dirs.FlowDir(p, f)})
}
