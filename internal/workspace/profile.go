package workspace

import (
	"sort"

	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// ProfileFilter selects which discovered profiles are accessible to a
// multi-profile command-context build.
type ProfileFilter func(Profile) bool

// DiscoverProfiles lists the entries directly under the workspace's
// peace-app directory and parses each name as a Profile. An entry whose
// name is not a valid Profile surfaces as a *perrors.WorkspaceError with
// Kind ProfileDirInvalidName — it is never silently skipped.
func (w *Workspace) DiscoverProfiles(filter ProfileFilter) ([]Profile, error) {
	names, err := w.Storage.ListEntries(w.Dirs.PeaceAppDir)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var profiles []Profile
	for _, name := range names {
		if name == workspaceParamsFileName {
			// The only direct file under peace_app_dir; every
			// other entry is expected to be a profile directory.
			continue
		}
		p, err := NewProfile(name)
		if err != nil {
			var werr *perrors.WorkspaceError
			if ok := asWorkspaceError(err, &werr); ok {
				werr.DirName = name
				return nil, werr
			}
			return nil, err
		}
		if filter == nil || filter(p) {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func asWorkspaceError(err error, target **perrors.WorkspaceError) bool {
	if we, ok := err.(*perrors.WorkspaceError); ok {
		*target = we
		return true
	}
	return false
}
