//go:build !(js && wasm)

package workspace

import "os"

// chdirToWorkspace changes the process's working directory to dir. Items
// resolve relative paths (file contents, kubeconfig references) against
// the process cwd, so the workspace root must become that cwd before any
// item runs.
func chdirToWorkspace(dir string) error {
	return os.Chdir(dir)
}
