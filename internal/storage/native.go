package storage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// NativeBackend binds Backend to the host filesystem. Writes go through a
// temp-file-then-rename sequence so a crash mid-write never leaves a
// partially written file in place.
type NativeBackend struct{}

func NewNativeBackend() *NativeBackend { return &NativeBackend{} }

func (NativeBackend) ReadOpt(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &perrors.StorageError{Kind: perrors.StorageFileRead, Path: path, Cause: err}
	}
	return b, true, nil
}

func (n NativeBackend) Read(path string) ([]byte, error) {
	b, ok, err := n.ReadOpt(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notExists(path)
	}
	return b, nil
}

func (NativeBackend) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	return nil
}

func (NativeBackend) ListEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &perrors.StorageError{Kind: perrors.StorageFileRead, Path: dir, Cause: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (NativeBackend) CreateDirs(paths []string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: p, Cause: err}
		}
	}
	return nil
}
