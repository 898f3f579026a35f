// Package storage provides a uniform read/write/list interface over the
// native filesystem or browser key-value storage. The path
// semantics are identical across backends; the backend is chosen at
// workspace construction and stored in the resource map for items that
// need byte-level I/O.
package storage

import "github.com/hashmap-kz/peaceform/internal/perrors"

// Backend is the uniform storage contract.
type Backend interface {
	// ReadOpt returns the bytes at path, or (nil, false, nil) if absent.
	ReadOpt(path string) ([]byte, bool, error)
	// Read returns the bytes at path, or a *perrors.StorageError with
	// Kind StorageItemNotExists if absent.
	Read(path string) ([]byte, error)
	// Write stores bytes at path, creating parent directories as needed.
	Write(path string, data []byte) error
	// ListEntries lists the names of entries directly under dir.
	ListEntries(dir string) ([]string, error)
	// CreateDirs creates every directory in paths (and their parents).
	CreateDirs(paths []string) error
}

func notExists(path string) error {
	return &perrors.StorageError{Kind: perrors.StorageItemNotExists, Path: path}
}
