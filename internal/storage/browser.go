//go:build js && wasm

package storage

import (
	"encoding/base64"
	"strings"
	"syscall/js"

	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// BrowserCodec selects how bytes are encoded into the underlying string
// storage: browsers only store UTF-16 strings, so binary-safe content must
// be base64-encoded; text content can be stored verbatim.
type BrowserCodec int

const (
	CodecUTF8 BrowserCodec = iota
	CodecBase64
)

// BrowserArea selects window.localStorage or window.sessionStorage.
type BrowserArea int

const (
	AreaLocalStorage BrowserArea = iota
	AreaSessionStorage
)

// BrowserBackend binds Backend to a browser key-value store. Paths are
// used verbatim as storage keys; ListEntries simulates directory listing
// by matching a "dir/" key prefix, since there is no hierarchy in
// localStorage/sessionStorage.
type BrowserBackend struct {
	area  BrowserArea
	codec BrowserCodec
}

func NewBrowserBackend(area BrowserArea, codec BrowserCodec) (*BrowserBackend, error) {
	if !storageAvailable(area) {
		return nil, &perrors.StorageError{Kind: perrors.StorageLocalStorageUnavailable}
	}
	return &BrowserBackend{area: area, codec: codec}, nil
}

func storageAvailable(area BrowserArea) bool {
	win := js.Global().Get("window")
	if win.IsUndefined() {
		return false
	}
	return !win.Get(areaName(area)).IsUndefined()
}

func areaName(area BrowserArea) string {
	if area == AreaSessionStorage {
		return "sessionStorage"
	}
	return "localStorage"
}

func (b *BrowserBackend) store() js.Value {
	return js.Global().Get("window").Get(areaName(b.area))
}

func (b *BrowserBackend) encode(data []byte) string {
	if b.codec == CodecBase64 {
		return base64.StdEncoding.EncodeToString(data)
	}
	return string(data)
}

func (b *BrowserBackend) decode(path, s string) ([]byte, error) {
	if b.codec == CodecBase64 {
		out, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, &perrors.StorageError{Kind: perrors.StorageB64Decode, Path: path, Cause: err}
		}
		return out, nil
	}
	return []byte(s), nil
}

func (b *BrowserBackend) ReadOpt(path string) ([]byte, bool, error) {
	v := b.store().Call("getItem", path)
	if v.IsNull() || v.IsUndefined() {
		return nil, false, nil
	}
	data, err := b.decode(path, v.String())
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *BrowserBackend) Read(path string) ([]byte, error) {
	data, ok, err := b.ReadOpt(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notExists(path)
	}
	return data, nil
}

func (b *BrowserBackend) Write(path string, data []byte) error {
	b.store().Call("setItem", path, b.encode(data))
	return nil
}

func (b *BrowserBackend) ListEntries(dir string) ([]string, error) {
	prefix := dir
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	store := b.store()
	length := store.Get("length").Int()
	seen := map[string]bool{}
	var names []string
	for i := 0; i < length; i++ {
		key := store.Call("key", i).String()
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		name := strings.SplitN(rest, "/", 2)[0]
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func (b *BrowserBackend) CreateDirs(paths []string) error {
	// Browser key-value storage has no directory concept; this is a no-op
	// that exists only to satisfy Backend's uniform interface.
	return nil
}
