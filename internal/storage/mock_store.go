package storage

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory BlobStore for tests.
type MockStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	modes map[string]os.FileMode
	dirs  map[string]bool
}

// NewMockStore creates a mock blob store.
func NewMockStore() *MockStore {
	return &MockStore{
		files: make(map[string][]byte),
		modes: make(map[string]os.FileMode),
		dirs:  make(map[string]bool),
	}
}

func mockKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Write saves a copy of data.
func (m *MockStore) Write(p string, data []byte, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mockKey(p)
	m.files[key] = append([]byte(nil), data...)
	m.modes[key] = mode
	for dir := path.Dir(key); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

// Read returns a copy of the stored data.
func (m *MockStore) Read(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if data, ok := m.files[mockKey(p)]; ok {
		return append([]byte(nil), data...), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
}

// Delete removes a file.
func (m *MockStore) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mockKey(p)
	delete(m.files, key)
	delete(m.modes, key)
	return nil
}

// Exists checks if a file or directory exists.
func (m *MockStore) Exists(p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := mockKey(p)
	_, isFile := m.files[key]
	return isFile || m.dirs[key], nil
}

// Stat returns file information.
func (m *MockStore) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := mockKey(p)
	if data, ok := m.files[key]; ok {
		return FileInfo{Path: key, Size: int64(len(data)), Mode: m.modes[key], ModTime: time.Now()}, nil
	}
	if m.dirs[key] {
		return FileInfo{Path: key, Mode: os.ModeDir | 0700, ModTime: time.Now(), IsDir: true}, nil
	}

	return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, p)
}

// EnsureDir creates a directory.
func (m *MockStore) EnsureDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs[mockKey(p)] = true
	return nil
}

// ListDir returns the direct children of p sorted by path.
func (m *MockStore) ListDir(p string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := mockKey(p)
	isChild := func(key string) bool {
		parent := path.Dir(key)
		if parent == "." {
			parent = ""
		}
		return key != dir && parent == dir
	}

	var files []FileInfo
	for key, data := range m.files {
		if isChild(key) {
			files = append(files, FileInfo{Path: key, Size: int64(len(data)), Mode: m.modes[key], ModTime: time.Now()})
		}
	}
	for key := range m.dirs {
		if isChild(key) {
			files = append(files, FileInfo{Path: key, Mode: os.ModeDir | 0700, ModTime: time.Now(), IsDir: true})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// FileExists checks if a file exists (helper for tests).
func (m *MockStore) FileExists(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.files[mockKey(p)]
	return exists
}

// Corrupt applies fn to the stored bytes of p in place (helper for tests).
func (m *MockStore) Corrupt(p string, fn func([]byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mockKey(p)
	if data, ok := m.files[key]; ok {
		m.files[key] = fn(data)
	}
}

// Clear removes all files and directories.
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files = make(map[string][]byte)
	m.modes = make(map[string]os.FileMode)
	m.dirs = make(map[string]bool)
}
