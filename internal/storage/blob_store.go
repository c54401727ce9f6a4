package storage

import (
	"errors"
	"os"
	"time"
)

// ErrNotFound is returned when a record path does not exist.
var ErrNotFound = errors.New("file not found")

// BlobStore holds opaque vault records addressed by relative path.
type BlobStore interface {
	// Write replaces the file at path with data. Readers never observe a partial write.
	Write(path string, data []byte, mode os.FileMode) error

	// Read returns the full contents of the file at path.
	Read(path string) ([]byte, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(path string) error

	// Exists checks if a file exists.
	Exists(path string) (bool, error)

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// EnsureDir creates a directory if it doesn't exist.
	EnsureDir(path string) error

	// ListDir returns directory contents.
	ListDir(path string) ([]FileInfo, error)
}

// FileInfo contains file metadata.
type FileInfo struct {
	Path      string
	Size      int64
	Mode      os.FileMode
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool
}

// RecordMode is the permission used for vault record files.
const RecordMode os.FileMode = 0600
