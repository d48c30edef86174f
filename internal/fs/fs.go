// Package fs provides the filesystem abstraction used for note files, the
// stats ledger and config files.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [Real]: production implementation using [os] package
//
// Example usage:
//
//	fsys := fs.NewReal()
//	err := fsys.WriteFileAtomic(path, data, 0o600)
package fs

import (
	"os"
	"time"
)

// FS defines the filesystem operations the sync engine needs.
//
// All methods mirror their [os] package equivalents so they can be intercepted
// in tests.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename to prevent partial writes on crash.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// ModTime returns the modification time of path. See [os.FileInfo.ModTime].
	ModTime(path string) (time.Time, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error
}
