// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. Paths are
// forward-slash separated and relative to the vault root.
type Provider interface {
	// List returns metadata for every note (.md) and route (.gpx) file under dir.
	List(dir string) ([]FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
}
