// Package storage defines the content-directory file-system abstraction.
package storage

import "time"

// FileInfo is lightweight metadata for a content file.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for content directory operations.
type Provider interface {
	// Root returns the absolute path of the content root.
	Root() string
	// List returns metadata for every .md file under dir (relative to the content root).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to the content root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the content root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the content root).
	Delete(path string) error
}
