package documents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists uploaded file bytes under generated names.
type BlobStore interface {
	Save(name string, payload []byte) error
	Remove(name string) error
	Path(name string) string
}

var errUnsafeBlobName = errors.New("documents: blob name must not contain path separators")

// DiskStore is a filesystem-backed BlobStore rooted at one directory.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures the storage directory exists and returns the store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("documents: storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("documents: create storage directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the payload under the given generated name.
func (s *DiskStore) Save(name string, payload []byte) error {
	if err := validateBlobName(name); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), payload, 0o644)
}

// Remove deletes the blob, tolerating an already-missing file.
func (s *DiskStore) Remove(name string) error {
	if err := validateBlobName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the filesystem path backing the given blob name.
func (s *DiskStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Dir returns the storage root, used to mount static file serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

func validateBlobName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", errUnsafeBlobName, name)
	}
	return nil
}
