package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File stores each blob as one file under a state directory. Keys map
// directly to file names, so they must not contain path separators.
type File struct {
	dir string
}

// NewFile creates the state directory if needed and returns a file-backed
// store.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f *File) Read(key string) (string, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *File) Write(key, value string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	// 0600: one of the blobs is a bearer credential.
	if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	return nil
}
