package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileStore persists settings as indented JSON at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file location.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the settings atomically: marshal, write to a temp file,
// then rename over the target. A failed rename leaves the previous file
// untouched and removes the temp file.
func (f *FileStore) Save(ctx context.Context, s *Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
