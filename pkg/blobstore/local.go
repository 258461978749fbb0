// Package blobstore keeps conversation audio on local disk, addressed by
// conversation id. Paths returned here are what the models persist, so the
// layout under the upload root is part of the storage contract.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type LocalStore struct {
	root string
}

// NewLocalStore ensures the upload root exists.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// AudioPath is where the full original recording for a conversation lives.
func (s *LocalStore) AudioPath(conversationId uuid.UUID) string {
	return filepath.Join(s.root, conversationId.String(), "audio.wav")
}

// CroppedAudioPath is where the silence-cropped recording lives.
func (s *LocalStore) CroppedAudioPath(conversationId uuid.UUID) string {
	return filepath.Join(s.root, conversationId.String(), "audio_cropped.wav")
}

// Save writes blob data to the given path, creating parent directories.
func (s *LocalStore) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize blob: %w", err)
	}
	return nil
}

// Load reads blob data from the given path.
func (s *LocalStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// Root returns the upload root, used to mount the static file route.
func (s *LocalStore) Root() string {
	return s.root
}
