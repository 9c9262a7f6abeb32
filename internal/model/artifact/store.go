package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotExist reports that no artifact has been saved under the given path.
var ErrNotExist = errors.New("artifact does not exist")

// Store is a path-addressed blob store for the serialized model artifact.
type Store interface {
	Put(ctx context.Context, path string, blob []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}

// FSStore keeps artifacts on the local filesystem. Writes go through a
// temp file plus rename so a concurrent Get never observes a partial blob.
type FSStore struct{}

func NewFSStore() *FSStore {
	return &FSStore{}
}

func (s *FSStore) Put(_ context.Context, path string, blob []byte) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit artifact: %w", err)
	}

	return nil
}

func (s *FSStore) Get(_ context.Context, path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return blob, nil
}
