package group

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// MemoryStore keeps groups in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	groups []Group
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(groups ...Group) *MemoryStore {
	return &MemoryStore{groups: slices.Clone(groups)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.groups), nil
}

func (s *MemoryStore) Save(ctx context.Context, groups []Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = slices.Clone(groups)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// FileStore keeps groups in a JSON file. Writes go to a temporary file that
// replaces the original, so a crash never leaves a half-written file.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// fileFormat is the on-disk layout of a FileStore.
type fileFormat struct {
	Groups []Group `json:"groups"`
}

// NewFileStore creates a file-based store at path.
// If path is empty, defaults to ~/.config/pipegraph/groups.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "pipegraph", "groups.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create group dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(ctx context.Context) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read group file: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse group file: %w", err)
	}
	return f.Groups, nil
}

func (s *FileStore) Save(ctx context.Context, groups []Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if groups == nil {
		groups = []Group{}
	}
	data, err := json.MarshalIndent(fileFormat{Groups: groups}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".groups-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write group file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write group file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace group file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the group file path.
func (s *FileStore) Path() string {
	return s.path
}

var _ Store = (*FileStore)(nil)
