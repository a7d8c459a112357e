package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/anicoll/fleetsync/pkg/sealer"
)

// Store persists the current bearer token between runs.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Remove() error
}

// FileStore keeps the token in a single file sealed with a secret key.
type FileStore struct {
	path string
	key  *sealer.Key
}

func NewFileStore(path string, key *sealer.Key) *FileStore {
	return &FileStore{path: path, key: key}
}

// Load returns an empty token when nothing was stored yet.
func (s *FileStore) Load() (string, error) {
	sealed, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token cache: %w", err)
	}
	token, err := sealer.Open(s.key, sealed)
	if err != nil {
		return "", fmt.Errorf("open token cache: %w", err)
	}
	return string(token), nil
}

func (s *FileStore) Save(token string) error {
	sealed, err := sealer.Seal(s.key, []byte(token))
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token cache: %w", err)
	}
	return nil
}

// MemoryStore keeps the token only for the life of the process.
type MemoryStore struct {
	token string
}

func (s *MemoryStore) Load() (string, error) { return s.token, nil }
func (s *MemoryStore) Save(token string) error {
	s.token = token
	return nil
}

func (s *MemoryStore) Remove() error {
	s.token = ""
	return nil
}
