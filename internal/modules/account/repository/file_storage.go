package repository

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/account/domain"
	"github.com/samber/oops"
)

// ErrAccountNotCached is returned when the cache file is absent, unreadable
// or holds another handle.
var ErrAccountNotCached = errors.New("account not cached")

// FileStorage keeps a single account record in a JSON file
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

// NewFileStorage creates a file-backed account cache at path
func NewFileStorage(path string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, oops.With("path", path, "context", "failed to create account cache directory").Wrap(err)
	}

	return &FileStorage{path: path}, nil
}

func (s *FileStorage) GetAccount(handle string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAccountNotCached
		}
		return nil, oops.With("path", s.path, "context", "failed to read account cache").Wrap(err)
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, oops.With("path", s.path, "context", "corrupt account cache").Wrap(ErrAccountNotCached)
	}

	if account.ID == "" || !strings.EqualFold(account.Handle, handle) {
		return nil, ErrAccountNotCached
	}

	return &account, nil
}

func (s *FileStorage) SaveAccount(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return oops.With("handle", account.Handle, "context", "failed to marshal account").Wrap(err)
	}

	return os.WriteFile(s.path, data, 0644)
}
