package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage keeps one JSON file per operator under <base>/operators
type FileStorage struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStorage creates the operators directory under basePath
func NewFileStorage(basePath string) (Repository, error) {
	dir := filepath.Join(basePath, "operators")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create operators directory").Wrap(err)
	}

	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) SaveOperator(operator *domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(operator)
}

func (s *FileStorage) GetOperator(userID int64) (*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	operator, err := s.read(s.pathFor(userID))
	if os.IsNotExist(err) {
		return nil, oops.With("user_id", userID).Wrap(ErrOperatorNotFound)
	}
	if err != nil {
		return nil, oops.With("user_id", userID, "context", "failed to read operator").Wrap(err)
	}
	return operator, nil
}

func (s *FileStorage) GetAllOperators() ([]*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *FileStorage) GetAdmin() (*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin()
}

// ClaimAdmin checks for an admin and saves the new one under a single
// write lock, so two first users can never both become admin.
func (s *FileStorage) ClaimAdmin(operator *domain.Operator) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.admin(); err == nil {
		slog.Debug("Admin already registered", "admin_id", existing.ID, "user_id", operator.ID)
		return false, nil
	} else if !errors.Is(err, ErrOperatorNotFound) {
		return false, err
	}

	operator.IsAdmin = true
	if err := s.write(operator); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStorage) admin() (*domain.Operator, error) {
	operators, err := s.list()
	if err != nil {
		return nil, err
	}

	admin, ok := lo.Find(operators, func(o *domain.Operator) bool { return o.IsAdmin })
	if !ok {
		return nil, ErrOperatorNotFound
	}
	return admin, nil
}

func (s *FileStorage) list() ([]*domain.Operator, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, oops.With("directory", s.dir, "context", "failed to read operators directory").Wrap(err)
	}

	return lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.Operator, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		operator, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			slog.Warn("Skipping unreadable operator file", "file", entry.Name(), "error", err)
			return nil, false
		}
		return operator, true
	}), nil
}

func (s *FileStorage) read(path string) (*domain.Operator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var operator domain.Operator
	if err := json.Unmarshal(data, &operator); err != nil {
		return nil, oops.With("path", path, "context", "failed to unmarshal operator").Wrap(err)
	}
	return &operator, nil
}

func (s *FileStorage) write(operator *domain.Operator) error {
	data, err := json.MarshalIndent(operator, "", "  ")
	if err != nil {
		return oops.With("user_id", operator.ID, "context", "failed to marshal operator").Wrap(err)
	}

	if err := os.WriteFile(s.pathFor(operator.ID), data, 0644); err != nil {
		return oops.With("user_id", operator.ID, "context", "failed to write operator").Wrap(err)
	}
	return nil
}

func (s *FileStorage) pathFor(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", userID))
}
