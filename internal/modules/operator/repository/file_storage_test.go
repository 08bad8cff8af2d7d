package repository

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (Repository, string) {
	t.Helper()
	base := t.TempDir()
	repo, err := NewFileStorage(base)
	require.NoError(t, err)
	return repo, filepath.Join(base, "operators")
}

func TestGetOperatorNotFound(t *testing.T) {
	repo, _ := newTestStorage(t)

	_, err := repo.GetOperator(1)
	assert.ErrorIs(t, err, ErrOperatorNotFound)

	_, err = repo.GetAdmin()
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestSaveAndList(t *testing.T) {
	repo, dir := newTestStorage(t)

	require.NoError(t, repo.SaveOperator(&domain.Operator{ID: 1, Username: "alice", AddedAt: time.Now()}))
	require.NoError(t, repo.SaveOperator(&domain.Operator{ID: 2, Username: "bob", AddedAt: time.Now()}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.json"), []byte("{broken"), 0644))

	op, err := repo.GetOperator(2)
	require.NoError(t, err)
	assert.Equal(t, "bob", op.Username)

	ops, err := repo.GetAllOperators()
	require.NoError(t, err)
	assert.Len(t, ops, 2, "unreadable files are skipped")
}

func TestClaimAdminOnce(t *testing.T) {
	repo, _ := newTestStorage(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
	)
	for id := int64(1); id <= 8; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimAdmin(&domain.Operator{ID: id, AddedAt: time.Now()})
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				winners = append(winners, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	admin, err := repo.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, winners[0], admin.ID)
	assert.True(t, admin.IsAdmin)

	ops, err := repo.GetAllOperators()
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}
