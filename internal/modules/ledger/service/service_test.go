package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEvictsOldestFirst(t *testing.T) {
	const capacity = 5
	ledger := New(capacity)

	ids := lo.Times(12, func(i int) string { return fmt.Sprintf("post-%d", i) })
	for _, id := range ids {
		ledger.Record(id)
	}

	for _, id := range ids[:len(ids)-capacity] {
		assert.False(t, ledger.Seen(id), id)
	}
	for _, id := range ids[len(ids)-capacity:] {
		assert.True(t, ledger.Seen(id), id)
	}
	assert.Len(t, ledger.Recent(), capacity)
}

func TestLedgerSeenDoesNotRefresh(t *testing.T) {
	ledger := New(2)
	ledger.Record("a")
	ledger.Record("b")

	assert.True(t, ledger.Seen("a"))
	ledger.Record("c")

	assert.False(t, ledger.Seen("a"))
	assert.True(t, ledger.Seen("b"))
	assert.True(t, ledger.Seen("c"))
}

func TestLedgerRecordAgainMovesToFront(t *testing.T) {
	ledger := New(3)
	ledger.Record("a")
	ledger.Record("b")
	ledger.Record("a")

	recent := lo.Map(ledger.Recent(), func(r domain.ForwardRecord, _ int) string { return r.PostID })
	assert.Equal(t, []string{"a", "b"}, recent)
}

func TestLedgerClaim(t *testing.T) {
	ledger := New(5)

	assert.True(t, ledger.Claim("8"))
	assert.True(t, ledger.Seen("8"))
	assert.False(t, ledger.Claim("8"))
}

func TestLedgerClaimIsAtomic(t *testing.T) {
	ledger := New(5)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Claim("race") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}

func TestLedgerRecentIsCopy(t *testing.T) {
	ledger := New(2)
	ledger.Record("a")

	recent := ledger.Recent()
	recent[0].PostID = "mutated"
	assert.True(t, ledger.Seen("a"))
}
