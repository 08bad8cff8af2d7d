package service

import (
	"slices"
	"sync"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
)

// Service is a bounded, newest-first history of forwarded post ids.
// Eviction is strict FIFO: checking an id with Seen never refreshes it.
// State lives in memory only.
type Service struct {
	mu       sync.Mutex
	records  []domain.ForwardRecord
	capacity int
	now      func() time.Time
}

// New creates a ledger holding at most capacity records
func New(capacity int) *Service {
	capacity = max(capacity, 1)
	return &Service{
		records:  make([]domain.ForwardRecord, 0, capacity+1),
		capacity: capacity,
		now:      time.Now,
	}
}

// Seen reports whether postID is among the retained records.
func (s *Service) Seen(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(postID) >= 0
}

// Record inserts postID as the newest record, evicting the oldest past capacity.
func (s *Service) Record(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(postID)
}

// Claim records postID unless it is already present. It returns false when
// the id was seen, so concurrent callers can never both claim one post.
func (s *Service) Claim(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(postID) >= 0 {
		return false
	}
	s.record(postID)
	return true
}

// Recent returns a copy of the records, newest first.
func (s *Service) Recent() []domain.ForwardRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

func (s *Service) Capacity() int {
	return s.capacity
}

func (s *Service) indexOf(postID string) int {
	return slices.IndexFunc(s.records, func(r domain.ForwardRecord) bool {
		return r.PostID == postID
	})
}

func (s *Service) record(postID string) {
	if i := s.indexOf(postID); i >= 0 {
		s.records = slices.Delete(s.records, i, i+1)
	}

	s.records = slices.Insert(s.records, 0, domain.ForwardRecord{PostID: postID, ForwardedAt: s.now()})
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
}
