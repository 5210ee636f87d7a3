package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/crease/match-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu         sync.RWMutex
	matches    map[string]*model.MatchRecord
	deliveries []model.DeliveryEntry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*model.MatchRecord),
	}
}

// copyRecord detaches a record from the caller so later engine commands
// cannot reach into the store.
func copyRecord(m *model.MatchRecord) *model.MatchRecord {
	c := *m
	c.State = m.State.Clone()
	return &c
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; ok {
		return fmt.Errorf("create match %s: %w", m.ID, ErrExists)
	}
	s.matches[m.ID] = copyRecord(m)
	return nil
}

func (s *MemoryStore) SaveMatch(_ context.Context, m *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyRecord(m)
	if existing, ok := s.matches[m.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	s.matches[m.ID] = c
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("get match %s: %w", id, ErrNotFound)
	}
	return copyRecord(m), nil
}

func (s *MemoryStore) ListMatches(_ context.Context) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.MatchRecord, 0, len(s.matches))
	for _, m := range s.matches {
		c := *m
		c.State = nil
		matches = append(matches, c)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return fmt.Errorf("delete match %s: %w", id, ErrNotFound)
	}
	delete(s.matches, id)

	kept := s.deliveries[:0]
	for _, e := range s.deliveries {
		if e.MatchID != id {
			kept = append(kept, e)
		}
	}
	s.deliveries = kept
	return nil
}

func (s *MemoryStore) InsertDelivery(_ context.Context, e *model.DeliveryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deliveries = append(s.deliveries, *e)
	return nil
}

func (s *MemoryStore) GetDeliveries(_ context.Context, matchID string) ([]model.DeliveryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.DeliveryEntry
	for _, e := range s.deliveries {
		if e.MatchID == matchID {
			result = append(result, e)
		}
	}
	return result, nil
}
