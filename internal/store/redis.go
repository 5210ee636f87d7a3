package store

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/crease/match-engine/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache.
// Snapshot writes go to the primary store and then refresh the cache;
// ledger writes invalidate the cached ledger. Reads check Redis first and
// fall back to the primary. Cache errors never fail a call.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) CreateMatch(ctx context.Context, m *model.MatchRecord) error {
	if err := s.primary.CreateMatch(ctx, m); err != nil {
		return err
	}
	s.cacheMatch(ctx, m)
	return nil
}

func (s *CachedStore) SaveMatch(ctx context.Context, m *model.MatchRecord) error {
	if err := s.primary.SaveMatch(ctx, m); err != nil {
		return err
	}
	// CreatedAt on m may not be the stored one, so re-read on next get.
	s.rdb.Del(ctx, matchKey(m.ID))
	return nil
}

func (s *CachedStore) DeleteMatch(ctx context.Context, id string) error {
	if err := s.primary.DeleteMatch(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, matchKey(id), deliveriesKey(id))
	return nil
}

func (s *CachedStore) InsertDelivery(ctx context.Context, e *model.DeliveryEntry) error {
	if err := s.primary.InsertDelivery(ctx, e); err != nil {
		return err
	}
	s.rdb.Del(ctx, deliveriesKey(e.MatchID))
	return nil
}

// --- Read-through ---

func (s *CachedStore) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	data, err := s.rdb.Get(ctx, matchKey(id)).Bytes()
	if err == nil {
		var m model.MatchRecord
		if json.Unmarshal(data, &m) == nil && m.State != nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheMatch(ctx, m)
	return m, nil
}

func (s *CachedStore) GetDeliveries(ctx context.Context, matchID string) ([]model.DeliveryEntry, error) {
	data, err := s.rdb.Get(ctx, deliveriesKey(matchID)).Bytes()
	if err == nil {
		var entries []model.DeliveryEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.GetDeliveries(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, deliveriesKey(matchID), data, s.ttl)
	}
	return entries, nil
}

// --- Passthrough ---

func (s *CachedStore) ListMatches(ctx context.Context) ([]model.MatchRecord, error) {
	return s.primary.ListMatches(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheMatch(ctx context.Context, m *model.MatchRecord) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, matchKey(m.ID), data, s.ttl)
	}
}

func matchKey(id string) string      { return fmt.Sprintf("match:%s", id) }
func deliveriesKey(id string) string { return fmt.Sprintf("deliveries:%s", id) }
