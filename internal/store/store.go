// Package store defines the persistence interface for match snapshots and
// the delivery ledger. Implementations include PostgreSQL, SQLite/libSQL,
// a Redis read-through cache, and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/crease/match-engine/internal/model"
)

var (
	ErrNotFound = errors.New("store: match not found")
	ErrExists   = errors.New("store: match already exists")
)

// Store is the persistence interface. Snapshots are replaced whole on
// every save; the delivery ledger is append-only.
type Store interface {
	// --- Match snapshots ---

	// CreateMatch persists a new match. Fails with ErrExists if the ID is
	// taken.
	CreateMatch(ctx context.Context, m *model.MatchRecord) error

	// SaveMatch inserts or replaces the snapshot of a match.
	SaveMatch(ctx context.Context, m *model.MatchRecord) error

	// GetMatch retrieves a match with its full state.
	GetMatch(ctx context.Context, id string) (*model.MatchRecord, error)

	// ListMatches returns all matches, newest first, without state.
	ListMatches(ctx context.Context) ([]model.MatchRecord, error)

	// DeleteMatch removes a match and its ledger.
	DeleteMatch(ctx context.Context, id string) error

	// --- Immutable ledger ---

	// InsertDelivery appends a ledger row.
	InsertDelivery(ctx context.Context, e *model.DeliveryEntry) error

	// GetDeliveries returns a match's ledger in recording order.
	GetDeliveries(ctx context.Context, matchID string) ([]model.DeliveryEntry, error)
}
