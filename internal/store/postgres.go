package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crease/match-engine/internal/model"
)

// PostgresSchema creates the tables PostgresStore needs.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS deliveries (
	id          TEXT PRIMARY KEY,
	match_id    TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	kind        TEXT NOT NULL,
	innings     INT NOT NULL,
	over_no     INT NOT NULL,
	ball_no     INT NOT NULL,
	outcome     TEXT NOT NULL,
	runs        INT NOT NULL,
	is_wicket   BOOLEAN NOT NULL,
	bowler      TEXT NOT NULL,
	batter      TEXT NOT NULL,
	score       INT NOT NULL,
	wickets     INT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS deliveries_match_idx ON deliveries (match_id, recorded_at);
`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Snapshots are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, PostgresSchema)
	return err
}

func (s *PostgresStore) CreateMatch(ctx context.Context, m *model.MatchRecord) error {
	state, err := encodeState(m.State)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO matches (id, title, status, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::JSONB, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		m.ID, m.Title, m.Status, string(state), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("create match %s: %w", m.ID, ErrExists)
	}
	return nil
}

func (s *PostgresStore) SaveMatch(ctx context.Context, m *model.MatchRecord) error {
	state, err := encodeState(m.State)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO matches (id, title, status, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::JSONB, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, status = EXCLUDED.status,
		     state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		m.ID, m.Title, m.Status, string(state), m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	var m model.MatchRecord
	var state string

	err := s.pool.QueryRow(ctx,
		`SELECT id, title, status, state::TEXT, created_at, updated_at
		 FROM matches WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.Status, &state, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}

	if m.State, err = decodeState([]byte(state)); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context) ([]model.MatchRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, status, created_at, updated_at
		 FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []model.MatchRecord
	for rows.Next() {
		var m model.MatchRecord
		if err := rows.Scan(&m.ID, &m.Title, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete match %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) InsertDelivery(ctx context.Context, e *model.DeliveryEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO deliveries (id, match_id, kind, innings, over_no, ball_no, outcome, runs,
		                         is_wicket, bowler, batter, score, wickets, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.MatchID, e.Kind, e.Innings, e.Over, e.Ball, e.Outcome, e.Runs,
		e.IsWicket, e.Bowler, e.Batter, e.Score, e.Wickets, e.RecordedAt,
	)
	return err
}

func (s *PostgresStore) GetDeliveries(ctx context.Context, matchID string) ([]model.DeliveryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, match_id, kind, innings, over_no, ball_no, outcome, runs,
		        is_wicket, bowler, batter, score, wickets, recorded_at
		 FROM deliveries WHERE match_id = $1 ORDER BY recorded_at, id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// rowScanner is the subset of pgx.Rows and *sql.Rows the ledger scan needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanDeliveries(rows rowScanner) ([]model.DeliveryEntry, error) {
	var entries []model.DeliveryEntry
	for rows.Next() {
		var e model.DeliveryEntry
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Kind, &e.Innings, &e.Over, &e.Ball, &e.Outcome, &e.Runs,
			&e.IsWicket, &e.Bowler, &e.Batter, &e.Score, &e.Wickets, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
