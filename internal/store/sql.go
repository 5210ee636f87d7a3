package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // registers "libsql"
	_ "modernc.org/sqlite"                               // registers "sqlite"

	"github.com/crease/match-engine/internal/model"
)

// SQLiteSchema creates the tables SQLStore needs. Timestamps are unix
// milliseconds so that every SQLite driver round-trips them the same way.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS deliveries (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	match_id    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	innings     INTEGER NOT NULL,
	over_no     INTEGER NOT NULL,
	ball_no     INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	runs        INTEGER NOT NULL,
	is_wicket   INTEGER NOT NULL,
	bowler      TEXT NOT NULL,
	batter      TEXT NOT NULL,
	score       INTEGER NOT NULL,
	wickets     INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS deliveries_match_idx ON deliveries (match_id, seq);
`

// SQLStore implements Store over database/sql for SQLite dialects: a
// local file through modernc.org/sqlite or a remote Turso/libSQL database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open SQLite-dialect database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLite opens (creating if needed) a local SQLite database file and
// applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	return openSQL(ctx, db)
}

// OpenLibSQL connects to a Turso/libSQL database and applies the schema.
func OpenLibSQL(ctx context.Context, dbURL, authToken string) (*SQLStore, error) {
	dsn := dbURL
	if authToken != "" {
		u, err := url.Parse(dbURL)
		if err != nil {
			return nil, fmt.Errorf("parse libsql url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	return openSQL(ctx, db)
}

func openSQL(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CreateMatch(ctx context.Context, m *model.MatchRecord) error {
	state, err := encodeState(m.State)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (id, title, status, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		m.ID, m.Title, string(m.Status), string(state), m.CreatedAt.UnixMilli(), m.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("create match %s: %w", m.ID, ErrExists)
	}
	return nil
}

func (s *SQLStore) SaveMatch(ctx context.Context, m *model.MatchRecord) error {
	state, err := encodeState(m.State)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, title, status, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE
		 SET title = excluded.title, status = excluded.status,
		     state = excluded.state, updated_at = excluded.updated_at`,
		m.ID, m.Title, string(m.Status), string(state), m.CreatedAt.UnixMilli(), m.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLStore) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	var (
		m                model.MatchRecord
		status, state    string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, status, state, created_at, updated_at
		 FROM matches WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &status, &state, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}

	m.Status = model.MatchStatus(status)
	m.CreatedAt = time.UnixMilli(created).UTC()
	m.UpdatedAt = time.UnixMilli(updated).UTC()
	if m.State, err = decodeState([]byte(state)); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLStore) ListMatches(ctx context.Context) ([]model.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, created_at, updated_at
		 FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []model.MatchRecord
	for rows.Next() {
		var (
			m                model.MatchRecord
			status           string
			created, updated int64
		)
		if err := rows.Scan(&m.ID, &m.Title, &status, &created, &updated); err != nil {
			return nil, err
		}
		m.Status = model.MatchStatus(status)
		m.CreatedAt = time.UnixMilli(created).UTC()
		m.UpdatedAt = time.UnixMilli(updated).UTC()
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *SQLStore) DeleteMatch(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete match %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE match_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) InsertDelivery(ctx context.Context, e *model.DeliveryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, match_id, kind, innings, over_no, ball_no, outcome, runs,
		                         is_wicket, bowler, batter, score, wickets, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MatchID, string(e.Kind), e.Innings, e.Over, e.Ball, e.Outcome, e.Runs,
		e.IsWicket, e.Bowler, e.Batter, e.Score, e.Wickets, e.RecordedAt.UnixMilli(),
	)
	return err
}

func (s *SQLStore) GetDeliveries(ctx context.Context, matchID string) ([]model.DeliveryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, kind, innings, over_no, ball_no, outcome, runs,
		        is_wicket, bowler, batter, score, wickets, recorded_at
		 FROM deliveries WHERE match_id = ? ORDER BY seq`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.DeliveryEntry
	for rows.Next() {
		var (
			e        model.DeliveryEntry
			kind     string
			recorded int64
		)
		if err := rows.Scan(&e.ID, &e.MatchID, &kind, &e.Innings, &e.Over, &e.Ball, &e.Outcome, &e.Runs,
			&e.IsWicket, &e.Bowler, &e.Batter, &e.Score, &e.Wickets, &recorded); err != nil {
			return nil, err
		}
		e.Kind = model.LedgerKind(kind)
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
