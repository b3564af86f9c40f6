package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cameronmore/session-gate/sessions"
	_ "github.com/mattn/go-sqlite3"
)

// An in-memory SQLite database shared by every connection of the pool.
const DefaultSQLiteDSN = "file:sessions?mode=memory&cache=shared"

type SQLiteSessionStore struct {
	DB  *sql.DB
	now func() time.Time
}

// Opens dsn with the sqlite3 driver and returns a store over it.
func OpenSQLiteSessionStore(ctx context.Context, dsn string) (*SQLiteSessionStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", dsn, err)
	}
	// one connection: keeps the in-memory database alive and avoids shared-cache table locks
	db.SetMaxOpenConns(1)
	store, err := NewSQLiteSessionStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Returns a new SQLite session store and creates the sessions table if it doesn't exist
func NewSQLiteSessionStore(ctx context.Context, db *sql.DB) (*SQLiteSessionStore, error) {
	newSessionTableQuery := `
	CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	attributes TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL -- Unix timestamp (nanoseconds), 0 for never
	);
	`
	_, err := db.ExecContext(ctx, newSessionTableQuery)
	if err != nil {
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &SQLiteSessionStore{
		DB:  db,
		now: time.Now,
	}, nil
}

func (s *SQLiteSessionStore) SaveSession(ctx context.Context, session sessions.Session) error {
	if session.Id == "" {
		return sessions.ErrEmptySessionId
	}
	attributes := session.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		return err
	}

	upsertSessionQuery := `
		INSERT INTO sessions (id, attributes, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		attributes = excluded.attributes,
		expires_at = excluded.expires_at
		`
	_, err = s.DB.ExecContext(ctx, upsertSessionQuery,
		string(session.Id), string(encoded), toUnixNano(session.CreatedAt), toUnixNano(session.ExpiresAt))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) LoadSessionById(ctx context.Context, id sessions.SessionId) (sessions.Session, error) {
	var (
		encoded              string
		createdAt, expiresAt int64
	)
	query := `SELECT attributes, created_at, expires_at FROM sessions WHERE id = ?`
	err := s.DB.QueryRowContext(ctx, query, string(id)).Scan(&encoded, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sessions.Session{}, sessions.ErrSessionNotFound
	} else if err != nil {
		return sessions.Session{}, fmt.Errorf("loading session: %w", err)
	}

	session := sessions.Session{
		Id:        id,
		CreatedAt: fromUnixNano(createdAt),
		ExpiresAt: fromUnixNano(expiresAt),
	}
	if err := json.Unmarshal([]byte(encoded), &session.Attributes); err != nil {
		return sessions.Session{}, fmt.Errorf("decoding session attributes: %w", err)
	}

	if session.Expired(s.now()) {
		if err := s.DeleteSessionById(ctx, id); err != nil {
			return sessions.Session{}, err
		}
		return sessions.Session{}, sessions.ErrSessionExpired
	}
	return session, nil
}

// DeleteSessionById is idempotent: removing a missing row is not an error.
func (s *SQLiteSessionStore) DeleteSessionById(ctx context.Context, id sessions.SessionId) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <> 0 AND expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// A zero time is stored as 0, which reads back as a session that never expires.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *SQLiteSessionStore) Close() error {
	return s.DB.Close()
}

var _ sessions.SessionStore = (*SQLiteSessionStore)(nil)
