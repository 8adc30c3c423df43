package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5000

// Store wraps the SQLite handle holding local client state: the saved login,
// the cached room directory, and the last selected room. The message log is
// never written here.
type Store struct {
	db *sql.DB
}

// SavedSession is the persisted login. The raw token is kept so the client
// can resume without prompting; the decoded fields are cached alongside it.
type SavedSession struct {
	Token       string
	UserID      string
	DisplayName string
	Admin       bool
	SavedAt     time.Time
}

// CachedRoom mirrors one directory entry for offline fallback.
type CachedRoom struct {
	ID   string
	Name string
}

// NewStore initializes the SQLite database at the provided path. Call Close when done.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "electrocord.db"
	}
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d&_pragma=foreign_keys=ON", path, separator, defaultBusyTimeout)
}

// Migrate runs the schema creation statements.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS saved_session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveSession replaces the single saved login row.
func (s *Store) SaveSession(ctx context.Context, session SavedSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_session(id, token, user_id, display_name, is_admin)
		VALUES(1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token=excluded.token,
			user_id=excluded.user_id,
			display_name=excluded.display_name,
			is_admin=excluded.is_admin,
			saved_at=CURRENT_TIMESTAMP
	`, session.Token, session.UserID, session.DisplayName, boolToInt(session.Admin))
	return err
}

// LoadSession returns the saved login, or nil when none exists.
func (s *Store) LoadSession(ctx context.Context) (*SavedSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token, user_id, display_name, is_admin, saved_at FROM saved_session WHERE id = 1`)
	var session SavedSession
	var admin int
	if err := row.Scan(&session.Token, &session.UserID, &session.DisplayName, &admin, &session.SavedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	session.Admin = admin != 0
	return &session, nil
}

// ClearSession removes the saved login (used for logout).
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_session WHERE id = 1`)
	return err
}

// ReplaceRooms swaps the cached room directory for a fresh fetch, keeping
// the server's order.
func (s *Store) ReplaceRooms(ctx context.Context, rooms []CachedRoom) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return err
	}
	for i, room := range rooms {
		if _, err = tx.ExecContext(ctx, `INSERT INTO rooms(id, name, position) VALUES(?, ?, ?)`, room.ID, room.Name, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRooms returns the cached directory in its original order.
func (s *Store) ListRooms(ctx context.Context) ([]CachedRoom, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM rooms ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []CachedRoom
	for rows.Next() {
		var room CachedRoom
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// SetLastRoom records the most recently selected room id.
func (s *Store) SetLastRoom(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs(key, value) VALUES('last_room', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, roomID)
	return err
}

// LastRoom returns the most recently selected room id, or "" when unset.
func (s *Store) LastRoom(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = 'last_room'`)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
