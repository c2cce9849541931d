package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awantoch/flowbridge/utils"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		schema: `
CREATE TABLE IF NOT EXISTS session_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id, id);
`,
	}
	postgresDialect = dialect{
		driver: "postgres",
		schema: `
CREATE TABLE IF NOT EXISTS session_messages (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id, id);
`,
	}
)

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLSessionStore implements SessionStore on SQLite or Postgres.
type SQLSessionStore struct {
	db      *sql.DB
	dialect dialect
}

var _ SessionStore = (*SQLSessionStore)(nil)

// NewSqliteSessionStore opens (and creates) the database file at dsn.
func NewSqliteSessionStore(dsn string) (*SQLSessionStore, error) {
	// Only create parent directories if not using in-memory SQLite (":memory:").
	if dsn != ":memory:" && dsn != "" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, utils.Errorf("failed to create db directory %q: %w", dir, err)
		}
	}
	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)
	return newSQLSessionStore(db, sqliteDialect)
}

func NewPostgresSessionStore(dsn string) (*SQLSessionStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, utils.Errorf("failed to connect to postgres: %w", err)
	}
	return newSQLSessionStore(db, postgresDialect)
}

func newSQLSessionStore(db *sql.DB, d dialect) (*SQLSessionStore, error) {
	for _, stmt := range strings.Split(d.schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create session schema: %w", err)
		}
	}
	return &SQLSessionStore{db: db, dialect: d}, nil
}

func (s *SQLSessionStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	query := s.dialect.rebind(`INSERT INTO session_messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`)
	for _, m := range stamp(msgs) {
		if _, err := tx.ExecContext(ctx, query, sessionID, m.Role, m.Content, m.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLSessionStore) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `SELECT role, content, created_at FROM session_messages WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var created int64
		if err := rows.Scan(&m.Role, &m.Content, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rows come newest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLSessionStore) Reset(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM session_messages WHERE session_id = ?`), sessionID)
	return err
}

func (s *SQLSessionStore) Close() error {
	return s.db.Close()
}
