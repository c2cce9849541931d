package storage

import (
	"context"
	"time"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/utils"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of an agent conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore keeps conversation history per session (one Telegram chat).
type SessionStore interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	// History returns the last limit messages, oldest first. A limit of zero
	// or less returns everything.
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	Reset(ctx context.Context, sessionID string) error
	Close() error
}

// NewSessionStoreFromConfig returns the session store selected by cfg.Driver.
func NewSessionStoreFromConfig(cfg config.SessionConfig) (SessionStore, error) {
	switch cfg.Driver {
	case "", constants.StorageDriverMemory:
		return NewMemorySessionStore(), nil
	case constants.StorageDriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = config.DefaultSQLiteDSN
		}
		return NewSqliteSessionStore(dsn)
	case constants.StorageDriverPostgres:
		return NewPostgresSessionStore(cfg.DSN)
	}
	return nil, utils.Errorf("unsupported session driver: %s", cfg.Driver)
}

func stamp(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now()
		}
		// Millisecond precision is what the SQL drivers keep.
		m.CreatedAt = m.CreatedAt.Truncate(time.Millisecond).UTC()
		out[i] = m
	}
	return out
}

func tail(msgs []Message, limit int) []Message {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
