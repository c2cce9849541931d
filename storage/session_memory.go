package storage

import (
	"context"
	"sync"
)

// MemorySessionStore keeps history in process memory (for fallback/dev mode).
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]Message
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]Message)}
}

func (m *MemorySessionStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], stamp(msgs)...)
	return nil
}

func (m *MemorySessionStore) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tail(m.sessions[sessionID], limit), nil
}

func (m *MemorySessionStore) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemorySessionStore) Close() error { return nil }
