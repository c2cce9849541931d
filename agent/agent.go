// Package agent routes chat messages to sub-agents (jokes, weather, n8n
// workflows) and keeps per-session conversation history.
package agent

import (
	"context"
	"strings"

	"github.com/awantoch/flowbridge/storage"
)

// Request is one incoming chat message.
type Request struct {
	SessionID string
	Text      string
	// History holds earlier turns of the session, oldest first.
	History []storage.Message
}

// Response is an agent's reply.
type Response struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

type Agent interface {
	Name() string
	Description() string
	Handle(ctx context.Context, req Request) (Response, error)
}

// Matcher is implemented by agents that can claim a message by keywords when
// no model is available to route it.
type Matcher interface {
	Matches(text string) bool
}

func containsAny(text string, words ...string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
