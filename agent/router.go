package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/awantoch/flowbridge/storage"
	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

// HelpAgentName labels replies given when no agent matched.
const HelpAgentName = "help"

// Router picks one sub-agent per message. With an LLM it asks the model
// first and falls back to keyword matching when the model fails or names an
// unknown agent.
type Router struct {
	agents     []Agent
	llm        LLM
	sessions   storage.SessionStore
	maxHistory int
}

// NewRouter builds a router. llm may be nil. Agents are tried in order by
// the keyword fallback.
func NewRouter(llm LLM, sessions storage.SessionStore, maxHistory int, agents ...Agent) *Router {
	if sessions == nil {
		sessions = storage.NewMemorySessionStore()
	}
	return &Router{agents: agents, llm: llm, sessions: sessions, maxHistory: maxHistory}
}

func (r *Router) Agents() []Agent { return r.agents }

func (r *Router) agent(name string) Agent {
	for _, a := range r.agents {
		if strings.EqualFold(a.Name(), name) {
			return a
		}
	}
	return nil
}

func (r *Router) agentList() []map[string]string {
	out := make([]map[string]string, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, map[string]string{"name": a.Name(), "description": a.Description()})
	}
	return out
}

// Route returns the agent for text, or nil when nothing fits.
func (r *Router) Route(ctx context.Context, text string) Agent {
	if r.llm != nil {
		if a := r.routeWithLLM(ctx, text); a != nil {
			return a
		}
	}
	for _, a := range r.agents {
		if m, ok := a.(Matcher); ok && m.Matches(text) {
			return a
		}
	}
	return nil
}

func (r *Router) routeWithLLM(ctx context.Context, text string) Agent {
	prompt, err := render("routing", map[string]any{"agents": r.agentList(), "message": text})
	if err != nil {
		utils.WarnCtx(ctx, "routing prompt failed", "error", err)
		return nil
	}
	answer, err := r.llm.Complete(ctx, []storage.Message{{Role: storage.RoleUser, Content: prompt}})
	if err != nil {
		utils.DebugCtx(ctx, "LLM routing unavailable, using keywords", "error", err)
		return nil
	}
	name := strings.Trim(strings.ToLower(strings.TrimSpace(answer)), `."'`+"`")
	return r.agent(name)
}

// Help lists the agents and the chat commands.
func (r *Router) Help() string {
	text, err := render("help", map[string]any{"agents": r.agentList()})
	if err != nil {
		return "Commands: /start, /help, /reset"
	}
	return text
}

// Handle routes text for a session, runs the chosen agent and records the
// exchange in the session history.
func (r *Router) Handle(ctx context.Context, sessionID, text string) (Response, error) {
	history, err := r.sessions.History(ctx, sessionID, r.maxHistory)
	if err != nil {
		utils.WarnCtx(ctx, "failed to load session history", "session", sessionID, "error", err)
		history = nil
	}

	a := r.Route(ctx, text)
	var resp Response
	if a == nil {
		resp = Response{Agent: HelpAgentName, Text: "Sorry, I'm not sure what you mean.\n\n" + r.Help()}
	} else {
		resp, err = a.Handle(ctx, Request{SessionID: sessionID, Text: text, History: history})
		if err != nil {
			return Response{}, fmt.Errorf("%s agent: %w", a.Name(), err)
		}
		resp.Agent = a.Name()
	}
	telemetry.ObserveAgentRoute(resp.Agent)
	utils.DebugCtx(ctx, "message routed", "session", sessionID, "agent", resp.Agent)

	if err := r.sessions.Append(ctx, sessionID,
		storage.Message{Role: storage.RoleUser, Content: text},
		storage.Message{Role: storage.RoleAssistant, Content: resp.Text},
	); err != nil {
		utils.WarnCtx(ctx, "failed to record session history", "session", sessionID, "error", err)
	}
	return resp, nil
}

// Reset forgets the session history.
func (r *Router) Reset(ctx context.Context, sessionID string) error {
	return r.sessions.Reset(ctx, sessionID)
}
