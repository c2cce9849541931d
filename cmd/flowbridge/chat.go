package main

import (
	"github.com/awantoch/flowbridge/agent"
	"github.com/awantoch/flowbridge/api"
	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/storage"
	"github.com/awantoch/flowbridge/telegram"
	"github.com/awantoch/flowbridge/utils"
	"github.com/awantoch/flowbridge/weather"
)

// chat is the Telegram side of the process: Bot API client, agent router and
// the session store behind it.
type chat struct {
	client   *telegram.Client
	bot      *telegram.Bot
	sessions storage.SessionStore
}

func newChat(cfg *config.Config, svc *api.Service) (*chat, error) {
	sessions, err := storage.NewSessionStoreFromConfig(cfg.Sessions)
	if err != nil {
		return nil, err
	}

	var llm agent.LLM
	if client := agent.NewOpenAIClient(cfg.LLM); client.Configured() {
		llm = client
	} else {
		utils.Warn("LLM API key not set, routing by keywords only")
	}

	router := agent.NewRouter(llm, sessions, cfg.Sessions.MaxHistory,
		agent.NewWeatherAgent(weather.NewClient(cfg.Weather)),
		agent.NewWorkflowAgent(svc.N8N),
		agent.NewJokeAgent(llm),
	)
	client := telegram.NewClient(cfg.Telegram)
	return &chat{
		client:   client,
		bot:      telegram.NewBot(client, router),
		sessions: sessions,
	}, nil
}

func (c *chat) Close() error {
	return c.sessions.Close()
}
