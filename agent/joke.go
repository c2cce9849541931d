package agent

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/awantoch/flowbridge/storage"
	"github.com/awantoch/flowbridge/utils"
)

var fallbackJokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I told my computer I needed a break, and it said: no problem, I'll go to sleep.",
	"Why did the workflow break up with the cron job? It needed more space between triggers.",
	"There are 10 kinds of people: those who understand binary and those who don't.",
	"Why was the JSON so calm? It had nothing to hide, just key-value pairs.",
	"A SQL query walks into a bar, goes up to two tables and asks: can I join you?",
}

var jokeTopic = regexp.MustCompile(`(?i)\babout\s+(.+?)[?.!]*$`)

// JokeAgent tells jokes, written by the LLM when one is available.
type JokeAgent struct {
	llm  LLM
	pick func(n int) int
}

func NewJokeAgent(llm LLM) *JokeAgent {
	return &JokeAgent{llm: llm, pick: rand.IntN}
}

func (j *JokeAgent) Name() string        { return "joke" }
func (j *JokeAgent) Description() string { return "tells a joke, optionally about a topic" }

func (j *JokeAgent) Matches(text string) bool {
	return containsAny(text, "joke", "funny", "laugh", "pun")
}

func (j *JokeAgent) Handle(ctx context.Context, req Request) (Response, error) {
	if j.llm != nil {
		topic := ""
		if m := jokeTopic.FindStringSubmatch(strings.TrimSpace(req.Text)); m != nil {
			topic = m[1]
		}
		prompt, err := render("joke", map[string]any{"topic": topic})
		if err == nil {
			msgs := append([]storage.Message{{Role: storage.RoleSystem, Content: prompt}}, req.History...)
			msgs = append(msgs, storage.Message{Role: storage.RoleUser, Content: req.Text})
			joke, err := j.llm.Complete(ctx, msgs)
			if err == nil && joke != "" {
				return Response{Text: joke}, nil
			}
			utils.DebugCtx(ctx, "LLM joke unavailable, using built-in list", "error", err)
		}
	}
	return Response{Text: fallbackJokes[j.pick(len(fallbackJokes))]}, nil
}
