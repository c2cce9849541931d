package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/awantoch/flowbridge/agent"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/utils"
)

// Sender delivers replies.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) (*Message, error)
}

// Router answers chat messages; *agent.Router implements it.
type Router interface {
	Handle(ctx context.Context, sessionID, text string) (agent.Response, error)
	Reset(ctx context.Context, sessionID string) error
	Help() string
}

const (
	replyReset   = "Conversation history cleared."
	replyFailure = "Sorry, something went wrong while handling your message."
)

// Bot consumes updates from the event bus and replies through Telegram.
type Bot struct {
	sender Sender
	router Router
}

func NewBot(sender Sender, router Router) *Bot {
	return &Bot{sender: sender, router: router}
}

// Start subscribes the bot to the update topic. Updates are handled until
// ctx is cancelled.
func (b *Bot) Start(ctx context.Context, bus event.EventBus) error {
	return bus.Subscribe(ctx, constants.TopicTelegramUpdate, b.HandleUpdate)
}

// HandleUpdate processes one JSON encoded update.
func (b *Bot) HandleUpdate(ctx context.Context, payload []byte) error {
	var u Update
	if err := json.Unmarshal(payload, &u); err != nil {
		return fmt.Errorf("decode telegram update: %w", err)
	}
	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	ctx = utils.EnsureRequestID(ctx)
	sessionID := strconv.FormatInt(msg.Chat.ID, 10)
	utils.DebugCtx(ctx, "telegram message received", "chat", msg.Chat.ID, "update", u.UpdateID)

	reply := b.reply(ctx, sessionID, strings.TrimSpace(msg.Text), msg.From)
	if _, err := b.sender.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		return fmt.Errorf("reply to chat %d: %w", msg.Chat.ID, err)
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, sessionID, text string, from *User) string {
	if strings.HasPrefix(text, "/") {
		command := strings.Fields(text)[0]
		// "/help@my_bot" in group chats
		command, _, _ = strings.Cut(command, "@")
		switch command {
		case "/start":
			name := "there"
			if from != nil && from.FirstName != "" {
				name = from.FirstName
			}
			return fmt.Sprintf("Hello %s!\n\n%s", name, b.router.Help())
		case "/help":
			return b.router.Help()
		case "/reset":
			if err := b.router.Reset(ctx, sessionID); err != nil {
				utils.ErrorCtx(ctx, "failed to reset session", "session", sessionID, "error", err)
				return replyFailure
			}
			return replyReset
		}
	}

	resp, err := b.router.Handle(ctx, sessionID, text)
	if err != nil {
		utils.ErrorCtx(ctx, "agent failed", "session", sessionID, "error", err)
		return replyFailure
	}
	utils.InfoCtx(ctx, "chat message answered", "session", sessionID, "agent", resp.Agent)
	return resp.Text
}
