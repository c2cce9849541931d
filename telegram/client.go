// Package telegram talks to the Telegram Bot API and feeds incoming updates
// through the event bus to the chat agent.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/utils"
)

const (
	DefaultTimeout = 15 * time.Second
	// MaxMessageLength is the Bot API limit for one text message, counted in
	// UTF-16 code units.
	MaxMessageLength = 4096
)

var ErrNotConfigured = errors.New("telegram bot token not configured")

// APIError is a Bot API reply with ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error (%d): %s", e.Code, e.Description)
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// NewClient builds a Bot API client. Request deadlines come from the
// context, so long polls are not cut short by a client timeout.
func NewClient(cfg config.TelegramConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultTelegramBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool { return c.token != "" }

// call posts params to a Bot API method. wait extends the request deadline
// for long polling.
func (c *Client) call(ctx context.Context, method string, params, out any, wait time.Duration) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout+wait)
	defer cancel()

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The token is part of the URL; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}
	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode telegram response (%d): %w", resp.StatusCode, err)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Code: code, Description: envelope.Description}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// GetUpdates long-polls for updates with an id of at least offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSec,
		"allowed_updates": []string{"message", "edited_message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates, time.Duration(timeoutSec)*time.Second); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat, split into several messages when it is
// longer than MaxMessageLength. The last sent message is returned.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*Message, error) {
	var last Message
	for _, chunk := range splitMessage(text, MaxMessageLength) {
		params := map[string]any{"chat_id": chatID, "text": chunk}
		if err := c.call(ctx, "sendMessage", params, &last, 0); err != nil {
			return nil, err
		}
	}
	utils.DebugCtx(ctx, "telegram message sent", "chat", chatID, "length", len(text))
	return &last, nil
}

// SetWebhook registers url with Telegram. secret is echoed back in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	params := map[string]any{"url": webhookURL, "allowed_updates": []string{"message", "edited_message"}}
	if secret != "" {
		params["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", params, nil, 0)
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil, 0)
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring line breaks in the second half of a chunk.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		units, end, lineEnd := 0, 0, 0
		for end < len(runes) {
			n := utf16.RuneLen(runes[end])
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				break
			}
			units += n
			end++
			if runes[end-1] == '\n' && units > limit/2 {
				lineEnd = end
			}
		}
		if end == len(runes) {
			chunks = append(chunks, string(runes))
			break
		}
		switch {
		case lineEnd > 0:
			end = lineEnd
		case end == 0:
			end = 1
		}
		chunks = append(chunks, string(runes[:end]))
		runes = runes[end:]
	}
	if chunks == nil {
		return []string{text}
	}
	return chunks
}
