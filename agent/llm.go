package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/storage"
	"github.com/awantoch/flowbridge/utils"
)

var ErrLLMNotConfigured = errors.New("LLM API key not configured")

// LLM completes a chat conversation.
type LLM interface {
	Complete(ctx context.Context, messages []storage.Message) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	httpClient  *http.Client
}

type OpenAIOption func(*OpenAIClient)

func WithLLMHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAIClient) { o.httpClient = c }
}

func WithTemperature(t float64) OpenAIOption {
	return func(o *OpenAIClient) { o.temperature = &t }
}

func NewOpenAIClient(cfg config.LLMConfig, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultOpenAIBaseURL
	}
	if c.model == "" {
		c.model = config.DefaultOpenAIModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

func (c *OpenAIClient) Complete(ctx context.Context, messages []storage.Message) (string, error) {
	if !c.Configured() {
		return "", ErrLLMNotConfigured
	}
	if len(messages) == 0 {
		return "", errors.New("at least one message is required")
	}
	req := chatRequest{Model: c.model, Temperature: c.temperature}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	httpReq.Header.Set(constants.HeaderAuthorization, "Bearer "+c.apiKey)

	utils.DebugCtx(ctx, "chat completion request", "model", c.model, "messages", len(req.Messages))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read LLM response: %w", err)
	}
	var out chatResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", fmt.Errorf("LLM API error (%d): %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("LLM API error: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
