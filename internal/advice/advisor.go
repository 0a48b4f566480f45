package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	gosync "sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("advice: no API key configured (set ANTHROPIC_API_KEY)")

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Config holds the inputs for creating an Advisor.
type Config struct {
	APIKey     string
	BaseURL    string // empty uses the SDK default
	Model      string
	MaxTokens  int
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Advisor sends conversations to the Messages API. Model and token limit can
// change between calls (see Configure); everything else is fixed at New.
type Advisor struct {
	client anthropic.Client
	logger *slog.Logger

	mu        gosync.Mutex
	model     string
	maxTokens int64
}

// New returns an Advisor for cfg.
func New(cfg Config) (*Advisor, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Advisor{
		client: anthropic.NewClient(opts...),
		logger: logger,
	}
	a.Configure(cfg.Model, cfg.MaxTokens)

	return a, nil
}

// Configure replaces the model and token limit used by later calls. Zero
// values keep the current setting.
func (a *Advisor) Configure(model string, maxTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if model != "" {
		a.model = model
	}

	if maxTokens > 0 {
		a.maxTokens = int64(maxTokens)
	}
}

func (a *Advisor) settings() (string, int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.model, a.maxTokens
}

// Ask sends system and history and returns the reply text. history must end
// with a user turn. Errors carry a message suitable for showing the rider.
func (a *Advisor) Ask(ctx context.Context, system string, history []Turn) (string, error) {
	if len(history) == 0 || history[len(history)-1].Role != RoleUser {
		return "", errors.New("advice: conversation must end with a question")
	}

	model, maxTokens := a.settings()

	msgs := make([]anthropic.MessageParam, 0, len(history))
	for _, t := range history {
		block := anthropic.NewTextBlock(t.Text)

		if t.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  msgs,
	})
	if err != nil {
		a.logger.Warn("advice request failed", slog.String("model", model), slog.String("error", err.Error()))
		return "", fmt.Errorf("advice: %s: %w", DescribeError(err), err)
	}

	var reply strings.Builder

	for _, block := range msg.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	a.logger.Debug("advice received",
		slog.String("model", string(msg.Model)),
		slog.Int64("input_tokens", msg.Usage.InputTokens),
		slog.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	if reply.Len() == 0 {
		return "", errors.New("advice: the model returned no text")
	}

	return reply.String(), nil
}

// DescribeError turns a failed request into a short explanation.
func DescribeError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return "could not reach the advice service"
	}

	switch code := apiErr.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "the API key was rejected"
	case code == http.StatusTooManyRequests:
		return "rate limited, try again shortly"
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return "the request was rejected (check the configured model)"
	case code >= http.StatusInternalServerError:
		return "the advice service is unavailable"
	default:
		return fmt.Sprintf("unexpected response (HTTP %d)", code)
	}
}

// Conversation keeps the history of one chat. The system prompt is rebuilt
// for every question so that it reflects the latest log.
type Conversation struct {
	advisor *Advisor
	system  func() string
	history []Turn
}

// NewConversation starts an empty chat.
func NewConversation(a *Advisor, system func() string) *Conversation {
	return &Conversation{advisor: a, system: system}
}

// Send asks question and records both sides of the exchange. A failed
// request leaves the history unchanged, so the question can be retried.
func (c *Conversation) Send(ctx context.Context, question string) (string, error) {
	history := append(c.history[:len(c.history):len(c.history)], Turn{Role: RoleUser, Text: question})

	reply, err := c.advisor.Ask(ctx, c.system(), history)
	if err != nil {
		return "", err
	}

	c.history = append(history, Turn{Role: RoleAssistant, Text: reply})

	return reply, nil
}

// History returns the exchanged turns.
func (c *Conversation) History() []Turn {
	return c.history
}
