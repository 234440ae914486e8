package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teilomillet/gollm"
	"github.com/teilomillet/medtriage/config"
)

// GollmCompleter sends conversations through a gollm client.
type GollmCompleter struct {
	generate func(ctx context.Context, prompt *gollm.Prompt) (string, error)
	timeout  time.Duration
}

// NewGollmCompleter builds the gollm client from cfg. gollm retries are
// disabled so each request makes exactly one upstream call, and its own
// logger is off since failures are logged through zap by the callers.
func NewGollmCompleter(cfg config.LLMConfig) (*GollmCompleter, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	llm, err := gollm.NewLLM(
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
		gollm.SetAPIKey(cfg.APIKey),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelOff),
	)
	if err != nil {
		return nil, fmt.Errorf("create LLM: %w", err)
	}
	return &GollmCompleter{
		generate: func(ctx context.Context, prompt *gollm.Prompt) (string, error) {
			return llm.Generate(ctx, prompt)
		},
		timeout: cfg.Timeout,
	}, nil
}

// NewGollmCompleterFunc wraps an arbitrary generate function, mainly for tests.
func NewGollmCompleterFunc(generate func(ctx context.Context, prompt *gollm.Prompt) (string, error), timeout time.Duration) *GollmCompleter {
	return &GollmCompleter{generate: generate, timeout: timeout}
}

// Complete implements ChatCompleter. gollm takes a single prompt text, so
// the message contents are joined in order.
func (c *GollmCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return c.generate(ctx, gollm.NewPrompt(strings.Join(parts, "\n\n")))
}
