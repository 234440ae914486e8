package provider

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/teilomillet/medtriage/config"
)

// OpenAICompleter talks to any OpenAI-compatible chat completion API. The
// default endpoint is Mistral's.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds the client once. httpClient carries the timeout
// and may be nil.
func NewOpenAICompleter(cfg config.LLMConfig, httpClient *http.Client) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	clientCfg.HTTPClient = httpClient

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Complete implements ChatCompleter and returns the first choice unmodified.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
