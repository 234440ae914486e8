package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/gollm"
	"github.com/teilomillet/medtriage/config"
)

func TestGollmCompleterSendsJoinedPrompt(t *testing.T) {
	var got string
	c := NewGollmCompleterFunc(func(ctx context.Context, prompt *gollm.Prompt) (string, error) {
		got = prompt.Input
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "timeout should bound the call")
		return "reply", nil
	}, time.Second)

	text, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "headache"},
	})

	require.NoError(t, err)
	assert.Equal(t, "reply", text)
	assert.Equal(t, "be brief\n\nheadache", got)
}

func TestGollmCompleterPropagatesErrors(t *testing.T) {
	boom := errors.New("mistral: 503")
	c := NewGollmCompleterFunc(func(context.Context, *gollm.Prompt) (string, error) {
		return "", boom
	}, 0)

	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, boom)

	_, err = c.Complete(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewGollmCompleterRequiresKey(t *testing.T) {
	_, err := NewGollmCompleter(config.LLMConfig{Provider: "mistral", Model: "mistral-large-latest"})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)
}
