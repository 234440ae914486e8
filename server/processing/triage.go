package processing

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/teilomillet/medtriage/server/provider"
)

// DefaultTriageTemplate asks the model for a priority score and a reason.
// Inputs are embedded verbatim.
const DefaultTriageTemplate = `
A patient reports the following symptoms: {{.Symptoms}}.
They are {{.Age}} years old and have the following medical history: {{.History}}.
How urgent is their condition? Reply as if you are talking to the patient themselves.
Reply strictly in this format:

- Priority: (Floating point value from 1-10 with 1 being highest priority and 10 being lowest)
- Reason: [Reason]
`

// Triager builds the triage prompt and sends it as a single user message.
type Triager struct {
	chat provider.ChatCompleter
	tmpl *template.Template
}

// NewTriager creates a Triager using DefaultTriageTemplate.
func NewTriager(chat provider.ChatCompleter) (*Triager, error) {
	return NewTriagerWithTemplate(chat, DefaultTriageTemplate)
}

// NewTriagerWithTemplate parses tmpl up front so a bad template fails at startup.
func NewTriagerWithTemplate(chat provider.ChatCompleter, tmpl string) (*Triager, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	t, err := template.New("triage").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse triage template: %w", err)
	}
	return &Triager{chat: chat, tmpl: t}, nil
}

// Prompt renders the prompt for req.
func (t *Triager) Prompt(req TriageRequest) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render triage prompt: %w", err)
	}
	return buf.String(), nil
}

// Triage returns the model reply unmodified. Upstream errors are returned
// as is so their message can reach the client.
func (t *Triager) Triage(ctx context.Context, req TriageRequest) (string, error) {
	prompt, err := t.Prompt(req)
	if err != nil {
		return "", err
	}
	return t.chat.Complete(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	})
}
