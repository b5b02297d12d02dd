package fallback

import (
	"context"
	"fmt"
	"strings"

	"voicevibe-be/pkg/llm"
)

// Provider is the no-API-key dev mode: it echoes the prompt back so the rest
// of the stack can be exercised without a configured collaborator.
type Provider struct{}

var _ llm.Provider = &Provider{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	prompt := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			prompt = history[i].Content
			break
		}
	}
	return p.respond(prompt), nil
}

func (p *Provider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	return p.respond(prompt), nil
}

func (p *Provider) respond(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Please ask something."
	}
	return fmt.Sprintf("You said: %s. (Server running in fallback mode; no LLM configured.)", prompt)
}
