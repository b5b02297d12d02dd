package fallback

import (
	"context"
	"testing"

	"voicevibe-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatEchoesLastUserMessage(t *testing.T) {
	provider := NewProvider()

	reply, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "hello there"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You said: hello there. (Server running in fallback mode; no LLM configured.)", reply)
}

func TestChatEmptyPrompt(t *testing.T) {
	provider := NewProvider()

	reply, err := provider.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Please ask something.", reply)

	reply, err = provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "   "}})
	require.NoError(t, err)
	assert.Equal(t, "Please ask something.", reply)
}

func TestGenerate(t *testing.T) {
	provider := NewProvider()

	reply, err := provider.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "You said: ping. (Server running in fallback mode; no LLM configured.)", reply)
}
