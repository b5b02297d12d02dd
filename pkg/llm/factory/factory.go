package factory

import (
	"voicevibe-be/pkg/llm"
	"voicevibe-be/pkg/llm/fallback"
	"voicevibe-be/pkg/llm/groq"
)

// NewProvider picks the collaborator backend. With no API key the server runs
// in fallback (echo) mode, matching local development without credentials.
func NewProvider(apiKey, baseURL, model string) llm.Provider {
	if apiKey == "" {
		return fallback.NewProvider()
	}
	return groq.NewProvider(apiKey, baseURL, model)
}
