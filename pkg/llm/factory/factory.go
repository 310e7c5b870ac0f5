package factory

import (
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm/ollama"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm/openrouter"
)

func NewLLMProvider(providerType, modelName, baseURL, openRouterKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openrouter":
		return openrouter.NewOpenRouterProvider(openRouterKey, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
