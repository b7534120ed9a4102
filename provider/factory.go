package provider

import (
	"fmt"

	"mcporch/model"
)

// NewLLM creates a backend based on configuration.
//
// Supported backend types:
//   - ProviderTypeAnthropic: Anthropic Messages API (default)
//   - ProviderTypeOpenAI: OpenAI Chat Completions API
//   - ProviderTypeOpenRouter: OpenRouter through the OpenAI SDK
//   - ProviderTypeOllama: local Ollama server
//
// Returns an error if the type is unknown or the backend constructor fails
// (missing API key, invalid URL).
//
// Example:
//
//	llm, err := provider.NewLLM(provider.Config{
//	    Type:   provider.ProviderTypeOpenAI,
//	    Model:  "gpt-4o-mini",
//	    APIKey: "sk-...",
//	})
func NewLLM(cfg Config) (model.LLM, error) {
	var (
		llm model.LLM
		err error
	)

	// llm stays a nil interface unless the constructor succeeded
	switch cfg.Type {
	case ProviderTypeAnthropic:
		var p *AnthropicLLM
		if p, err = NewAnthropicLLM(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			llm = p
		}
	case ProviderTypeOpenAI:
		var p *OpenAILLM
		if p, err = NewOpenAILLM(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			llm = p
		}
	case ProviderTypeOpenRouter:
		var p *OpenAILLM
		if p, err = NewOpenRouterLLM(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			llm = p
		}
	case ProviderTypeOllama:
		var p *OllamaLLM
		if p, err = NewOllamaLLM(cfg.BaseURL, cfg.Model, nil); err == nil {
			llm = p
		}
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	if err != nil {
		return nil, err
	}
	return llm, nil
}

// MapProviderIDToType converts a config backend id to a ProviderType.
// Unknown ids are passed through and rejected by NewLLM.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
