package config

import (
	"fmt"
	"strconv"
)

// UpdateField sets a single dotted configuration key on cfg and validates
// the result. This is the business logic behind `mcporch config set`.
//
// Keys:
//   - llm: "provider", "model", "max_tokens", "base_url", "api_key_env"
//   - conversation: "max_rounds", "parallel_tools", "result_text"
func UpdateField(cfg *Config, key, value string) error {
	updated := *cfg

	switch key {
	case "llm.provider":
		updated.LLM.Provider = value
	case "llm.model":
		updated.LLM.Model = value
	case "llm.max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		updated.LLM.MaxTokens = n
	case "llm.base_url":
		updated.LLM.BaseURL = value
	case "llm.api_key_env":
		updated.LLM.APIKeyEnv = value

	case "conversation.max_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		updated.Conversation.MaxRounds = n
	case "conversation.parallel_tools":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		updated.Conversation.ParallelTools = b
	case "conversation.result_text":
		updated.Conversation.ResultText = value

	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := updated.Validate(); err != nil {
		return err
	}

	*cfg = updated
	return nil
}

// ProviderDisplayName returns the display name for an LLM backend id.
func ProviderDisplayName(providerID string) string {
	switch providerID {
	case "ollama":
		return "Ollama"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	default:
		return providerID
	}
}

// ProviderDefaultBaseURL returns the API endpoint used when base_url is unset.
func ProviderDefaultBaseURL(providerID string) string {
	switch providerID {
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	case "ollama":
		return "http://localhost:11434"
	default:
		return ""
	}
}
