package llm

import (
	"fmt"
)

// Factory builds a ChatClient from credentials.
type Factory func(cfg Config) (ChatClient, error)

// NewClient builds the adapter for cfg.Kind.
func NewClient(cfg Config) (ChatClient, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("llm provider kind not specified")
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.Kind)
	}

	switch cfg.Kind {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, &ConfigurationError{Provider: cfg.Name, Missing: []string{"api_key"}}
		}
		return NewOpenAIClient(cfg, openAIBaseURL), nil
	case DeepSeek:
		if cfg.APIKey == "" {
			return nil, &ConfigurationError{Provider: cfg.Name, Missing: []string{"api_key"}}
		}
		return NewOpenAIClient(cfg, deepSeekBaseURL), nil
	case Anthropic:
		if cfg.APIKey == "" {
			return nil, &ConfigurationError{Provider: cfg.Name, Missing: []string{"api_key"}}
		}
		return NewAnthropicClient(cfg), nil
	case Ollama:
		client, err := NewOllamaClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Kind)
	}
}
