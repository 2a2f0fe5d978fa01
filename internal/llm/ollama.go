package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local or self-hosted Ollama server.
type OllamaClient struct {
	name   string
	client *api.Client
}

var _ ChatClient = (*OllamaClient)(nil)

// NewOllamaClient creates an adapter for the server at cfg.BaseURL.
func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		return nil, &ConfigurationError{Provider: cfg.Name, Missing: []string{"base_url"}}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaClient{
		name:   cfg.Name,
		client: api.NewClient(u, httpClient),
	}, nil
}

// ListModels returns the names of the locally installed models.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, c.wrap(err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// StreamChat streams a chat response.
func (c *OllamaClient) StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) error {
	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := true
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
	}

	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return onChunk(resp.Message.Content)
	})
	if err != nil {
		return c.wrap(err)
	}
	return nil
}

func (c *OllamaClient) wrap(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return FromStatus(c.name, statusErr.StatusCode, err)
	}
	return Classify(c.name, err)
}
