// Package llm normalises the chat and model-listing APIs of the supported
// providers behind ChatClient.
package llm

import (
	"context"
	"net/http"
)

// Kind identifies a provider implementation.
type Kind string

const (
	OpenAI    Kind = "openai"
	Anthropic Kind = "anthropic"
	DeepSeek  Kind = "deepseek"
	Ollama    Kind = "ollama"
)

// Message roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxTokens caps responses for providers that require a limit.
const DefaultMaxTokens = 4096

// Message is a single chat turn as sent to a provider.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is a streaming chat completion request.
type ChatRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// ChunkFunc receives streamed content in arrival order. Returning an error
// aborts the stream.
type ChunkFunc func(content string) error

// ChatClient is implemented by every provider adapter.
type ChatClient interface {
	// ListModels performs one model-listing round trip.
	ListModels(ctx context.Context) ([]string, error)
	// StreamChat opens one streaming request and calls onChunk per content delta.
	StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) error
}

// Config carries the credentials used to build a client.
type Config struct {
	Name       string
	Kind       Kind
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}
