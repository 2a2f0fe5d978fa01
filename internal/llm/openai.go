package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepSeekBaseURL = "https://api.deepseek.com/v1"
)

// OpenAIClient talks to OpenAI and any OpenAI-compatible endpoint.
type OpenAIClient struct {
	name   string
	client *openai.Client
}

var _ ChatClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates an adapter for cfg. An empty base URL uses defaultBase.
func NewOpenAIClient(cfg Config, defaultBase string) *OpenAIClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBase
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(withTrailingSlash(base)),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIClient{
		name:   cfg.Name,
		client: openai.NewClient(opts...),
	}
}

// ListModels returns the ids of the models the key can access.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, c.wrap(err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// StreamChat streams a chat completion.
func (c *OpenAIClient) StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) error {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.F(openai.ChatModel(req.Model)),
		Messages: openai.F(messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(req.MaxTokens))
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := onChunk(content); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return c.wrap(err)
	}
	return nil
}

func (c *OpenAIClient) wrap(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return FromStatus(c.name, apiErr.StatusCode, err)
	}
	return Classify(c.name, err)
}

func withTrailingSlash(base string) string {
	return strings.TrimRight(base, "/") + "/"
}
