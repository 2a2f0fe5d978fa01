package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicBaseURL = "https://api.anthropic.com"

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	name   string
	client *anthropic.Client
}

var _ ChatClient = (*AnthropicClient)(nil)

// NewAnthropicClient creates an adapter for cfg.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	base := cfg.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(withTrailingSlash(base)),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &AnthropicClient{
		name:   cfg.Name,
		client: anthropic.NewClient(opts...),
	}
}

// ListModels returns the ids of the available models.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, c.wrap(err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// StreamChat streams a message. System messages are sent in the system field.
func (c *AnthropicClient) StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) error {
	system, turns := splitSystem(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(req.Model)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(system)})
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		switch delta := event.Delta.(type) {
		case anthropic.ContentBlockDeltaEventDelta:
			if delta.Text == "" {
				continue
			}
			if err := onChunk(delta.Text); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return c.wrap(err)
	}
	return nil
}

func (c *AnthropicClient) wrap(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return FromStatus(c.name, apiErr.StatusCode, err)
	}
	return Classify(c.name, err)
}

// splitSystem lifts system messages out of the turn list and merges
// consecutive turns of the same role, which the Messages API rejects.
func splitSystem(in []Message) (string, []Message) {
	var system []string
	var turns []Message

	for _, m := range in {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}

		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}

		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + m.Content
			continue
		}
		turns = append(turns, Message{Role: role, Content: m.Content})
	}

	return strings.Join(system, "\n\n"), turns
}
