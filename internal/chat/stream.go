package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/qnkhuat/deepread/internal/conversation"
	"github.com/qnkhuat/deepread/internal/cost"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/provider"
)

// Delta is one event of a chat stream: a content chunk, or the final event
// carrying usage.
type Delta struct {
	Content string      `json:"content,omitempty"`
	Done    bool        `json:"done,omitempty"`
	Usage   *cost.Usage `json:"usage,omitempty"`
}

// DeltaFunc receives stream events in arrival order.
type DeltaFunc func(Delta)

// Target is the provider and model a request is sent to.
type Target struct {
	Provider provider.Provider
	Model    string
}

// StreamClient turns a transcript into one streaming provider request.
type StreamClient struct {
	factory llm.Factory
}

// NewStreamClient returns a StreamClient. A nil factory uses llm.NewClient.
func NewStreamClient(factory llm.Factory) *StreamClient {
	if factory == nil {
		factory = llm.NewClient
	}
	return &StreamClient{factory: factory}
}

// StreamChat sends every message, hidden ones included, to target. onStart is
// called once before the first delta is delivered, and never when the request
// fails before producing content. onDelta receives each content chunk and a
// final Done event with usage.
//
// A failure after content was delivered is returned as an
// *llm.StreamInterruptedError carrying the partial content.
func (c *StreamClient) StreamChat(ctx context.Context, messages []conversation.Message, target Target, onStart func(), onDelta DeltaFunc) (cost.Usage, error) {
	client, err := c.factory(llm.Config{
		Name:    target.Provider.Name,
		Kind:    target.Provider.Kind,
		APIKey:  target.Provider.Credentials.APIKey,
		BaseURL: target.Provider.Credentials.BaseURL,
	})
	if err != nil {
		return cost.Usage{}, fmt.Errorf("failed to create client for %s: %w", target.Provider.Name, err)
	}

	req := llm.ChatRequest{Model: target.Model, Messages: make([]llm.Message, 0, len(messages))}
	sent := make([]string, 0, len(messages))
	for _, m := range messages {
		req.Messages = append(req.Messages, llm.Message{Role: string(m.Role), Content: m.Content})
		sent = append(sent, m.Content)
	}
	inputTokens := cost.ApproxTokensTotal(sent...)

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		if onStart != nil {
			onStart()
		}
	}

	var partial strings.Builder
	err = client.StreamChat(ctx, req, func(content string) error {
		start()
		partial.WriteString(content)
		if onDelta != nil {
			onDelta(Delta{Content: content})
		}
		return nil
	})
	if err != nil {
		if partial.Len() > 0 {
			return cost.Usage{}, &llm.StreamInterruptedError{Partial: partial.String(), Err: err}
		}
		return cost.Usage{}, err
	}

	start()
	outputTokens := cost.ApproxTokens(partial.String())
	usage := cost.Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost.Estimate(target.Provider.Name, target.Model, inputTokens, outputTokens),
	}
	if onDelta != nil {
		onDelta(Delta{Done: true, Usage: &usage})
	}
	return usage, nil
}
