// Package chat wires the provider registry, the transcript and the stream
// client together and exposes them to the terminal and HTTP surfaces.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qnkhuat/deepread/internal/conversation"
	"github.com/qnkhuat/deepread/internal/cost"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/qnkhuat/deepread/internal/settings"
)

var (
	// ErrBusy is returned when a message is sent while a response is streaming.
	ErrBusy = errors.New("a response is still streaming")

	// ErrNoSelection is returned when no provider and model are selected.
	ErrNoSelection = errors.New("no model selected")

	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
)

// FailureMessage is appended as the assistant reply when a request fails
// before any content arrives.
const FailureMessage = "Sorry, I could not get a response from the model."

// Options configures a Controller.
type Options struct {
	Registry     *provider.Registry
	Settings     settings.Store
	Stream       *StreamClient
	SystemPrompt string
	// RequestTimeout bounds one reply. Zero means no limit.
	RequestTimeout time.Duration
	Logger         logger.Logger
}

// Controller serialises user actions against one document session. Every
// committed change to provider state is saved to the settings store.
type Controller struct {
	registry     *provider.Registry
	settings     settings.Store
	stream       *StreamClient
	conv         *conversation.Store
	costs        *cost.Session
	systemPrompt string
	timeout      time.Duration
	log          logger.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	document string
	// docPrompt is the hidden system message that seeds every transcript of
	// the loaded document.
	docPrompt string
}

// NewController returns a Controller with an empty transcript.
func NewController(opts Options) (*Controller, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if opts.Settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if opts.Stream == nil {
		opts.Stream = NewStreamClient(nil)
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard
	}

	return &Controller{
		registry:     opts.Registry,
		settings:     opts.Settings,
		stream:       opts.Stream,
		conv:         conversation.NewStore(),
		costs:        &cost.Session{},
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.RequestTimeout,
		log:          opts.Logger,
	}, nil
}

// Conversation returns the transcript.
func (c *Controller) Conversation() *conversation.Store { return c.conv }

// Costs returns the running session cost.
func (c *Controller) Costs() *cost.Session { return c.costs }

// Registry returns the provider registry.
func (c *Controller) Registry() *provider.Registry { return c.registry }

// Document returns the title of the loaded document, if any.
func (c *Controller) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Restore loads persisted provider state into the registry. Missing settings
// are not an error.
func (c *Controller) Restore(ctx context.Context) error {
	state, err := c.settings.Load(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settings.Apply(c.registry, state)
	return nil
}

// DiscoverModels fills the model cache of enabled providers that have none.
// Results, including recorded failures, are saved when anything was tried.
func (c *Controller) DiscoverModels(ctx context.Context) error {
	tried, err := c.registry.DiscoverMissing(ctx)
	if tried == 0 {
		return err
	}
	if perr := c.persist(ctx); perr != nil {
		return errors.Join(err, perr)
	}
	return err
}

func (c *Controller) persist(ctx context.Context) error {
	if err := c.settings.Save(ctx, settings.Capture(c.registry)); err != nil {
		c.log.Error("Failed to save settings", map[string]interface{}{logger.ErrorKey: err.Error()})
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ConfigureProvider stores credentials and saves.
func (c *Controller) ConfigureProvider(ctx context.Context, name string, creds provider.Credentials) error {
	if err := c.registry.Configure(name, creds); err != nil {
		return err
	}
	return c.persist(ctx)
}

// EnableProvider validates the provider and saves the outcome, including a
// recorded failure.
func (c *Controller) EnableProvider(ctx context.Context, name string) ([]string, error) {
	models, err := c.registry.ValidateAndEnable(ctx, name)
	if errors.Is(err, provider.ErrUnknownProvider) {
		return nil, err
	}
	if perr := c.persist(ctx); perr != nil && err == nil {
		return nil, perr
	}
	return models, err
}

// DisableProvider disables the provider and saves.
func (c *Controller) DisableProvider(ctx context.Context, name string) error {
	if err := c.registry.Disable(name); err != nil {
		return err
	}
	return c.persist(ctx)
}

// RefreshModels re-fetches the model list of an enabled provider and saves.
func (c *Controller) RefreshModels(ctx context.Context, name string) ([]string, error) {
	models, err := c.registry.RefreshModels(ctx, name)
	if err != nil {
		return nil, err
	}
	return models, c.persist(ctx)
}

// Select sets the current model and saves. When no default choice was made
// yet, FirstAvailable can be used to pick one.
func (c *Controller) Select(ctx context.Context, name, model string) error {
	if err := c.registry.Select(name, model); err != nil {
		return err
	}
	return c.persist(ctx)
}

// ClearSelection forgets the current model and saves.
func (c *Controller) ClearSelection(ctx context.Context) error {
	c.registry.ClearSelection()
	return c.persist(ctx)
}

// SelectFirstAvailable selects the first enabled provider with a cached model
// when nothing is selected yet.
func (c *Controller) SelectFirstAvailable(ctx context.Context) (provider.Selection, error) {
	if sel, ok := c.registry.Selection(); ok {
		return sel, nil
	}
	sel, ok := c.registry.FirstAvailableModel()
	if !ok {
		return provider.Selection{}, ErrNoSelection
	}
	return sel, c.Select(ctx, sel.Provider, sel.Model)
}

// LoadDocument starts a new document session: any stream is cancelled, the
// transcript and cost are reset and the document text is added as a hidden
// system message.
func (c *Controller) LoadDocument(title, text string) error {
	c.mu.Lock()
	c.document = title
	c.docPrompt = DocumentPrompt(c.systemPrompt, title, text)
	c.mu.Unlock()

	return c.Reset()
}

// Reset clears the transcript and the running cost. A loaded document stays
// loaded: its system message is added back to the empty transcript.
func (c *Controller) Reset() error {
	c.Cancel()
	c.conv.Reset()
	c.costs.Reset()

	c.mu.Lock()
	prompt := c.docPrompt
	c.mu.Unlock()
	if prompt == "" {
		return nil
	}
	return c.conv.Append(conversation.Message{
		Role:    conversation.RoleSystem,
		Content: prompt,
		Hidden:  true,
	})
}

// Send appends a user message and streams the reply. Sending is rejected
// with ErrBusy while a reply is streaming.
func (c *Controller) Send(ctx context.Context, text string, onDelta DeltaFunc) (cost.Usage, error) {
	if text == "" {
		return cost.Usage{}, ErrEmptyMessage
	}

	target, err := c.target()
	if err != nil {
		return cost.Usage{}, err
	}

	streamCtx, err := c.begin(ctx)
	if err != nil {
		return cost.Usage{}, err
	}
	defer c.end()

	if err := c.conv.Append(conversation.Message{Role: conversation.RoleUser, Content: text}); err != nil {
		return cost.Usage{}, err
	}

	return c.respond(streamCtx, target, onDelta)
}

// Summarize asks for a structured summary of the loaded document.
func (c *Controller) Summarize(ctx context.Context, onDelta DeltaFunc) (cost.Usage, error) {
	return c.Send(ctx, SummarizePrompt, onDelta)
}

// Edit replaces the message at index, discarding everything after it. When
// the edited message is a user message a new reply is streamed.
func (c *Controller) Edit(ctx context.Context, index int, text string, onDelta DeltaFunc) (cost.Usage, error) {
	msg, err := c.conv.At(index)
	if err != nil {
		return cost.Usage{}, err
	}

	streamCtx, err := c.begin(ctx)
	if err != nil {
		return cost.Usage{}, err
	}
	defer c.end()

	if err := c.conv.Edit(index, text); err != nil {
		return cost.Usage{}, err
	}
	if msg.Role != conversation.RoleUser {
		return cost.Usage{}, nil
	}

	target, err := c.target()
	if err != nil {
		return cost.Usage{}, err
	}
	return c.respond(streamCtx, target, onDelta)
}

// Cancel stops the in-flight stream, if any, and waits for it to finish.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Busy reports whether a reply is streaming.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Controller) target() (Target, error) {
	sel, ok := c.registry.Selection()
	if !ok {
		return Target{}, ErrNoSelection
	}
	p, err := c.registry.RequestProvider(sel.Provider)
	if err != nil {
		return Target{}, err
	}
	if !p.Enabled {
		return Target{}, fmt.Errorf("%w: %s", provider.ErrNotEnabled, sel.Provider)
	}
	return Target{Provider: p, Model: sel.Model}, nil
}

func (c *Controller) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil, ErrBusy
	}
	var streamCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	return streamCtx, nil
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)
	c.cancel = nil
	c.done = nil
}

// respond streams a reply to the current transcript. The assistant
// placeholder is appended only once the stream has started.
func (c *Controller) respond(ctx context.Context, target Target, onDelta DeltaFunc) (cost.Usage, error) {
	fields := map[string]interface{}{
		"provider": target.Provider.Name,
		"model":    target.Model,
	}

	history := c.conv.Messages()

	usage, err := c.stream.StreamChat(ctx, history, target,
		func() {
			if err := c.conv.Append(conversation.Message{Role: conversation.RoleAssistant, Streaming: true}); err != nil {
				c.log.Error("Failed to append assistant placeholder", map[string]interface{}{logger.ErrorKey: err.Error()})
			}
		},
		func(d Delta) {
			if d.Content != "" {
				if err := c.conv.FoldDelta(d.Content); err != nil {
					c.log.Error("Failed to fold delta", map[string]interface{}{logger.ErrorKey: err.Error()})
				}
			}
			if onDelta != nil {
				onDelta(d)
			}
		},
	)

	var interrupted *llm.StreamInterruptedError
	switch {
	case err == nil:
		c.conv.CompleteStreaming()
		c.costs.Add(usage)
		fields["input_tokens"] = usage.InputTokens
		fields["output_tokens"] = usage.OutputTokens
		fields["cost"] = usage.Cost
		c.log.Info("Chat response completed", fields)
		return usage, nil

	case errors.As(err, &interrupted):
		c.conv.MarkIncomplete()
		fields[logger.ErrorKey] = err.Error()
		c.log.Warn("Chat stream interrupted", fields)
		return cost.Usage{}, err

	case errors.Is(err, context.Canceled):
		c.log.Info("Chat request cancelled", fields)
		return cost.Usage{}, err

	default:
		if appendErr := c.conv.Append(conversation.Message{Role: conversation.RoleAssistant, Content: FailureMessage}); appendErr != nil {
			c.log.Error("Failed to append failure message", map[string]interface{}{logger.ErrorKey: appendErr.Error()})
		}
		fields[logger.ErrorKey] = err.Error()
		c.log.Error("Chat request failed", fields)
		return cost.Usage{}, err
	}
}
