package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qnkhuat/deepread/internal/conversation"
	"github.com/qnkhuat/deepread/internal/cost"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/theme"
)

// Renderer turns a markdown reply into terminal output.
type Renderer interface {
	Render(markdown string) (string, error)
}

// ChatSession represents an interactive terminal chat session
type ChatSession struct {
	controller *Controller
	theme      theme.Theme
	renderer   Renderer
	reader     *bufio.Reader
	userName   string
	animate    bool
}

// SessionOption configures a ChatSession.
type SessionOption func(*ChatSession)

// WithRenderer renders completed replies as markdown instead of streaming
// raw text.
func WithRenderer(r Renderer) SessionOption {
	return func(s *ChatSession) { s.renderer = r }
}

// WithUserName sets the prompt label.
func WithUserName(name string) SessionOption {
	return func(s *ChatSession) { s.userName = name }
}

// WithoutAnimation disables the thinking indicator.
func WithoutAnimation() SessionOption {
	return func(s *ChatSession) { s.animate = false }
}

// NewChatSession creates and configures a new chat session reading from in
func NewChatSession(controller *Controller, t theme.Theme, in io.Reader, opts ...SessionOption) *ChatSession {
	s := &ChatSession{
		controller: controller,
		theme:      t,
		reader:     bufio.NewReader(in),
		userName:   "You",
		animate:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the interactive chat session. It returns when the user types
// exit, the input ends or ctx is cancelled.
func (s *ChatSession) Start(ctx context.Context) error {
	s.showWelcomeMessage()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := s.readUserInput()
		if errors.Is(err, io.EOF) {
			if input == "" {
				return nil
			}
		} else if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		if input == "" {
			continue
		}

		if exit := s.handle(ctx, input); exit {
			s.theme.Info().Println("Ending chat session. Goodbye")
			return nil
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (s *ChatSession) handle(ctx context.Context, input string) bool {
	switch {
	case strings.EqualFold(input, "exit"):
		return true

	case strings.EqualFold(input, "clear"):
		if err := s.controller.Reset(); err != nil {
			s.theme.Error().Println(err.Error())
			return false
		}
		fmt.Fprint(s.theme.Writer(), "\033[H\033[2J")
		s.theme.Subtle().Println("Conversation cleared.")
		if title := s.controller.Document(); title != "" {
			s.theme.Subtle().Printf("Still reading: %s\n", title)
		}

	case input == "/help":
		s.showHelp()

	case input == "/cost":
		s.showCost()

	case input == "/history":
		s.showHistory()

	case input == "/summarize":
		s.reply(ctx, func(ctx context.Context, onDelta DeltaFunc) (cost.Usage, error) {
			return s.controller.Summarize(ctx, onDelta)
		})

	case strings.HasPrefix(input, "/edit"):
		index, text, err := parseEdit(input)
		if err != nil {
			s.theme.Error().Println(err.Error())
			return false
		}
		s.reply(ctx, func(ctx context.Context, onDelta DeltaFunc) (cost.Usage, error) {
			return s.controller.Edit(ctx, index, text, onDelta)
		})

	default:
		s.reply(ctx, func(ctx context.Context, onDelta DeltaFunc) (cost.Usage, error) {
			return s.controller.Send(ctx, input, onDelta)
		})
	}
	return false
}

func parseEdit(input string) (int, string, error) {
	fields := strings.SplitN(strings.TrimSpace(strings.TrimPrefix(input, "/edit")), " ", 2)
	if len(fields) != 2 || strings.TrimSpace(fields[1]) == "" {
		return 0, "", errors.New("usage: /edit <index> <new text>")
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid message index %q", fields[0])
	}
	return index, strings.TrimSpace(fields[1]), nil
}

func (s *ChatSession) showWelcomeMessage() {
	s.theme.Info().Println("\nChat session started.")
	if title := s.controller.Document(); title != "" {
		s.theme.Subtle().Printf("Document: %s\n", title)
	}
	if sel, ok := s.controller.Registry().Selection(); ok {
		s.theme.Subtle().Printf("Model: %s/%s\n", sel.Provider, sel.Model)
	}
	s.theme.Secondary().Println("Type your message and press Enter. Type '/help' for commands or 'exit' to end the session.")
}

func (s *ChatSession) showHelp() {
	s.theme.Secondary().Println("Commands:")
	s.theme.Subtle().Println("  /summarize          summarize the loaded document")
	s.theme.Subtle().Println("  /edit <n> <text>    replace message n and regenerate")
	s.theme.Subtle().Println("  /history            show the transcript with indexes")
	s.theme.Subtle().Println("  /cost               show the session cost")
	s.theme.Subtle().Println("  clear               start over")
	s.theme.Subtle().Println("  exit                end the session")
}

func (s *ChatSession) showCost() {
	sum := s.controller.Costs().Snapshot()
	s.theme.Info().Printf("Requests: %d  Input tokens: %d  Output tokens: %d  Total: $%.6f\n",
		sum.Requests, sum.InputTokens, sum.OutputTokens, sum.Total)
}

func (s *ChatSession) showHistory() {
	for _, m := range s.controller.Conversation().Visible() {
		label := string(m.Role)
		if m.Incomplete {
			label += " (incomplete)"
		}
		s.theme.Subtle().Printf("[%d] %s: ", m.Index, label)
		s.theme.Info().Println(m.Content)
	}
}

func (s *ChatSession) readUserInput() (string, error) {
	s.theme.Primary().Print(fmt.Sprintf("%s > ", s.userName))
	input, err := s.reader.ReadString('\n')
	return strings.TrimSpace(input), err
}

func (s *ChatSession) reply(ctx context.Context, send func(context.Context, DeltaFunc) (cost.Usage, error)) {
	stop := s.showThinkingAnimation()

	var content strings.Builder
	usage, err := send(ctx, func(d Delta) {
		if d.Done {
			return
		}
		content.WriteString(d.Content)
		if s.renderer == nil {
			if stop() {
				s.theme.Secondary().Print("AI > ")
			}
			s.theme.Subtle().Print(d.Content)
		}
	})
	stop()

	if content.Len() > 0 {
		if s.renderer != nil {
			s.theme.Secondary().Println("AI >")
			s.printRendered(content.String())
		} else {
			fmt.Fprintln(s.theme.Writer())
		}
	}

	if err != nil {
		s.showError(err)
		return
	}
	s.theme.Subtle().Printf("(%d in / %d out tokens, $%.6f)\n", usage.InputTokens, usage.OutputTokens, usage.Cost)
}

func (s *ChatSession) printRendered(markdown string) {
	out, err := s.renderer.Render(markdown)
	if err != nil {
		s.theme.Subtle().Println(markdown)
		return
	}
	fmt.Fprint(s.theme.Writer(), out)
}

func (s *ChatSession) showError(err error) {
	var interrupted *llm.StreamInterruptedError
	var rejected *llm.RejectedError
	switch {
	case errors.Is(err, context.Canceled):
		s.theme.Warning().Println("Request cancelled.")
	case errors.As(err, &interrupted):
		s.theme.Warning().Println("The reply was cut short: ", interrupted.Err)
	case errors.Is(err, ErrNoSelection):
		s.theme.Error().Println("No model selected. Run 'deepread select <provider> <model>' first.")
	case errors.As(err, &rejected):
		s.theme.Error().Println(err.Error())
		if p, perr := s.controller.Registry().Get(rejected.Provider); perr == nil {
			s.theme.Subtle().Println(llm.Guidance(p.Kind))
		}
	case errors.Is(err, conversation.ErrOutOfRange):
		s.theme.Error().Println(err.Error(), "(see /history)")
	default:
		s.theme.Error().Println(err.Error())
	}
}

// showThinkingAnimation prints an indicator until the returned stop function
// is called. stop reports whether this call was the one that stopped it.
func (s *ChatSession) showThinkingAnimation() func() bool {
	if !s.animate {
		var once sync.Once
		return func() bool {
			stopped := false
			once.Do(func() { stopped = true })
			return stopped
		}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		dots := []string{".  ", ".. ", "..."}
		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.theme.Warning().Printf("\rThinking%s", dots[i%3])
			select {
			case <-done:
				fmt.Fprint(s.theme.Writer(), "\r              \r")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() bool {
		stopped := false
		once.Do(func() {
			close(done)
			<-finished
			stopped = true
		})
		return stopped
	}
}
