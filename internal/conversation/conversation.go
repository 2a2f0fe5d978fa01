// Package conversation holds the ordered transcript of one document session.
package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrOutOfRange is returned for index-based operations outside [0, length).
	ErrOutOfRange = errors.New("message index out of range")

	// ErrStreamActive is returned when appending while a message is streaming.
	ErrStreamActive = errors.New("a message is already streaming")

	// ErrNotStreaming is returned when folding a delta with no streaming message.
	ErrNotStreaming = errors.New("no message is streaming")

	// ErrEditWhileStreaming is returned when editing while a message is streaming.
	ErrEditWhileStreaming = errors.New("cannot edit while a message is streaming")
)

// Message is one entry in the transcript. Hidden messages are sent to the
// model but not rendered.
type Message struct {
	ID         uuid.UUID `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Hidden     bool      `json:"hidden,omitempty"`
	Streaming  bool      `json:"streaming,omitempty"`
	Incomplete bool      `json:"incomplete,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Indexed pairs a message with its position in the full transcript.
type Indexed struct {
	Index int `json:"index"`
	Message
}

// Store is a linear, mutable transcript. At most one message streams at a
// time and it is always the last one.
type Store struct {
	mu        sync.RWMutex
	messages  []Message
	streaming bool
}

// NewStore returns an empty transcript.
func NewStore() *Store {
	return &Store{}
}

// Append adds a message to the end. Appending is rejected while another
// message is streaming. A streaming message must come from the assistant.
func (s *Store) Append(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return ErrStreamActive
	}
	if msg.Streaming && msg.Role != RoleAssistant {
		return fmt.Errorf("only assistant messages can stream, got %q", msg.Role)
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	s.messages = append(s.messages, msg)
	s.streaming = msg.Streaming
	return nil
}

// FoldDelta appends text to the streaming message.
func (s *Store) FoldDelta(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return ErrNotStreaming
	}
	last := len(s.messages) - 1
	s.messages[last].Content += text
	return nil
}

// CompleteStreaming marks the streaming message as finished. It is a no-op
// when nothing streams.
func (s *Store) CompleteStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(false)
}

// MarkIncomplete finishes the streaming message and flags it as cut short.
func (s *Store) MarkIncomplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(true)
}

func (s *Store) finish(incomplete bool) {
	if !s.streaming {
		return
	}
	last := len(s.messages) - 1
	s.messages[last].Streaming = false
	s.messages[last].Incomplete = incomplete
	s.streaming = false
}

// Edit replaces the content at index and discards every later message.
func (s *Store) Edit(index int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.messages) {
		return fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, index, len(s.messages))
	}
	if s.streaming {
		return ErrEditWhileStreaming
	}

	s.messages[index].Content = content
	s.messages[index].Incomplete = false
	s.messages = s.messages[:index+1]
	return nil
}

// At returns the message at index.
func (s *Store) At(index int) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.messages) {
		return Message{}, fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, index, len(s.messages))
	}
	return s.messages[index], nil
}

// Reset clears the transcript.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.streaming = false
}

// Len returns the number of messages, hidden ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Streaming reports whether a message is currently streaming. Sending a new
// message must be disabled while this is true.
func (s *Store) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// Messages returns a copy of the full transcript, hidden messages included.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Visible returns the messages that are rendered, keeping their transcript index.
func (s *Store) Visible() []Indexed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Indexed, 0, len(s.messages))
	for i, m := range s.messages {
		if m.Hidden {
			continue
		}
		out = append(out, Indexed{Index: i, Message: m})
	}
	return out
}
