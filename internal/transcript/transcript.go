package transcript

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// State represents where a session stands with respect to the relay
type State int

const (
	StateIdle State = iota
	StateAwaiting
)

var (
	// ErrEmptyMessage is returned when the submitted input is empty or whitespace-only
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned when a submission is attempted while a request is in flight
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotAwaiting is returned when Resolve is called with no pending submission
	ErrNotAwaiting = errors.New("no submission is pending")
)

// Reference is an optional citation attached to an assistant message
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Message represents a single chat message
type Message struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	References []Reference `json:"references,omitempty"`
}

// Transcript is the ordered, session-scoped list of chat messages. Each
// transcript is owned by exactly one session and mutated only by that
// session's own handlers; it is not safe for concurrent use.
//
// At most one submission is in flight at a time: Submit appends the user
// message optimistically and moves to StateAwaiting, and every further
// submission is rejected until Resolve or Fail returns the transcript to
// StateIdle. Messages are immutable once appended and keep insertion order.
type Transcript struct {
	messages []Message
	state    State
}

// New creates an empty transcript in StateIdle
func New() *Transcript {
	return &Transcript{}
}

// State returns the current state
func (t *Transcript) State() State {
	return t.state
}

// CanSend reports whether input could be submitted right now. It is false
// whenever input is empty or whitespace-only, or a request is in flight.
func (t *Transcript) CanSend(input string) bool {
	return strings.TrimSpace(input) != "" && t.state == StateIdle
}

// Submit appends a user message and moves to StateAwaiting. The message is
// appended before any response arrives; on failure the caller must call
// Fail so the transcript returns to StateIdle without a phantom reply.
func (t *Transcript) Submit(content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyMessage
	}
	if t.state == StateAwaiting {
		return Message{}, ErrBusy
	}

	msg := Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	t.messages = append(t.messages, msg)
	t.state = StateAwaiting
	return msg, nil
}

// Resolve appends exactly one assistant message for the pending submission,
// carrying any reference citations, and returns to StateIdle.
func (t *Transcript) Resolve(text string, refs []Reference) (Message, error) {
	if t.state != StateAwaiting {
		return Message{}, ErrNotAwaiting
	}

	msg := Message{
		ID:         uuid.New().String(),
		Role:       RoleAssistant,
		Content:    text,
		Timestamp:  time.Now(),
		References: refs,
	}
	t.messages = append(t.messages, msg)
	t.state = StateIdle
	return msg, nil
}

// Fail abandons the pending submission and returns to StateIdle. The
// optimistically appended user message stays; no assistant message is added.
func (t *Transcript) Fail() {
	t.state = StateIdle
}

// Messages returns a copy of the transcript in insertion order
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages in the transcript
func (t *Transcript) Len() int {
	return len(t.messages)
}
