package store

import (
	"time"

	"github.com/google/uuid"

	"chatflow/internal/chatflow"
)

// DefaultTitle is the title of a session before the first exchange names it.
const DefaultTitle = "new conversation"

// titleLimit is the number of runes kept when deriving a title from the
// first prompt.
const titleLimit = 20

// Session is one conversation: an append-only message sequence plus
// bookkeeping timestamps. The store owns all Session values; callers get
// copies.
type Session struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Messages  []chatflow.Message `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		Messages:  []chatflow.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// deriveTitle builds a session title from the first prompt: the first 20
// runes, with an ellipsis when truncated.
func deriveTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= titleLimit {
		return prompt
	}
	return string(runes[:titleLimit]) + "…"
}

// clone returns a copy of the session with its own message slice, safe to
// hand outside the store.
func (s *Session) clone() *Session {
	messages := make([]chatflow.Message, len(s.Messages))
	copy(messages, s.Messages)
	c := *s
	c.Messages = messages
	return &c
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}
