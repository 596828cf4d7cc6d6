package store

import (
	"context"
	"strings"

	"chatflow/internal/chatflow"
	"chatflow/internal/chatflow/openai"
)

// Completer is the transport adapter consumed by the store. The openai
// client implements it; tests substitute fakes.
type Completer interface {
	Chat(ctx context.Context, history []openai.ChatMessage, opts *openai.RequestOptions) (openai.ChatMessage, error)
	StreamChat(ctx context.Context, history []openai.ChatMessage, opts *openai.RequestOptions, onProgress func(string)) (openai.ChatMessage, error)
	GenerateImage(ctx context.Context, prompt string, opts openai.ImageOptions) (*openai.ImageResult, error)
}

// SendOptions tune one send-message workflow.
type SendOptions struct {
	// Request overrides the configured model/temperature and may add a
	// system prompt.
	Request *openai.RequestOptions
	// NoStream requests the reply in one piece instead of incrementally.
	NoStream bool
}

// SendMessage runs the full send workflow for a text prompt: append the
// user message, append an assistant placeholder, stream the reply into the
// placeholder, and finalize both statuses. Empty input is a silent no-op.
func (s *Store) SendMessage(ctx context.Context, content string) error {
	return s.SendMessageWith(ctx, content, SendOptions{})
}

// SendMessageWith is SendMessage with per-request options.
func (s *Store) SendMessageWith(ctx context.Context, content string, opts SendOptions) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.lastErr = ""
	s.loading = true
	sess := s.currentLocked()
	if sess == nil {
		sess = s.createSessionLocked()
	}
	sessID := sess.ID

	user := chatflow.NewTextMessage(s.ids.Next(s.now()), chatflow.RoleUser, content, s.now())
	s.appendLocked(sess, user)
	s.persistOrLogLocked()

	placeholder := chatflow.NewTextMessage(s.ids.Next(s.now()), chatflow.RoleAssistant, "", s.now())
	s.appendLocked(sess, placeholder)
	s.persistOrLogLocked()

	history := s.historyLocked(sess, placeholder.ID)
	s.mu.Unlock()

	onProgress := func(text string) {
		s.mu.Lock()
		s.updateMessageLocked(sessID, placeholder.ID, func(m chatflow.Message) chatflow.Message {
			m.Content = text
			return m
		})
		s.persistOrLogLocked()
		render := s.onAssistantProgress
		s.mu.Unlock()
		if render != nil {
			render(sessID, placeholder.ID, text)
		}
	}

	var reply openai.ChatMessage
	var err error
	if opts.NoStream {
		reply, err = s.client.Chat(ctx, history, opts.Request)
	} else {
		reply, err = s.client.StreamChat(ctx, history, opts.Request, onProgress)
	}

	return s.finalize(sessID, user.ID, placeholder.ID, content, err, func(m chatflow.Message) chatflow.Message {
		m = m.Resolve(chatflow.StatusSuccess)
		// The resolved text is authoritative over accumulated progress.
		m.Content = reply.Content
		return m
	})
}

// SendImagePrompt runs the image workflow: same state machine as
// SendMessage but with an image placeholder and no incremental phase.
func (s *Store) SendImagePrompt(ctx context.Context, prompt string, opts openai.ImageOptions) error {
	if strings.TrimSpace(prompt) == "" {
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.lastErr = ""
	s.loading = true
	sess := s.currentLocked()
	if sess == nil {
		sess = s.createSessionLocked()
	}
	sessID := sess.ID

	user := chatflow.NewTextMessage(s.ids.Next(s.now()), chatflow.RoleUser, prompt, s.now())
	s.appendLocked(sess, user)
	s.persistOrLogLocked()

	meta := &chatflow.ImageMetadata{Size: opts.Size, N: opts.N, Model: opts.Model}
	placeholder := chatflow.NewImageMessage(s.ids.Next(s.now()), chatflow.RoleAssistant, prompt, meta, s.now())
	s.appendLocked(sess, placeholder)
	s.persistOrLogLocked()
	s.mu.Unlock()

	result, err := s.client.GenerateImage(ctx, prompt, opts)

	return s.finalize(sessID, user.ID, placeholder.ID, prompt, err, func(m chatflow.Message) chatflow.Message {
		m = m.Resolve(chatflow.StatusSuccess)
		m.ImageURLs = result.URLs
		if m.Metadata != nil {
			m.Metadata.Created = result.Created
			m.Metadata.Description = result.RevisedPrompt
			if m.Metadata.Description == "" {
				m.Metadata.Description = prompt
			}
		}
		return m
	})
}

// finalize commits the terminal state transitions of a send workflow. On
// success the placeholder is resolved via resolvePlaceholder; on failure
// only the user message moves to error and the placeholder stays as-is,
// visibly marking the incomplete reply.
func (s *Store) finalize(sessID, userID, placeholderID, prompt string, sendErr error, resolvePlaceholder func(chatflow.Message) chatflow.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if sendErr != nil {
		s.lastErr = sendErr.Error()
		s.updateMessageLocked(sessID, userID, func(m chatflow.Message) chatflow.Message {
			return m.Resolve(chatflow.StatusError)
		})
		s.persistOrLogLocked()
		s.logger.Warn("send failed", "session", sessID, "error", sendErr)
		return sendErr
	}

	s.updateMessageLocked(sessID, userID, func(m chatflow.Message) chatflow.Message {
		return m.Resolve(chatflow.StatusSuccess)
	})
	s.updateMessageLocked(sessID, placeholderID, resolvePlaceholder)

	if sess := s.findLocked(sessID); sess != nil && len(sess.Messages) == 2 {
		sess.Title = deriveTitle(prompt)
	}
	return s.persistLocked()
}

// appendLocked appends a message and bumps the session's UpdatedAt.
func (s *Store) appendLocked(sess *Session, m chatflow.Message) {
	sess.Messages = append(sess.Messages, m)
	sess.UpdatedAt = s.now()
}

// updateMessageLocked replaces one message via fn, producing a new message
// list so no caller-held snapshot aliases the canonical slice.
func (s *Store) updateMessageLocked(sessID, msgID string, fn func(chatflow.Message) chatflow.Message) {
	sess := s.findLocked(sessID)
	if sess == nil {
		return
	}
	messages := make([]chatflow.Message, len(sess.Messages))
	copy(messages, sess.Messages)
	for i := range messages {
		if messages[i].ID == msgID {
			messages[i] = fn(messages[i])
			break
		}
	}
	sess.Messages = messages
	sess.UpdatedAt = s.now()
}

// historyLocked builds the outbound role/content history, excluding the
// just-appended placeholder and any message with no content (stale
// placeholders from interrupted sends).
func (s *Store) historyLocked(sess *Session, placeholderID string) []openai.ChatMessage {
	history := make([]openai.ChatMessage, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		if m.ID == placeholderID || m.Content == "" {
			continue
		}
		history = append(history, openai.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return history
}
