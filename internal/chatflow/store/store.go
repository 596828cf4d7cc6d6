// Package store owns the conversation state: the session set, the
// send-message and send-image workflows, and the persistence round-trips.
// Every mutation is followed by a synchronous whole-store snapshot write, so
// a crash mid-stream loses at most the last unpersisted delta.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chatflow/internal/chatflow"
	"chatflow/internal/chatflow/persist"
)

// Blob keys used by the store.
const (
	sessionsKey = "chat_sessions"
	apiKeyKey   = "openai_api_key"
)

// Store holds the session set and drives the send workflows. Methods are
// safe for concurrent use; whole send workflows are additionally serialized
// so two sends never interleave writes to a session's message list.
type Store struct {
	// sendMu serializes send workflows end to end.
	sendMu sync.Mutex
	// mu guards all state below.
	mu sync.Mutex

	client Completer
	blob   persist.Blob
	logger *slog.Logger
	now    func() time.Time
	ids    *chatflow.IDGenerator

	current  string
	sessions []*Session
	loading  bool
	lastErr  string

	// onAssistantProgress, when set, is invoked after each streamed delta
	// has been applied and persisted. Used by the CLI to render the growing
	// reply; the store never depends on it.
	onAssistantProgress func(sessionID, messageID, text string)
}

// New creates a store backed by the given transport and blob adapters.
func New(client Completer, blob persist.Blob, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		blob:   blob,
		logger: logger,
		now:    time.Now,
		ids:    chatflow.NewIDGenerator(),
	}
}

// SetOnAssistantProgress registers a render callback for streamed replies.
func (s *Store) SetOnAssistantProgress(fn func(sessionID, messageID, text string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAssistantProgress = fn
}

// Load restores the session set from the blob store. A missing blob is a
// fresh store, not an error. The current session becomes the most recently
// updated one.
func (s *Store) Load() error {
	raw, ok, err := s.blob.Read(sessionsKey)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var sessions []*Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return fmt.Errorf("parsing session store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.current = ""
	if head := firstByUpdated(sessions); head != nil {
		s.current = head.ID
	}
	return nil
}

// persistLocked serializes the whole session set and writes it through the
// blob adapter. Callers must hold mu.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("serializing sessions: %w", err)
	}
	if err := s.blob.Write(sessionsKey, string(data)); err != nil {
		return fmt.Errorf("persisting sessions: %w", err)
	}
	return nil
}

// persistOrLogLocked persists and only logs failures. Used inside the send
// workflows, where a disk hiccup must not abort an in-flight stream.
func (s *Store) persistOrLogLocked() {
	if err := s.persistLocked(); err != nil {
		s.logger.Warn("persist failed", "error", err)
	}
}

func (s *Store) findLocked(id string) *Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func (s *Store) currentLocked() *Session {
	if s.current == "" {
		return nil
	}
	return s.findLocked(s.current)
}

// firstByUpdated returns the session with the newest UpdatedAt, the head of
// the store's display ordering.
func firstByUpdated(sessions []*Session) *Session {
	var head *Session
	for _, sess := range sessions {
		if head == nil || sess.UpdatedAt.After(head.UpdatedAt) {
			head = sess
		}
	}
	return head
}

// Sessions returns copies of all sessions, most recently updated first.
func (s *Store) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// CurrentSessionID returns the selected session id, or "" when none is
// selected.
func (s *Store) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentSession returns a copy of the selected session.
func (s *Store) CurrentSession() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.currentLocked()
	if sess == nil {
		return nil, false
	}
	return sess.clone(), true
}

// Loading reports whether a send workflow is in flight. Advisory only.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last send failure's human-readable cause, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// CreateSession creates an empty session, selects it, persists, and returns
// a copy.
func (s *Store) CreateSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.createSessionLocked()
	return sess.clone(), s.persistLocked()
}

func (s *Store) createSessionLocked() *Session {
	sess := newSession(s.now())
	s.sessions = append(s.sessions, sess)
	s.current = sess.ID
	return sess
}

// SwitchSession selects an existing session.
func (s *Store) SwitchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return fmt.Errorf("%w: %s", chatflow.ErrSessionNotFound, id)
	}
	s.current = id
	return nil
}

// ClearCurrentSession empties the selected session's message list, keeping
// the session itself.
func (s *Store) ClearCurrentSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.currentLocked()
	if sess == nil {
		return chatflow.ErrNoCurrentSession
	}
	sess.Messages = []chatflow.Message{}
	sess.UpdatedAt = s.now()
	return s.persistLocked()
}

// DeleteSession removes a session. When the selected session is deleted the
// selection moves to the head of the display ordering among the remaining
// sessions, or to none.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", chatflow.ErrSessionNotFound, id)
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if s.current == id {
		s.current = ""
		if head := firstByUpdated(s.sessions); head != nil {
			s.current = head.ID
		}
	}
	return s.persistLocked()
}

// UpdateSessionTitle sets a session title explicitly, independent of the
// auto-derivation rule.
func (s *Store) UpdateSessionTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findLocked(id)
	if sess == nil {
		return fmt.Errorf("%w: %s", chatflow.ErrSessionNotFound, id)
	}
	sess.Title = title
	sess.UpdatedAt = s.now()
	return s.persistLocked()
}

// ReadAPIKey reads the stored bearer credential straight from a blob
// adapter, for callers that need it before a Store exists.
func ReadAPIKey(blob persist.Blob) (string, error) {
	key, _, err := blob.Read(apiKeyKey)
	return key, err
}

// APIKey reads the stored bearer credential, or "".
func (s *Store) APIKey() (string, error) {
	key, _, err := s.blob.Read(apiKeyKey)
	return key, err
}

// SetAPIKey stores the bearer credential.
func (s *Store) SetAPIKey(key string) error {
	return s.blob.Write(apiKeyKey, key)
}
