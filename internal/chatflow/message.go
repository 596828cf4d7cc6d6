package chatflow

import (
	"fmt"
	"time"
)

// MessageType discriminates the message union.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks the delivery state of a message. A message starts in
// StatusSending and moves exactly once, to StatusSuccess or StatusError.
type Status string

const (
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ImageMetadata describes a generated image batch.
type ImageMetadata struct {
	Size        string `json:"size"`
	N           int    `json:"n"`
	Model       string `json:"model,omitempty"`
	Created     int64  `json:"created"`
	Description string `json:"description,omitempty"`
}

// Message is a single entry in a conversation. Type selects the variant:
// text messages carry only Content, image messages additionally carry the
// generated ImageURLs and Metadata (Content holds the prompt).
type Message struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Status    Status         `json:"status"`
	ImageURLs []string       `json:"image_urls,omitempty"`
	Metadata  *ImageMetadata `json:"metadata,omitempty"`
}

// NewTextMessage creates a text message in StatusSending.
func NewTextMessage(id string, role Role, content string, now time.Time) Message {
	return Message{
		ID:        id,
		Type:      MessageText,
		Role:      role,
		Content:   content,
		Timestamp: now,
		Status:    StatusSending,
	}
}

// NewImageMessage creates an image message in StatusSending. The prompt is
// stored as Content; ImageURLs starts empty and is filled on success.
func NewImageMessage(id string, role Role, prompt string, meta *ImageMetadata, now time.Time) Message {
	return Message{
		ID:        id,
		Type:      MessageImage,
		Role:      role,
		Content:   prompt,
		Timestamp: now,
		Status:    StatusSending,
		ImageURLs: []string{},
		Metadata:  meta,
	}
}

// Resolve returns a copy of the message moved to the given terminal status.
// A message that has already left StatusSending is returned unchanged;
// status never reverses and never skips sending.
func (m Message) Resolve(to Status) Message {
	if m.Status != StatusSending {
		return m
	}
	if to != StatusSuccess && to != StatusError {
		return m
	}
	m.Status = to
	return m
}

// Validate checks per-variant invariants.
func (m Message) Validate() error {
	switch m.Type {
	case MessageText:
		if m.ImageURLs != nil || m.Metadata != nil {
			return fmt.Errorf("text message %s carries image fields", m.ID)
		}
	case MessageImage:
		if m.ImageURLs == nil {
			return fmt.Errorf("image message %s has nil image_urls", m.ID)
		}
	default:
		return fmt.Errorf("message %s has unknown type %q", m.ID, m.Type)
	}
	switch m.Status {
	case StatusSending, StatusSuccess, StatusError:
	default:
		return fmt.Errorf("message %s has unknown status %q", m.ID, m.Status)
	}
	return nil
}
