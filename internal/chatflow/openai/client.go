// Package openai is the transport adapter for an OpenAI-compatible API:
// chat completions (streamed and not) and image generations. It owns the
// HTTP mechanics only; conversation state lives in the store.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chatflow/internal/chatflow/stream"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout applies to non-streamed requests.
	DefaultTimeout = 60 * time.Second
)

// Config holds the connection settings for the client.
type Config struct {
	BaseURL     string
	Token       string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// RequestOptions override the configured defaults for a single request.
// Overrides win on collision.
type RequestOptions struct {
	Model       string
	Temperature *float64
	// System, when non-empty, is prepended to the outbound history as a
	// system message.
	System string
}

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	cfg    Config
	client *http.Client
	// streamClient has no overall timeout; streamed responses are bounded
	// by the caller's context instead.
	streamClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a client. Zero-value config fields fall back to the
// package defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:          cfg,
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
		logger:       logger,
	}
}

// buildChatRequest merges configured defaults with per-request overrides.
func (c *Client) buildChatRequest(history []ChatMessage, opts *RequestOptions, streamed bool) ChatRequest {
	req := ChatRequest{
		Model:       c.cfg.Model,
		Messages:    history,
		Temperature: c.cfg.Temperature,
		Stream:      streamed,
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.System != "" {
			req.Messages = append([]ChatMessage{{Role: "system", Content: opts.System}}, history...)
		}
	}
	return req
}

func (c *Client) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return req, nil
}

// Chat sends a non-streamed chat completion and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, history []ChatMessage, opts *RequestOptions) (ChatMessage, error) {
	req, err := c.newRequest(ctx, "/chat/completions", c.buildChatRequest(history, opts, false))
	if err != nil {
		return ChatMessage{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ChatMessage{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed ChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ChatMessage{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return ChatMessage{}, fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message, nil
}

// StreamChat sends a streamed chat completion. The response body is read
// incrementally; after each read the cumulative text is run through the
// decode session, which forwards the growing full text to onProgress. The
// returned message carries the final resolved text, authoritative over any
// partially observed progress.
func (c *Client) StreamChat(ctx context.Context, history []ChatMessage, opts *RequestOptions, onProgress func(string)) (ChatMessage, error) {
	req, err := c.newRequest(ctx, "/chat/completions", c.buildChatRequest(history, opts, true))
	if err != nil {
		return ChatMessage{}, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return ChatMessage{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	sess := stream.NewSession(onProgress)
	var cumulative strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			cumulative.Write(buf[:n])
			sess.Observe(cumulative.String())
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ChatMessage{}, fmt.Errorf("stream aborted: %w", ctx.Err())
			}
			return ChatMessage{}, fmt.Errorf("reading stream: %w", err)
		}
	}

	text, err := sess.Finalize(cumulative.String())
	if err != nil {
		return ChatMessage{}, err
	}
	c.logger.Debug("stream complete", "bytes", cumulative.Len(), "chars", len(text))
	return ChatMessage{Role: "assistant", Content: text}, nil
}
