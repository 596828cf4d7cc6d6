package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatflow/internal/chatflow"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:     url,
		Token:       "test-token",
		Model:       "test-model",
		Temperature: 0.5,
	}, nil)
}

func sseLine(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestStreamChat(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", accept)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		flusher := w.(http.Flusher)
		for _, chunk := range []string{sseLine("Hel"), sseLine("lo"), sseLine(" world"), "data: [DONE]\n\n"} {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var ticks []string
	c := newTestClient(srv.URL)
	msg, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil, func(text string) {
		ticks = append(ticks, text)
	})
	if err != nil {
		t.Fatalf("StreamChat returned error: %v", err)
	}

	if msg.Role != "assistant" || msg.Content != "Hello world" {
		t.Errorf("reply = %+v, want assistant/Hello world", msg)
	}
	if len(ticks) == 0 || ticks[len(ticks)-1] != "Hello world" {
		t.Errorf("progress ticks = %v, want final tick %q", ticks, "Hello world")
	}
	for i := 1; i < len(ticks); i++ {
		if !strings.HasPrefix(ticks[i], ticks[i-1]) {
			t.Errorf("progress text shrank: %q -> %q", ticks[i-1], ticks[i])
		}
	}

	if !gotReq.Stream {
		t.Error("request stream = false, want true")
	}
	if gotReq.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", gotReq.Model)
	}
}

func TestStreamChatOverridesWin(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprint(w, sseLine("ok"))
	}))
	defer srv.Close()

	temp := 1.3
	c := newTestClient(srv.URL)
	_, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, &RequestOptions{
		Model:       "other-model",
		Temperature: &temp,
		System:      "be terse",
	}, nil)
	if err != nil {
		t.Fatalf("StreamChat returned error: %v", err)
	}

	if gotReq.Model != "other-model" {
		t.Errorf("model = %q, want other-model", gotReq.Model)
	}
	if gotReq.Temperature != 1.3 {
		t.Errorf("temperature = %v, want 1.3", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system message first", gotReq.Messages)
	}
}

func TestStreamChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.StreamChat(context.Background(), nil, nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
}

func TestStreamChatEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.StreamChat(context.Background(), nil, nil, nil)
	if !errors.Is(err, chatflow.ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestStreamChatCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseLine("partial"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(srv.URL)

	progressed := make(chan struct{}, 1)
	go func() {
		<-progressed
		cancel()
	}()

	_, err := c.StreamChat(ctx, nil, nil, func(string) {
		select {
		case progressed <- struct{}{}:
		default:
		}
	})
	if err == nil {
		t.Fatal("StreamChat returned nil error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestChatNonStreamed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("request stream = true, want false")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "pong"}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	msg, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "ping"}}, nil)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if msg.Content != "pong" {
		t.Errorf("content = %q, want pong", msg.Content)
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ImageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "a lighthouse" {
			t.Errorf("prompt = %q, want a lighthouse", req.Prompt)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []map[string]string{
				{"url": "https://img.example/1.png", "revised_prompt": "a tall lighthouse at dusk"},
				{"b64_json": "aGVsbG8="},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.GenerateImage(context.Background(), "a lighthouse", ImageOptions{N: 2})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}

	if result.Created != 1700000000 {
		t.Errorf("created = %d, want 1700000000", result.Created)
	}
	if len(result.URLs) != 2 {
		t.Fatalf("urls = %v, want 2 entries", result.URLs)
	}
	if result.URLs[0] != "https://img.example/1.png" {
		t.Errorf("url[0] = %q", result.URLs[0])
	}
	if !strings.HasPrefix(result.URLs[1], "data:image/png;base64,") {
		t.Errorf("url[1] = %q, want data url", result.URLs[1])
	}
	if result.RevisedPrompt != "a tall lighthouse at dusk" {
		t.Errorf("revised prompt = %q", result.RevisedPrompt)
	}
}

func TestValidateImageRequest(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		opts    ImageOptions
		wantErr bool
	}{
		{name: "defaults ok", prompt: "a cat", opts: ImageOptions{}, wantErr: false},
		{name: "empty prompt", prompt: "", opts: ImageOptions{}, wantErr: true},
		{name: "prompt too long", prompt: strings.Repeat("x", 1001), opts: ImageOptions{}, wantErr: true},
		{name: "too many images", prompt: "a cat", opts: ImageOptions{N: 11}, wantErr: true},
		{name: "negative count", prompt: "a cat", opts: ImageOptions{N: -1}, wantErr: true},
		{name: "unsupported size", prompt: "a cat", opts: ImageOptions{Size: "640x480"}, wantErr: true},
		{name: "supported size", prompt: "a cat", opts: ImageOptions{Size: "256x256"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageRequest(tt.prompt, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
