package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultImageModel is used when no image model is configured.
	DefaultImageModel = "dall-e-3"
	// DefaultImageSize is the default generation size.
	DefaultImageSize = "1024x1024"

	maxPromptLength = 1000
	maxImages       = 10
)

// SupportedImageSizes lists the sizes accepted by the generation endpoint.
var SupportedImageSizes = []string{"256x256", "512x512", "1024x1024"}

// ImageOptions configure one image generation request.
type ImageOptions struct {
	Model          string
	N              int
	Size           string
	ResponseFormat string
}

func (o ImageOptions) withDefaults() ImageOptions {
	if o.Model == "" {
		o.Model = DefaultImageModel
	}
	if o.N == 0 {
		o.N = 1
	}
	if o.Size == "" {
		o.Size = DefaultImageSize
	}
	if o.ResponseFormat == "" {
		o.ResponseFormat = "url"
	}
	return o
}

// ValidateImageRequest checks the prompt and options against the endpoint's
// limits before any network traffic.
func ValidateImageRequest(prompt string, opts ImageOptions) error {
	opts = opts.withDefaults()
	if prompt == "" || len([]rune(prompt)) > maxPromptLength {
		return fmt.Errorf("prompt must be 1-%d characters", maxPromptLength)
	}
	if opts.N < 1 || opts.N > maxImages {
		return fmt.Errorf("image count must be 1-%d", maxImages)
	}
	for _, size := range SupportedImageSizes {
		if opts.Size == size {
			return nil
		}
	}
	return fmt.Errorf("unsupported image size %q (supported: %s)", opts.Size, strings.Join(SupportedImageSizes, ", "))
}

// GenerateImage requests image generation for the prompt and returns the
// resulting URLs. When the endpoint returns base64 payloads they are wrapped
// as data URLs so callers handle one representation.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*ImageResult, error) {
	opts = opts.withDefaults()
	if err := ValidateImageRequest(prompt, opts); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, "/images/generations", ImageRequest{
		Model:          opts.Model,
		Prompt:         prompt,
		N:              opts.N,
		Size:           opts.Size,
		ResponseFormat: opts.ResponseFormat,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed ImageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("no images in response")
	}

	result := &ImageResult{Created: parsed.Created}
	for _, d := range parsed.Data {
		switch {
		case d.URL != "":
			result.URLs = append(result.URLs, d.URL)
		case d.B64JSON != "":
			result.URLs = append(result.URLs, "data:image/png;base64,"+d.B64JSON)
		}
		if result.RevisedPrompt == "" && d.RevisedPrompt != "" {
			result.RevisedPrompt = d.RevisedPrompt
		}
	}
	return result, nil
}
