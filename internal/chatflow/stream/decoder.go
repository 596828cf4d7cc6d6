// Package stream implements the incremental decode protocol for streamed
// chat responses. The transport reports the entire response text received so
// far on every notification, not a byte delta, so the decoder diffs each
// cumulative buffer against the portion it has already consumed and emits
// every content delta exactly once.
package stream

import (
	"encoding/json"
	"strings"
)

const (
	// fieldPrefix is the SSE field marker in front of each frame payload.
	fieldPrefix = "data:"
	// doneSentinel marks end-of-stream. It is not content.
	doneSentinel = "[DONE]"
)

// frame is the wire shape of one streamed line.
type frame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Decoder turns a monotonically growing response buffer into discrete
// content deltas. Feed it the full buffer observed so far on every
// notification; it returns only the deltas that appeared since the previous
// call and never re-emits content, even when the same buffer is delivered
// more than once.
type Decoder struct {
	// consumed is the byte offset of the buffer already decoded. It only
	// advances past complete lines, so a line delivered half-written is
	// presented again, whole, on a later call.
	consumed int
	done     bool
}

// NewDecoder creates a decoder for one stream.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed decodes the complete lines that appeared since the previous call and
// returns their content deltas in order. buffer must be the entire response
// text received so far.
func (d *Decoder) Feed(buffer string) []string {
	if d.done || len(buffer) <= d.consumed {
		return nil
	}
	span := buffer[d.consumed:]
	end := strings.LastIndexByte(span, '\n')
	if end < 0 {
		// No line boundary yet; wait for more bytes.
		return nil
	}
	d.consumed += end + 1
	return d.decodeLines(span[:end])
}

// Flush decodes a trailing line that was never newline-terminated. Call it
// once, when the transport reports completion.
func (d *Decoder) Flush(buffer string) []string {
	if d.done || len(buffer) <= d.consumed {
		return nil
	}
	span := buffer[d.consumed:]
	d.consumed = len(buffer)
	return d.decodeLines(span)
}

// Done reports whether the termination sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) decodeLines(s string) []string {
	var deltas []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, doneSentinel) {
			d.done = true
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, fieldPrefix))
		if payload == "" {
			continue
		}
		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			// Malformed or partial JSON. Expected when a frame is split
			// across notifications; skip the line and keep decoding.
			continue
		}
		if len(f.Choices) == 0 {
			continue
		}
		if content := f.Choices[0].Delta.Content; content != "" {
			deltas = append(deltas, content)
		}
	}
	return deltas
}
