package stream

import "chatflow/internal/chatflow"

// Session runs the decode side of one streamed exchange. The transport calls
// Observe with the cumulative response text after each read, then Finalize
// once the stream ends. Progress is forwarded to the callback as the growing
// full text.
type Session struct {
	dec *Decoder
	acc *Accumulator
}

// NewSession creates a session. onProgress may be nil.
func NewSession(onProgress func(string)) *Session {
	return &Session{
		dec: NewDecoder(),
		acc: NewAccumulator(onProgress),
	}
}

// Observe decodes any frames that appeared since the last notification.
// buffer must be the entire response text received so far.
func (s *Session) Observe(buffer string) {
	for _, delta := range s.dec.Feed(buffer) {
		s.acc.Add(delta)
	}
	if s.dec.Done() {
		s.acc.Close()
	}
}

// Finalize decodes a trailing unterminated line, closes the stream, and
// returns the full text. A stream that produced no content resolves to
// chatflow.ErrEmptyResponse.
func (s *Session) Finalize(buffer string) (string, error) {
	for _, delta := range s.dec.Flush(buffer) {
		s.acc.Add(delta)
	}
	s.acc.Close()
	text := s.acc.Text()
	if text == "" {
		return "", chatflow.ErrEmptyResponse
	}
	return text, nil
}

// Text returns the text accumulated so far.
func (s *Session) Text() string {
	return s.acc.Text()
}
