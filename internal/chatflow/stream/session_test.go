package stream

import (
	"errors"
	"reflect"
	"testing"

	"chatflow/internal/chatflow"
)

func TestSessionObserveAndFinalize(t *testing.T) {
	var ticks []string
	s := NewSession(func(text string) { ticks = append(ticks, text) })

	b1 := frameLine("Hi ")
	b2 := b1 + frameLine("there")
	b3 := b2 + "data: [DONE]\n"

	s.Observe(b1)
	s.Observe(b2)
	s.Observe(b2) // re-delivered snapshot
	s.Observe(b3)

	text, err := s.Finalize(b3)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if text != "Hi there" {
		t.Errorf("Finalize = %q, want %q", text, "Hi there")
	}
	if want := []string{"Hi ", "Hi there"}; !reflect.DeepEqual(ticks, want) {
		t.Errorf("progress ticks = %v, want %v", ticks, want)
	}
}

func TestSessionFinalizeDecodesTrailingLine(t *testing.T) {
	s := NewSession(nil)
	buf := "data: {\"choices\":[{\"delta\":{\"content\":\"tail\"}}]}"

	s.Observe(buf)
	text, err := s.Finalize(buf)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if text != "tail" {
		t.Errorf("Finalize = %q, want %q", text, "tail")
	}
}

func TestSessionEmptyStreamFails(t *testing.T) {
	s := NewSession(nil)
	buf := "data: [DONE]\n"
	s.Observe(buf)

	_, err := s.Finalize(buf)
	if !errors.Is(err, chatflow.ErrEmptyResponse) {
		t.Errorf("Finalize error = %v, want ErrEmptyResponse", err)
	}
}

func TestSessionIgnoresContentAfterSentinel(t *testing.T) {
	s := NewSession(nil)
	b1 := frameLine("real") + "data: [DONE]\n"
	b2 := b1 + frameLine("phantom")

	s.Observe(b1)
	s.Observe(b2)

	text, err := s.Finalize(b2)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if text != "real" {
		t.Errorf("Finalize = %q, want %q", text, "real")
	}
}
