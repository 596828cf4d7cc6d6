package stream

import (
	"reflect"
	"testing"
)

func TestAccumulatorConcatenatesInOrder(t *testing.T) {
	var ticks []string
	a := NewAccumulator(func(text string) { ticks = append(ticks, text) })

	a.Add("Hel")
	a.Add("lo")
	got := a.Add("!")

	if got != "Hello!" {
		t.Errorf("Add returned %q, want %q", got, "Hello!")
	}
	if a.Text() != "Hello!" {
		t.Errorf("Text() = %q, want %q", a.Text(), "Hello!")
	}
	want := []string{"Hel", "Hello", "Hello!"}
	if !reflect.DeepEqual(ticks, want) {
		t.Errorf("progress ticks = %v, want %v", ticks, want)
	}
}

func TestAccumulatorSkipsEmptyDeltas(t *testing.T) {
	calls := 0
	a := NewAccumulator(func(string) { calls++ })

	a.Add("")
	a.Add("x")
	a.Add("")

	if calls != 1 {
		t.Errorf("progress calls = %d, want 1", calls)
	}
}

func TestAccumulatorClosedIgnoresDeltas(t *testing.T) {
	a := NewAccumulator(nil)
	a.Add("keep")
	a.Close()
	a.Add("drop")

	if a.Text() != "keep" {
		t.Errorf("Text() = %q, want %q", a.Text(), "keep")
	}
}

func TestAccumulatorNilCallback(t *testing.T) {
	a := NewAccumulator(nil)
	if got := a.Add("ok"); got != "ok" {
		t.Errorf("Add = %q, want %q", got, "ok")
	}
}
