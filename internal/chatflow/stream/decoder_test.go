package stream

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// frameLine builds one well-formed streamed line carrying a content delta.
func frameLine(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n", content)
}

func TestDecoderGrowingBuffer(t *testing.T) {
	d := NewDecoder()

	b1 := frameLine("Hel")
	b2 := b1 + frameLine("lo")
	b3 := b2 + frameLine(", world") + "data: [DONE]\n"

	if got := d.Feed(b1); !reflect.DeepEqual(got, []string{"Hel"}) {
		t.Errorf("Feed(b1) = %v, want [Hel]", got)
	}
	if got := d.Feed(b2); !reflect.DeepEqual(got, []string{"lo"}) {
		t.Errorf("Feed(b2) = %v, want [lo]", got)
	}
	if got := d.Feed(b3); !reflect.DeepEqual(got, []string{", world"}) {
		t.Errorf("Feed(b3) = %v, want [, world]", got)
	}
	if !d.Done() {
		t.Error("Done() = false after sentinel")
	}
}

func TestDecoderRepeatedSnapshotEmitsNothing(t *testing.T) {
	d := NewDecoder()
	buf := frameLine("abc") + frameLine("def")

	first := d.Feed(buf)
	if !reflect.DeepEqual(first, []string{"abc", "def"}) {
		t.Fatalf("Feed = %v, want [abc def]", first)
	}
	// The transport may re-deliver the same cumulative buffer.
	for i := 0; i < 3; i++ {
		if got := d.Feed(buf); got != nil {
			t.Errorf("Feed(repeat %d) = %v, want nil", i, got)
		}
	}
}

func TestDecoderOneShotEqualsIncremental(t *testing.T) {
	lines := []string{frameLine("a"), frameLine("b"), frameLine("c"), frameLine("d")}
	full := strings.Join(lines, "")

	oneShot := NewDecoder().Feed(full)

	incremental := NewDecoder()
	var got []string
	buf := ""
	for _, line := range lines {
		buf += line
		got = append(got, incremental.Feed(buf)...)
	}

	if !reflect.DeepEqual(got, oneShot) {
		t.Errorf("incremental = %v, one-shot = %v", got, oneShot)
	}
}

func TestDecoderMalformedLineBetweenFrames(t *testing.T) {
	d := NewDecoder()
	buf := frameLine("good1") +
		"data: {\"choices\":[{\"delta\":\n" + // malformed, truncated JSON
		frameLine("good2")

	got := d.Feed(buf)
	if !reflect.DeepEqual(got, []string{"good1", "good2"}) {
		t.Errorf("Feed = %v, want [good1 good2]", got)
	}
}

func TestDecoderLineSplitAcrossNotifications(t *testing.T) {
	d := NewDecoder()
	line := frameLine("hello")
	half := line[:len(line)/2]

	// Half a line, no boundary yet: nothing to emit, nothing consumed.
	if got := d.Feed(half); got != nil {
		t.Fatalf("Feed(half) = %v, want nil", got)
	}
	// The same physical line, now complete, decodes exactly once.
	if got := d.Feed(line); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("Feed(full) = %v, want [hello]", got)
	}
	if got := d.Feed(line); got != nil {
		t.Errorf("Feed(full again) = %v, want nil", got)
	}
}

func TestDecoderSplitAtNewlineBoundary(t *testing.T) {
	d := NewDecoder()
	// A complete line plus the opening bytes of the next one. Only the
	// complete line may be consumed.
	buf := frameLine("one") + "data: {\"choi"
	if got := d.Feed(buf); !reflect.DeepEqual(got, []string{"one"}) {
		t.Fatalf("Feed = %v, want [one]", got)
	}
	buf = frameLine("one") + frameLine("two")
	if got := d.Feed(buf); !reflect.DeepEqual(got, []string{"two"}) {
		t.Errorf("Feed = %v, want [two]", got)
	}
}

func TestDecoderSkipsBlankAndEmptyPayloadLines(t *testing.T) {
	d := NewDecoder()
	buf := "\n  \n" + "data:\n" + "data:   \n" + frameLine("x") + "\n"
	if got := d.Feed(buf); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Feed = %v, want [x]", got)
	}
}

func TestDecoderSentinelIsNotContent(t *testing.T) {
	d := NewDecoder()
	if got := d.Feed("data: [DONE]\n"); got != nil {
		t.Errorf("Feed = %v, want nil", got)
	}
	if !d.Done() {
		t.Error("Done() = false, want true")
	}
	// Nothing decodes after the sentinel.
	if got := d.Feed("data: [DONE]\n" + frameLine("late")); got != nil {
		t.Errorf("Feed after done = %v, want nil", got)
	}
}

func TestDecoderEmptyDeltaSkipped(t *testing.T) {
	d := NewDecoder()
	buf := "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n"
	if got := d.Feed(buf); got != nil {
		t.Errorf("Feed = %v, want nil", got)
	}
}

func TestDecoderFlushDecodesTrailingLine(t *testing.T) {
	d := NewDecoder()
	line := strings.TrimSuffix(frameLine("tail"), "\n")

	if got := d.Feed(line); got != nil {
		t.Fatalf("Feed = %v, want nil", got)
	}
	if got := d.Flush(line); !reflect.DeepEqual(got, []string{"tail"}) {
		t.Errorf("Flush = %v, want [tail]", got)
	}
	if got := d.Flush(line); got != nil {
		t.Errorf("second Flush = %v, want nil", got)
	}
}
