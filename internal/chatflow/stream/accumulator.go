package stream

import "strings"

// Accumulator folds content deltas into the running full text, invoking the
// progress callback after every non-empty delta. Once closed (the decoder
// saw the termination sentinel, or the stream finished) further deltas are
// ignored.
type Accumulator struct {
	b          strings.Builder
	closed     bool
	onProgress func(string)
}

// NewAccumulator creates an accumulator. onProgress may be nil.
func NewAccumulator(onProgress func(string)) *Accumulator {
	return &Accumulator{onProgress: onProgress}
}

// Add appends a delta and returns the full text so far.
func (a *Accumulator) Add(delta string) string {
	if a.closed || delta == "" {
		return a.b.String()
	}
	a.b.WriteString(delta)
	full := a.b.String()
	if a.onProgress != nil {
		a.onProgress(full)
	}
	return full
}

// Close stops the accumulator; subsequent Adds are no-ops.
func (a *Accumulator) Close() {
	a.closed = true
}

// Text returns the full accumulated text.
func (a *Accumulator) Text() string {
	return a.b.String()
}
