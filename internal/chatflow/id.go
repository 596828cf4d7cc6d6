package chatflow

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator issues message ids that sort strictly increasing, even for
// messages created within the same millisecond. Ids are the zero-padded unix
// millisecond timestamp plus a per-millisecond sequence, so lexicographic
// order equals creation order.
type IDGenerator struct {
	mu     sync.Mutex
	millis int64
	seq    int
}

// NewIDGenerator creates a generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id for the given timestamp. A timestamp at or before
// the previous one reuses the previous millisecond and bumps the sequence,
// so ids stay monotonic across clock stalls.
func (g *IDGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= g.millis {
		ms = g.millis
		g.seq++
	} else {
		g.millis = ms
		g.seq = 0
	}
	return fmt.Sprintf("%013d-%04d", ms, g.seq)
}
