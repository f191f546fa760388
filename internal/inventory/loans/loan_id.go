package loans

import (
	"strconv"
	"sync"
	"time"
)

const borrowIDPrefix = "BRW-"

// IDGenerator issues BRW-<epoch millis> ids. Two calls within the same
// millisecond still get distinct ids.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis

	return borrowIDPrefix + strconv.FormatInt(millis, 10)
}
