package result

import "sync/atomic"

// IDGenerator issues unique incremental IDs for tracks and detections.
// Safe for concurrent use across sources.
type IDGenerator struct {
	last atomic.Int64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next ID in the sequence, starting at 1.
func (g *IDGenerator) Next() int64 {
	return g.last.Add(1)
}
