package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs hands out predictable run IDs shaped like UUIDv7 strings.
//
// The first call to Next returns "00000000-0000-7000-8000-000000000001".
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialRunIDs struct {
	mu sync.Mutex
	n  int64
}

// NewSequentialRunIDs creates a generator starting at 1.
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// Next returns the next run ID.
func (g *SequentialRunIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}
