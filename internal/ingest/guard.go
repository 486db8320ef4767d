package ingest

import (
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned when a pass is requested while another one is
// still active in this process.
var ErrAlreadyRunning = errors.New("ingestion pass already running")

// runGuard serializes passes within a single process. It is not a distributed
// lock: running two instances against the same store is unsupported.
type runGuard struct {
	mu      sync.Mutex
	running bool
}

func (g *runGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *runGuard) release() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *runGuard) active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
