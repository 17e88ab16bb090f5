package services

import (
	"fmt"
	"sync"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// RunGuard rejects a second concurrent operation on the same generation.
// It is advisory and per process; callers sharing a database across
// processes get no protection from it.
type RunGuard struct {
	mu     sync.Mutex
	active map[string]string
}

// NewRunGuard creates an empty guard.
func NewRunGuard() *RunGuard {
	return &RunGuard{active: make(map[string]string)}
}

// Acquire marks id busy with op. The returned release must be called once
// the operation ends. Returns domain.ErrRunInProgress when id is busy.
func (g *RunGuard) Acquire(id, op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, busy := g.active[id]; busy {
		return nil, fmt.Errorf("%w: %s is running %s", domain.ErrRunInProgress, id, current)
	}
	g.active[id] = op

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
		})
	}, nil
}

// Active returns the operation currently running on id.
func (g *RunGuard) Active(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	op, ok := g.active[id]
	return op, ok
}
