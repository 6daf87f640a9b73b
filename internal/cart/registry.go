package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arcay3dlabs/storefront/pkg/logger"
)

// Registry maps browsing session ids to their carts. Carts live in memory
// only and idle ones are dropped by Sweep.
type Registry struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	idleTTL time.Duration
	now     func() time.Time
}

func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{carts: map[string]*Cart{}, idleTTL: idleTTL, now: time.Now}
}

// Get returns the session's cart, creating an empty one on first use. A
// fetched cart counts as used, so Sweep keeps it.
func (r *Registry) Get(sessionID string) *Cart {
	sessionID = strings.TrimSpace(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[sessionID]; ok {
		c.markUsed()
		return c
	}
	c := newWithClock(r.now)
	r.carts[sessionID] = c
	return c
}

// Peek returns the session's cart without creating one.
func (r *Registry) Peek(sessionID string) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[strings.TrimSpace(sessionID)]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Sweep drops carts untouched for longer than the idle TTL and returns how
// many were removed. Carts mid checkout are kept.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, c := range r.carts {
		touched, busy := c.idleSince()
		if busy || touched.After(cutoff) {
			continue
		}
		delete(r.carts, id)
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration, logg *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 && logg != nil {
				logg.Info(logg.WithField(ctx, "removed", removed), "cart.sweep")
			}
		}
	}
}
