package cluster

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoGateway = errors.New("no gateway configured")

// Router maps slots to gateway addresses.
type Router struct {
	mu     sync.RWMutex
	owners []string
}

// NewRouter splits the partitioner's slots into even contiguous ranges, one
// per gateway, in the given order.
func NewRouter(p Partitioner, gateways []string) (*Router, error) {
	if len(gateways) == 0 {
		return nil, ErrNoGateway
	}
	if p.Slots <= 0 {
		return nil, fmt.Errorf("invalid slot count %d", p.Slots)
	}
	owners := make([]string, p.Slots)
	for slot := range owners {
		owners[slot] = gateways[slot*len(gateways)/p.Slots]
	}
	return &Router{owners: owners}, nil
}

// Assign moves the slots in [from, to] to addr.
func (r *Router) Assign(from, to int, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from < 0 || to >= len(r.owners) || from > to {
		return fmt.Errorf("slot range %d-%d out of bounds [0, %d)", from, to, len(r.owners))
	}
	for slot := from; slot <= to; slot++ {
		r.owners[slot] = addr
	}
	return nil
}

// Pick returns the gateway owning slot.
func (r *Router) Pick(slot int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if slot < 0 || slot >= len(r.owners) {
		return "", fmt.Errorf("slot %d out of bounds [0, %d)", slot, len(r.owners))
	}
	return r.owners[slot], nil
}

// Gateways returns the distinct addresses in slot order.
func (r *Router) Gateways() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, addr := range r.owners {
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}
