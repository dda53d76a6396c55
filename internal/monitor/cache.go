package monitor

import (
	"sync"

	"github.com/solvault/solvault-backend/internal/models"
)

// Cache holds the last-observed on-chain snapshot per wallet address. It is
// the only process-local mutable state of the reconciliation core. Entries
// live for the lifetime of the process; the address space is bounded by the
// active user population, so there is no eviction.
//
// The cache is volatile: after a restart every address is re-baselined to
// zero and the next observed balance is treated entirely as a new deposit.
type Cache struct {
	mu        sync.RWMutex
	snapshots map[string]models.BalanceSnapshot
}

func NewCache() *Cache {
	return &Cache{snapshots: make(map[string]models.BalanceSnapshot)}
}

// Get returns the cached snapshot for the address, or the zero baseline if
// the address has never been observed.
func (c *Cache) Get(address string) models.BalanceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if snap, ok := c.snapshots[address]; ok {
		return snap
	}
	return models.ZeroSnapshot()
}

func (c *Cache) Set(address string, snap models.BalanceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[address] = snap
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}
