// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"sort"
	"sync"

	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

// Pools creates one QueuePool per key on first use. Pools are never removed,
// so a pointer obtained from Get stays valid.
type Pools struct {
	mu      sync.RWMutex
	pools   map[models.PoolKey]*QueuePool
	tracker QueueStateTracker
}

func NewPools(tracker QueueStateTracker) *Pools {
	return &Pools{
		pools:   make(map[models.PoolKey]*QueuePool),
		tracker: tracker,
	}
}

// Get returns the pool for key, creating it lazily.
func (p *Pools) Get(key models.PoolKey) *QueuePool {
	if pool, ok := p.Lookup(key); ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.pools[key]; ok {
		return pool
	}
	pool := NewQueuePool(key, p.tracker)
	p.pools[key] = pool
	return pool
}

// Lookup returns the pool for key without creating it.
func (p *Pools) Lookup(key models.PoolKey) (*QueuePool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pool, ok := p.pools[key]
	return pool, ok
}

// Keys lists every created pool ordered by region, mode and team size.
func (p *Pools) Keys() []models.PoolKey {
	p.mu.RLock()
	keys := pie.Keys(p.pools)
	p.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Counts returns the waiting count of every non-empty pool, in key order.
func (p *Pools) Counts() []models.PoolCount {
	counts := make([]models.PoolCount, 0)
	for _, key := range p.Keys() {
		pool, _ := p.Lookup(key)
		if n := pool.Len(); n > 0 {
			counts = append(counts, models.PoolCount{Pool: key, Count: n})
		}
	}
	return counts
}

// Total is the number of waiting players across all pools.
func (p *Pools) Total() int {
	total := 0
	for _, c := range p.Counts() {
		total += c.Count
	}
	return total
}
