// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package queue holds the waiting players of every (region, mode, team size) pool.
package queue

import (
	"sync"

	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

// QueueStateTracker is the authority on whether a player already holds a queue entry.
type QueueStateTracker interface {
	SetQueueState(id string, pool models.PoolKey) error
	ClearQueueState(id string, pool models.PoolKey) error
}

// QueuePool is the FIFO waiting set of one pool. Every operation holds the
// pool lock for its whole duration, so enqueue, dequeue and drain are linearized.
type QueuePool struct {
	mu      sync.Mutex
	key     models.PoolKey
	entries []models.QueueEntry
	seq     uint64
	tracker QueueStateTracker
}

func NewQueuePool(key models.PoolKey, tracker QueueStateTracker) *QueuePool {
	return &QueuePool{
		key:     key,
		entries: make([]models.QueueEntry, 0, key.MatchSize()),
		tracker: tracker,
	}
}

// Key returns the pool identity.
func (q *QueuePool) Key() models.PoolKey {
	return q.key
}

// Enqueue appends the entry in arrival order. It fails with AlreadyQueuedError
// when the tracker reports the player already queued anywhere.
func (q *QueuePool) Enqueue(entry models.QueueEntry) (models.QueueEntry, error) {
	if entry.Pool != q.key {
		return models.QueueEntry{}, &models.ValidationError{Field: "pool", Reason: "entry for " + entry.Pool.String() + " offered to " + q.key.String()}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.tracker.SetQueueState(entry.PlayerID, q.key); err != nil {
		return models.QueueEntry{}, err
	}

	q.seq++
	entry.Seq = q.seq
	q.entries = append(q.entries, entry)
	return entry, nil
}

// Dequeue removes the player's entry. It fails with NotQueuedError if the
// player has no entry in this pool.
func (q *QueuePool) Dequeue(playerID string) (models.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.PlayerID != playerID {
			continue
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		if err := q.tracker.ClearQueueState(playerID, q.key); err != nil {
			return e, err
		}
		return e, nil
	}
	return models.QueueEntry{}, &models.NotQueuedError{PlayerID: playerID}
}

// DrainEligible removes and returns up to n of the oldest entries.
// Drained players keep their queue flag; the caller clears it.
func (q *QueuePool) DrainEligible(n int) []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	n = min(n, len(q.entries))
	return q.drainLocked(n, make([]models.QueueEntry, 0, n))
}

// DrainBatch removes exactly n of the oldest entries into buf, or nothing if
// fewer than n are waiting.
func (q *QueuePool) DrainBatch(n int, buf []models.QueueEntry) ([]models.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || len(q.entries) < n {
		return buf, false
	}
	return q.drainLocked(n, buf), true
}

func (q *QueuePool) drainLocked(n int, buf []models.QueueEntry) []models.QueueEntry {
	buf = append(buf, q.entries[:n]...)
	remaining := copy(q.entries, q.entries[n:])
	clear(q.entries[remaining:])
	q.entries = q.entries[:remaining]
	return buf
}

// Requeue puts drained entries back at the head of the pool in their
// original order, ahead of anyone who arrived since.
func (q *QueuePool) Requeue(entries []models.QueueEntry) {
	if len(entries) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	restored := make([]models.QueueEntry, 0, len(entries)+len(q.entries))
	restored = append(restored, entries...)
	q.entries = append(restored, q.entries...)
}

// Len returns the number of waiting players.
func (q *QueuePool) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the waiting entries in FIFO order.
func (q *QueuePool) Entries() []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.QueueEntry(nil), q.entries...)
}
