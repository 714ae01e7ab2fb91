// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package events is the outbound queue between the core and whatever presents its events.
package events

import (
	"sync"

	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

// Bus is a bounded event channel. Publishing never blocks the core: when the
// consumer falls behind, the event is dropped and counted.
type Bus struct {
	ch      chan models.Event
	metrics metrics.MatchmakingMetrics

	mu     sync.RWMutex
	closed bool
}

func NewBus(size int, m metrics.MatchmakingMetrics) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{
		ch:      make(chan models.Event, size),
		metrics: m,
	}
}

// Publish enqueues the event or drops it when the buffer is full.
func (b *Bus) Publish(scope *envelope.Scope, event models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.ch <- event:
	default:
		b.metrics.AddDroppedEvent(string(event.Type))
		// the roster only learns its room credentials from match_formed
		if formed, ok := event.Payload.(models.MatchFormedEvent); ok {
			scope.Log.WithField("matchID", formed.MatchID).
				Errorf("event buffer full, dropped %s; room credentials must be re-sent from /matches/%s", event.Type, formed.MatchID)
			return
		}
		scope.Log.Warnf("event buffer full, dropped %s", event.Type)
	}
}

// Events is the channel the presentation layer drains. It is closed by Close.
func (b *Bus) Events() <-chan models.Event {
	return b.ch
}

// Len is the number of buffered events.
func (b *Bus) Len() int {
	return len(b.ch)
}

// Close stops accepting events and closes the channel once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}
