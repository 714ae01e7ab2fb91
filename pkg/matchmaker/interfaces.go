// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker runs the periodic scan that turns waiting players into matches.
package matchmaker

import (
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/queue"
)

/*
PoolSource is the set of queue pools the matchmaker scans. Each tick the matchmaker asks for the
pool keys in a stable order, looks each pool up and drains whole batches of 2*teamSize entries from it.
Pools created after Keys was called are picked up on the next tick.
*/
type PoolSource interface {
	// Keys lists every known pool ordered by region, mode and team size.
	Keys() []models.PoolKey

	// Lookup returns the pool for key without creating it.
	Lookup(key models.PoolKey) (*queue.QueuePool, bool)

	// Counts returns the waiting count of every non-empty pool.
	Counts() []models.PoolCount
}

// PlayerDirectory is the part of the player registry used while forming a match.
type PlayerDirectory interface {
	// Get returns the player with its current MMR.
	Get(id string) (models.Player, error)

	// MarkMatched clears the queue flag and points the player at the match.
	MarkMatched(id string, pool models.PoolKey, matchID string) error

	// ReleaseMatch and SetQueueState undo MarkMatched when formation is rolled back.
	ReleaseMatch(id, matchID string)
	SetQueueState(id string, pool models.PoolKey) error
}

// MatchStore registers formed matches.
type MatchStore interface {
	// Create fails with matchregistry.ErrRoomInUse when the room name is taken.
	Create(scope *envelope.Scope, match models.Match) error

	// Discard removes a match that was never announced.
	Discard(matchID string) error

	// ActiveRoomNames lists the room names held by non-terminal matches.
	ActiveRoomNames() map[string]struct{}
}

// EventSink receives the MatchFormed and QueueStatus events.
type EventSink interface {
	Publish(scope *envelope.Scope, event models.Event)
}
