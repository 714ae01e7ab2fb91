// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "time"

// EventType names an outbound event.
type EventType string

const (
	EventMatchFormed    EventType = "match_formed"
	EventMatchUpdated   EventType = "match_updated"
	EventMatchCompleted EventType = "match_completed"
	EventMatchCancelled EventType = "match_cancelled"
	EventRatingChanged  EventType = "rating_changed"
	EventQueueStatus    EventType = "queue_status"
)

// Event is what the core emits to the presentation layer.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type MatchFormedEvent struct {
	MatchID string          `json:"match_id"`
	Mode    string          `json:"mode"`
	Map     string          `json:"map"`
	Pool    PoolKey         `json:"pool"`
	Teams   [2][]string     `json:"teams"`
	Room    RoomCredentials `json:"room"`
}

type MatchUpdatedEvent struct {
	MatchID string     `json:"match_id"`
	State   MatchState `json:"state"`
	By      string     `json:"by,omitempty"`
}

type MatchCompletedEvent struct {
	MatchID      string         `json:"match_id"`
	WinningTeam  int            `json:"winning_team"`
	RatingDeltas map[string]int `json:"rating_deltas"`
}

type MatchCancelledEvent struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

type RatingChangedEvent struct {
	PlayerID string `json:"player_id"`
	OldMMR   int    `json:"old_mmr"`
	NewMMR   int    `json:"new_mmr"`
	OldTier  Tier   `json:"old_tier"`
	NewTier  Tier   `json:"new_tier"`
}

type QueueStatus struct {
	Pools []PoolCount `json:"pools"`
	Total int         `json:"total"`
}

// NewEvent stamps a payload with its type and time.
func NewEvent(eventType EventType, at time.Time, payload interface{}) Event {
	return Event{Type: eventType, Timestamp: at, Payload: payload}
}
