// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

// Stats are cumulative per-player counters.
type Stats struct {
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	Goals   int `json:"goals"`
	Assists int `json:"assists"`
	Saves   int `json:"saves"`
}

// MatchesPlayed counts finalized matches.
func (s Stats) MatchesPlayed() int {
	return s.Wins + s.Losses
}

// StatLine is the stat increment reported for one player in one match.
type StatLine struct {
	Goals   int `json:"goals"   valid:"range(0|1000)"`
	Assists int `json:"assists" valid:"range(0|1000)"`
	Saves   int `json:"saves"   valid:"range(0|1000)"`
}

// Validate rejects negative counters.
func (s StatLine) Validate() error {
	if s.Goals < 0 || s.Assists < 0 || s.Saves < 0 {
		return &ValidationError{Field: "stats", Reason: "counters cannot be negative"}
	}
	return nil
}

// MatchRecord is one entry of a player's match history.
type MatchRecord struct {
	MatchID   string    `json:"match_id"`
	Won       bool      `json:"won"`
	Mode      string    `json:"mode"`
	Map       string    `json:"map"`
	Region    string    `json:"region"`
	TeamSize  int       `json:"team_size"`
	MMRDelta  int       `json:"mmr_delta"`
	Timestamp time.Time `json:"timestamp"`
}

// Player is a linked profile with its rating.
// Tier is derived from MMR and only ever written through SetMMR.
type Player struct {
	ID        string        `json:"id"`
	Handle    string        `json:"handle"`
	Platform  string        `json:"platform"`
	Region    string        `json:"region"`
	MMR       int           `json:"mmr"`
	Tier      Tier          `json:"tier"`
	Stats     Stats         `json:"stats"`
	History   []MatchRecord `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	Archived  bool          `json:"archived"`
}

// NewPlayer creates a player with the given starting MMR.
func NewPlayer(id string, mmr int, now time.Time) Player {
	p := Player{
		ID:        id,
		History:   []MatchRecord{},
		CreatedAt: now,
	}
	p.SetMMR(mmr)
	return p
}

// SetMMR stores the rating, clamped at 0, and recomputes the tier.
func (p *Player) SetMMR(mmr int) {
	if mmr < 0 {
		mmr = 0
	}
	p.MMR = mmr
	p.Tier = TierForMMR(mmr)
}

// RecentHistory returns up to n most recent history entries, oldest first.
func (p Player) RecentHistory(n int) []MatchRecord {
	if n >= len(p.History) {
		return p.History
	}
	return p.History[len(p.History)-n:]
}

// Copy returns a deep copy so callers never share the history slice.
func (p Player) Copy() Player {
	copied, err := copystructure.Copy(p)
	if err != nil {
		logrus.Warn("failed copy player:", err)
	}
	copyPlayer, _ := copied.(Player)
	return copyPlayer
}

// PlayerState is the queue/match membership of a player. It is not persisted.
type PlayerState struct {
	Queue   *PoolKey `json:"queue,omitempty"`
	MatchID string   `json:"match_id,omitempty"`
}
