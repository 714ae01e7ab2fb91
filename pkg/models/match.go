// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"encoding/json"
	"time"

	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

// MatchState is the lifecycle state of a match.
type MatchState int

const (
	MatchFormed MatchState = iota
	MatchActive
	MatchAwaitingResult
	MatchCompleted
	MatchCancelled
)

var matchStateNames = map[MatchState]string{
	MatchFormed:         "Formed",
	MatchActive:         "Active",
	MatchAwaitingResult: "AwaitingResult",
	MatchCompleted:      "Completed",
	MatchCancelled:      "Cancelled",
}

func (s MatchState) String() string {
	if name, ok := matchStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseMatchState is the inverse of String.
func ParseMatchState(name string) (MatchState, error) {
	for state, n := range matchStateNames {
		if n == name {
			return state, nil
		}
	}
	return 0, &ValidationError{Field: "match state", Reason: "unknown state " + name}
}

func (s MatchState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *MatchState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	state, err := ParseMatchState(name)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// IsTerminal reports whether no transition leaves the state.
func (s MatchState) IsTerminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

var matchTransitions = map[MatchState][]MatchState{
	MatchFormed:         {MatchActive, MatchAwaitingResult, MatchCancelled},
	MatchActive:         {MatchAwaitingResult, MatchCancelled},
	MatchAwaitingResult: {MatchCompleted, MatchCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to MatchState) bool {
	for _, next := range matchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RoomCredentials are the private lobby details handed to the roster.
type RoomCredentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Result is the outcome of a finalized match.
type Result struct {
	WinningTeam  int                 `json:"winning_team"`
	ReportedBy   string              `json:"reported_by"`
	Stats        map[string]StatLine `json:"stats"`
	RatingDeltas map[string]int      `json:"rating_deltas"`
}

// Match is a formed game and its lifecycle.
type Match struct {
	ID           string          `json:"id"`
	Pool         PoolKey         `json:"pool"`
	Map          string          `json:"map"`
	Teams        [2][]string     `json:"teams"`
	State        MatchState      `json:"state"`
	Room         RoomCredentials `json:"room"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Result       *Result         `json:"result,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

// PlayerIDs lists both rosters, team 0 first.
func (m Match) PlayerIDs() []string {
	ids := make([]string, 0, len(m.Teams[0])+len(m.Teams[1]))
	ids = append(ids, m.Teams[0]...)
	return append(ids, m.Teams[1]...)
}

// TeamOf returns the roster index of the player, or -1.
func (m Match) TeamOf(playerID string) int {
	for team, roster := range m.Teams {
		for _, id := range roster {
			if id == playerID {
				return team
			}
		}
	}
	return -1
}

// Validate checks roster sizes against the pool's team size.
func (m Match) Validate() error {
	if len(m.Teams[0]) != m.Pool.TeamSize || len(m.Teams[1]) != m.Pool.TeamSize {
		return &ValidationError{Field: "roster", Reason: "team sizes do not match the pool"}
	}
	seen := make(map[string]struct{}, m.Pool.MatchSize())
	for _, id := range m.PlayerIDs() {
		if _, dup := seen[id]; dup {
			return &ValidationError{Field: "roster", Reason: "player " + id + " appears twice"}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Copy returns a deep copy of the match.
func (m Match) Copy() Match {
	copied, err := copystructure.Copy(m)
	if err != nil {
		logrus.Warn("failed copy match:", err)
	}
	copyMatch, _ := copied.(Match)
	return copyMatch
}
