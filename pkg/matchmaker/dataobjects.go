// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rebalance"
)

// Proposal is a drained batch on its way to becoming a match.
type Proposal struct {
	MatchID string
	Pool    models.PoolKey
	Entries []models.QueueEntry // drained entries in FIFO order
	Teams   [2]rebalance.Team   // snake-drafted teams, team A first
	Map     string
	Room    models.RoomCredentials
}

// Match builds the Formed match the proposal describes.
func (p Proposal) Match() models.Match {
	return models.Match{
		ID:    p.MatchID,
		Pool:  p.Pool,
		Map:   p.Map,
		Teams: [2][]string{p.Teams[rebalance.TeamA].PlayerIDs(), p.Teams[rebalance.TeamB].PlayerIDs()},
		State: models.MatchFormed,
		Room:  p.Room,
	}
}

// MatchFormed is the event payload announcing the match.
func (p Proposal) MatchFormed() models.MatchFormedEvent {
	m := p.Match()
	return models.MatchFormedEvent{
		MatchID: m.ID,
		Mode:    m.Pool.Mode,
		Map:     m.Map,
		Pool:    m.Pool,
		Teams:   m.Teams,
		Room:    m.Room,
	}
}
