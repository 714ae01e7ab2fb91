// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rebalance splits a drained group into two teams of close strength.
package rebalance

import (
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rating"
)

const (
	TeamA = 0
	TeamB = 1
)

// pickTeam returns the team of the i-th pick in serpentine order A,B,B,A,A,B,B,A...
func pickTeam(i int) int {
	switch i % 4 {
	case 0, 3:
		return TeamA
	default:
		return TeamB
	}
}

// SnakeDraft sorts members by MMR descending (ties keep arrival order) and
// deals them out serpentine. The gap between team sums never exceeds the
// spread of the group. members is not modified.
// Param matchID is used for logging purpose only.
func SnakeDraft(rootScope *envelope.Scope, matchID string, members []rating.Rated) [2]Team {
	scope := rootScope.NewChildScope("SnakeDraft")
	defer scope.Finish()

	sorted := make([]rating.Rated, len(members))
	copy(sorted, members)
	SortByMMRDesc(sorted)

	var teams [2]Team
	for t := range teams {
		teams[t].Members = make([]rating.Rated, 0, (len(sorted)+1)/2)
	}
	for i, m := range sorted {
		team := pickTeam(i)
		teams[team].Members = append(teams[team].Members, m)
	}

	scope.Log.Debugf("[rebalance] done matchid: %s team sums: %d vs %d distance: %d spread: %d",
		matchID, teams[TeamA].Sum(), teams[TeamB].Sum(), CountDistance(teams), Spread(sorted))
	return teams
}
