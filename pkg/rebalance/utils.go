// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rebalance

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/octanescore-matchmaker/pkg/mathutil"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rating"
)

// Team is one side of a match in pick order.
type Team struct {
	Members []rating.Rated
}

// Sum is the cumulative MMR of the team.
func (t Team) Sum() int {
	sum := 0
	for _, m := range t.Members {
		sum += m.MMR
	}
	return sum
}

// Avg is the mean MMR of the team, 0 for an empty team.
func (t Team) Avg() float64 {
	if len(t.Members) == 0 {
		return 0
	}
	values := make([]float64, len(t.Members))
	for i, m := range t.Members {
		values[i] = float64(m.MMR)
	}
	return stat.Mean(values, nil)
}

// PlayerIDs lists the members in pick order.
func (t Team) PlayerIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.PlayerID
	}
	return ids
}

// CountDistance is the absolute gap between the cumulative MMR of the two teams.
func CountDistance(teams [2]Team) int {
	return mathutil.Abs(teams[0].Sum() - teams[1].Sum())
}

// Spread is the gap between the highest and lowest MMR in the group.
func Spread(members []rating.Rated) int {
	if len(members) == 0 {
		return 0
	}
	lo, hi := members[0].MMR, members[0].MMR
	for _, m := range members[1:] {
		lo = mathutil.Min(lo, m.MMR)
		hi = mathutil.Max(hi, m.MMR)
	}
	return hi - lo
}

// SortByMMRDesc orders members by MMR descending. The sort is stable, so
// equal ratings keep the order they arrived in.
func SortByMMRDesc(members []rating.Rated) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].MMR > members[j].MMR
	})
}
