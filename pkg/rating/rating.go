// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rating computes MMR changes from match outcomes.
package rating

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/mathutil"
)

// Rated is a player's MMR at the time of the result.
type Rated struct {
	PlayerID string
	MMR      int
}

// Model is an Elo update on team-average ratings with a fixed K-factor.
type Model struct {
	KFactor float64
}

// New returns a model; a non-positive k falls back to the default.
func New(kFactor float64) Model {
	if kFactor <= 0 {
		kFactor = constants.DefaultKFactor
	}
	return Model{KFactor: kFactor}
}

// ExpectedScore is the probability that a side rated `rating` beats a side rated `opponent`.
func ExpectedScore(rating, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/constants.EloScale))
}

// ComputeUpdate returns the MMR delta of every player. Winners gain
// K*(1-expectedWin), losers lose K*expectedLoss, both rounded to the nearest
// integer. A loser's delta never takes the MMR below 0.
// Either side being empty yields an empty result.
func (m Model) ComputeUpdate(winners, losers []Rated) map[string]int {
	deltas := make(map[string]int, len(winners)+len(losers))
	if len(winners) == 0 || len(losers) == 0 {
		return deltas
	}

	winnerAvg := average(winners)
	loserAvg := average(losers)

	expectedWin := ExpectedScore(winnerAvg, loserAvg)
	expectedLoss := ExpectedScore(loserAvg, winnerAvg)

	winDelta := int(math.Round(m.KFactor * (1 - expectedWin)))
	lossDelta := int(math.Round(m.KFactor * (0 - expectedLoss)))

	for _, w := range winners {
		deltas[w.PlayerID] = winDelta
	}
	for _, l := range losers {
		deltas[l.PlayerID] = mathutil.Max(lossDelta, -mathutil.Max(l.MMR, 0))
	}
	return deltas
}

func average(team []Rated) float64 {
	values := make([]float64, len(team))
	for i, r := range team {
		values[i] = float64(mathutil.Max(r.MMR, 0))
	}
	return stat.Mean(values, nil)
}
