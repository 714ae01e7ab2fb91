// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"time"

	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) PlayersInQueue(region, mode string, teamSize int, count int) {
}

func (s stubMetricsCollection) AddTickElapsedTimeMs(function string, elapsedTime time.Duration) {
}

func (s stubMetricsCollection) AddMatchFormed(region, mode string, teamSize int, mmrGap int) {
}

func (s stubMetricsCollection) AddMatchCompleted(region, mode string, teamSize int) {
}

func (s stubMetricsCollection) AddMatchCancelled(reason string) {
}

func (s stubMetricsCollection) AddUnmatchedReason(region, mode string, teamSize int, reason string) {
}

func (s stubMetricsCollection) AddDroppedEvent(eventType string) {
}

func NewMetrics() metrics.MatchmakingMetrics {
	return stubMetricsCollection{}
}
