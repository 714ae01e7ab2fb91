// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MatchmakingMetrics interface {
	PlayersInQueue(region, mode string, teamSize int, count int)
	AddTickElapsedTimeMs(function string, elapsedTime time.Duration)
	AddMatchFormed(region, mode string, teamSize int, mmrGap int)
	AddMatchCompleted(region, mode string, teamSize int)
	AddMatchCancelled(reason string)
	AddUnmatchedReason(region, mode string, teamSize int, reason string)
	AddDroppedEvent(eventType string)
}

func NewMetrics(registry *prometheus.Registry) MatchmakingMetrics {
	return setupPrometheusMetrics(registry)
}
