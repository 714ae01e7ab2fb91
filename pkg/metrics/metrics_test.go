// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.PlayersInQueue("EU", "Soccar", 2, 3)
	m.PlayersInQueue("EU", "Soccar", 2, 1)
	m.AddMatchFormed("EU", "Soccar", 2, 100)
	m.AddMatchFormed("EU", "Soccar", 2, 40)
	m.AddMatchCompleted("EU", "Soccar", 2)
	m.AddMatchCancelled("stale_no_result")
	m.AddUnmatchedReason("EU", "Hoops", 1, "not_enough_players")
	m.AddDroppedEvent("queue_status")
	m.AddTickElapsedTimeMs("matchmakerTick", 3*time.Millisecond)

	expected := `
# HELP octanescore_matches_formed_total Number of matches formed per pool
# TYPE octanescore_matches_formed_total counter
octanescore_matches_formed_total{mode="Soccar",region="EU",team_size="2"} 2
# HELP octanescore_players_in_queue Number of players waiting in each pool
# TYPE octanescore_players_in_queue gauge
octanescore_players_in_queue{mode="Soccar",region="EU",team_size="2"} 1
# HELP octanescore_matches_cancelled_total Number of cancelled matches per reason
# TYPE octanescore_matches_cancelled_total counter
octanescore_matches_cancelled_total{reason="stale_no_result"} 1
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"octanescore_matches_formed_total", "octanescore_players_in_queue", "octanescore_matches_cancelled_total")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry,
		"octanescore_match_team_mmr_gap", "octanescore_tick_elapsed_time_ms",
		"octanescore_unmatched_reasons_total", "octanescore_dropped_events_total", "octanescore_matches_completed_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
