// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	playersInQueue   prometheus.GaugeVec
	tickElapsedTime  prometheus.HistogramVec
	matchesFormed    prometheus.CounterVec
	matchMMRGap      prometheus.HistogramVec
	matchesCompleted prometheus.CounterVec
	matchesCancelled prometheus.CounterVec
	unmatchedReasons prometheus.CounterVec
	droppedEvents    prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)
	poolLabelDimensions := []string{"region", "mode", "team_size"}

	playersInQueue := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "octanescore_players_in_queue",
			Help: "Number of players waiting in each pool",
		}, poolLabelDimensions)

	//nolint:promlinter
	tickElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "octanescore_tick_elapsed_time_ms",
			Help:    "A histogram of periodic task elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"function"})

	matchesFormed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "octanescore_matches_formed_total",
			Help: "Number of matches formed per pool",
		}, poolLabelDimensions)

	matchMMRGap := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "octanescore_match_team_mmr_gap",
			Help:    "A histogram of the team MMR sum difference of formed matches",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"team_size"})

	matchesCompleted := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "octanescore_matches_completed_total",
			Help: "Number of matches finalized with a result per pool",
		}, poolLabelDimensions)

	matchesCancelled := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "octanescore_matches_cancelled_total",
			Help: "Number of cancelled matches per reason",
		}, []string{"reason"})

	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "octanescore_unmatched_reasons_total",
			Help: "Number of pool scans that formed no match per reason",
		}, append(poolLabelDimensions, "reason"))

	droppedEvents := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "octanescore_dropped_events_total",
			Help: "Number of outbound events dropped because the channel was full",
		}, []string{"type"})

	return prometheusMetrics{
		playersInQueue:   *playersInQueue,
		tickElapsedTime:  *tickElapsedTime,
		matchesFormed:    *matchesFormed,
		matchMMRGap:      *matchMMRGap,
		matchesCompleted: *matchesCompleted,
		matchesCancelled: *matchesCancelled,
		unmatchedReasons: *unmatchedReasons,
		droppedEvents:    *droppedEvents,
	}
}

func poolLabels(region, mode string, teamSize int) prometheus.Labels {
	return prometheus.Labels{"region": region, "mode": mode, "team_size": strconv.Itoa(teamSize)}
}

func (metrics prometheusMetrics) PlayersInQueue(region, mode string, teamSize int, count int) {
	metrics.playersInQueue.With(poolLabels(region, mode, teamSize)).Set(float64(count))
}

func (metrics prometheusMetrics) AddTickElapsedTimeMs(function string, elapsedTime time.Duration) {
	metrics.tickElapsedTime.With(prometheus.Labels{"function": function}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddMatchFormed(region, mode string, teamSize int, mmrGap int) {
	metrics.matchesFormed.With(poolLabels(region, mode, teamSize)).Inc()
	metrics.matchMMRGap.With(prometheus.Labels{"team_size": strconv.Itoa(teamSize)}).Observe(float64(mmrGap))
}

func (metrics prometheusMetrics) AddMatchCompleted(region, mode string, teamSize int) {
	metrics.matchesCompleted.With(poolLabels(region, mode, teamSize)).Inc()
}

func (metrics prometheusMetrics) AddMatchCancelled(reason string) {
	metrics.matchesCancelled.With(prometheus.Labels{"reason": reason}).Inc()
}

func (metrics prometheusMetrics) AddUnmatchedReason(region, mode string, teamSize int, reason string) {
	labels := poolLabels(region, mode, teamSize)
	labels["reason"] = reason
	metrics.unmatchedReasons.With(labels).Add(float64(1))
}

func (metrics prometheusMetrics) AddDroppedEvent(eventType string) {
	metrics.droppedEvents.With(prometheus.Labels{"type": eventType}).Inc()
}
