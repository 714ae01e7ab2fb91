// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-openapi/swag"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/octanescore-matchmaker/pkg/common"
	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/store"
	"github.com/AccelByte/octanescore-matchmaker/pkg/testsetup"
)

func newService(g testsetup.GomegaWithScope, snapshots Snapshotter) *Service {
	return New(config.Default(), Options{
		Store:   snapshots,
		Metrics: testsetup.NewMetrics(),
		Random:  common.NewRandom(1),
		Now:     g.Clock.Now,
	})
}

func join(g testsetup.GomegaWithScope, s *Service, playerID, mode string, teamSize int) {
	_, err := s.JoinQueue(g.TestScope, JoinQueueRequest{
		PlayerID: playerID,
		Region:   "EU",
		Mode:     mode,
		TeamSize: teamSize,
	})
	g.Expect(err).ToNot(HaveOccurred())
}

// playMatch forms a 1v1 Soccar match between a and b and returns it.
func playMatch(g testsetup.GomegaWithScope, s *Service, a, b string) models.Match {
	join(g, s, a, "Soccar", 1)
	join(g, s, b, "Soccar", 1)
	info := s.Tick(g.TestScope)
	g.Expect(info.MatchIDs).To(HaveLen(1))

	match, err := s.GetMatch(info.MatchIDs[0])
	g.Expect(err).ToNot(HaveOccurred())
	return match
}

func TestService_LinkProfile(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	player, err := s.LinkProfile(g.TestScope, LinkProfileRequest{
		PlayerID: "p1", Handle: "Octane", Platform: "Steam", Region: "EU",
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(player.MMR).To(Equal(0))
	g.Expect(player.Tier.String()).To(Equal("Bronze I"))

	stats, err := s.RequestStats("p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stats.Player.Handle).To(Equal("Octane"))
	g.Expect(stats.State.Queue).To(BeNil())
	g.Expect(stats.Recent).To(BeEmpty())
}

func TestService_LinkProfileValidation(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	cases := map[string]LinkProfileRequest{
		"missing handle": {PlayerID: "p1", Platform: "Steam", Region: "EU"},
		"long handle":    {PlayerID: "p1", Handle: strings.Repeat("x", 33), Platform: "Steam", Region: "EU"},
		"unknown region": {PlayerID: "p1", Handle: "Octane", Platform: "Steam", Region: "Mars"},
	}
	for name, req := range cases {
		_, err := s.LinkProfile(g.TestScope, req)
		g.Expect(err).To(MatchError(models.ErrValidation), name)
	}
}

func TestService_JoinQueueValidation(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	cases := map[string]JoinQueueRequest{
		"missing player":  {Region: "EU", Mode: "Soccar", TeamSize: 1},
		"long player id":  {PlayerID: strings.Repeat("p", 65), Region: "EU", Mode: "Soccar", TeamSize: 1},
		"unknown mode":    {PlayerID: "p1", Region: "EU", Mode: "Volleyball", TeamSize: 1},
		"team size":       {PlayerID: "p1", Region: "EU", Mode: "Soccar", TeamSize: 4},
		"missing size":    {PlayerID: "p1", Region: "EU", Mode: "Soccar"},
		"map not in mode": {PlayerID: "p1", Region: "EU", Mode: "Hoops", TeamSize: 1, MapPref: swag.String("Mannfield")},
	}
	for name, req := range cases {
		_, err := s.JoinQueue(g.TestScope, req)
		g.Expect(err).To(MatchError(models.ErrValidation), name)
	}
	g.Expect(s.QueueStatus().Pools).To(BeEmpty())
}

func TestService_JoinQueueCreatesPlayerAndGuardsDoubleQueue(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	entry, err := s.JoinQueue(g.TestScope, JoinQueueRequest{
		PlayerID: "p1", Region: "EU", Mode: "Soccar", TeamSize: 2, MapPref: swag.String("Random"),
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entry.MapPref).To(BeEmpty())
	g.Expect(entry.EnqueuedAt).To(Equal(g.Clock.Now()))

	_, err = s.JoinQueue(g.TestScope, JoinQueueRequest{PlayerID: "p1", Region: "EU", Mode: "Hoops", TeamSize: 1})
	g.Expect(err).To(MatchError(models.ErrAlreadyQueued))

	g.Expect(s.QueueStatus().Pools).To(Equal([]models.PoolCount{
		{Pool: models.PoolKey{Region: "EU", Mode: "Soccar", TeamSize: 2}, Count: 1},
	}))
}

func TestService_LeaveQueueAndDisconnect(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	_, err := s.LeaveQueue(g.TestScope, "ghost")
	g.Expect(err).To(MatchError(models.ErrNotFound))
	g.Expect(s.Disconnect(g.TestScope, "ghost")).To(Succeed())

	join(g, s, "p1", "Soccar", 2)
	entry, err := s.LeaveQueue(g.TestScope, "p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entry.PlayerID).To(Equal("p1"))

	_, err = s.LeaveQueue(g.TestScope, "p1")
	g.Expect(err).To(MatchError(models.ErrNotQueued))
	g.Expect(s.Disconnect(g.TestScope, "p1")).To(Succeed())

	join(g, s, "p1", "Hoops", 1)
	g.Expect(s.Disconnect(g.TestScope, "p1")).To(Succeed())
	g.Expect(s.QueueStatus().Pools).To(BeEmpty())
}

func TestService_MatchLifecycle(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	match := playMatch(g, s, "p1", "p2")
	g.Expect(match.State).To(Equal(models.MatchFormed))
	g.Expect(match.Teams).To(Equal([2][]string{{"p1"}, {"p2"}}))
	g.Expect(s.QueueStatus().Pools).To(BeEmpty())

	stats, err := s.RequestStats("p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stats.State.MatchID).To(Equal(match.ID))

	_, err = s.JoinQueue(g.TestScope, JoinQueueRequest{PlayerID: "p1", Region: "EU", Mode: "Soccar", TeamSize: 1})
	g.Expect(err).To(MatchError(models.ErrInvalidState))

	_, err = s.Acknowledge(g.TestScope, match.ID, "p2")
	g.Expect(err).ToNot(HaveOccurred())

	_, err = s.ReportResult(g.TestScope, ReportResultRequest{MatchID: match.ID, ReporterID: "p1", WinningTeam: swag.Int(2)})
	g.Expect(err).To(MatchError(models.ErrValidation))

	done, err := s.ReportResult(g.TestScope, ReportResultRequest{
		MatchID:     match.ID,
		ReporterID:  "p1",
		WinningTeam: swag.Int(0),
		Stats:       map[string]models.StatLine{"p1": {Goals: 2}},
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(done.State).To(Equal(models.MatchCompleted))
	g.Expect(done.Result.RatingDeltas).To(Equal(map[string]int{"p1": 16, "p2": 0}))

	winner, err := s.RequestStats("p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(winner.Player.MMR).To(Equal(16))
	g.Expect(winner.Player.Stats.Goals).To(Equal(2))
	g.Expect(winner.WinRate).To(Equal(1.0))
	g.Expect(winner.State.MatchID).To(BeEmpty())
	g.Expect(winner.Recent).To(HaveLen(1))

	// released players can queue again
	join(g, s, "p1", "Soccar", 1)
}

func TestService_ReportResultRequiresWinner(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)
	match := playMatch(g, s, "a", "b")

	_, err := s.ReportResult(g.TestScope, ReportResultRequest{MatchID: match.ID, ReporterID: "b"})
	g.Expect(err).To(MatchError(models.ErrValidation))

	unchanged, err := s.GetMatch(match.ID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(unchanged.State).To(Equal(models.MatchFormed))
	g.Expect(unchanged.Result).To(BeNil())

	stats, err := s.RequestStats("a")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stats.Player.MMR).To(Equal(0))
	g.Expect(stats.State.MatchID).To(Equal(match.ID))
}

func TestService_ReportResultChecksMatchBeforeWinner(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)
	match := playMatch(g, s, "a", "b")

	_, err := s.ReportResult(g.TestScope, ReportResultRequest{MatchID: "missing", ReporterID: "a", WinningTeam: swag.Int(5)})
	g.Expect(err).To(MatchError(models.ErrNotFound))

	_, err = s.ReportResult(g.TestScope, ReportResultRequest{MatchID: match.ID, ReporterID: "a", WinningTeam: swag.Int(0)})
	g.Expect(err).ToNot(HaveOccurred())

	_, err = s.ReportResult(g.TestScope, ReportResultRequest{MatchID: match.ID, ReporterID: "b", WinningTeam: swag.Int(2)})
	g.Expect(err).To(MatchError(models.ErrInvalidState))

	cancelled := playMatch(g, s, "c", "d")
	_, err = s.CancelMatch(g.TestScope, cancelled.ID, "")
	g.Expect(err).ToNot(HaveOccurred())
	_, err = s.ReportResult(g.TestScope, ReportResultRequest{MatchID: cancelled.ID, ReporterID: "c", WinningTeam: swag.Int(-1)})
	g.Expect(err).To(MatchError(models.ErrInvalidState))
}

func TestService_CancelMatchDefaultsToAdminReason(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)
	match := playMatch(g, s, "p1", "p2")

	cancelled, err := s.CancelMatch(g.TestScope, match.ID, "")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cancelled.State).To(Equal(models.MatchCancelled))
	g.Expect(cancelled.CancelReason).To(Equal("admin_abort"))

	_, err = s.CancelMatch(g.TestScope, match.ID, "")
	g.Expect(err).To(MatchError(models.ErrInvalidState))
	g.Expect(s.ListMatches(models.MatchCancelled)).To(HaveLen(1))
}

func TestService_SweepCancelsStaleMatches(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)
	match := playMatch(g, s, "p1", "p2")

	g.Expect(s.Sweep(g.TestScope)).To(BeEmpty())
	g.Clock.Advance(21 * time.Minute)
	g.Expect(s.Sweep(g.TestScope)).To(Equal([]string{match.ID}))

	stats, err := s.RequestStats("p2")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stats.State.MatchID).To(BeEmpty())
	g.Expect(stats.Player.MMR).To(Equal(0))
}

func TestService_Leaderboard(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.LinkProfile(g.TestScope, LinkProfileRequest{PlayerID: id, Handle: "h-" + id, Platform: "Epic", Region: "EU"})
		g.Expect(err).ToNot(HaveOccurred())
	}
	_, err := s.LinkProfile(g.TestScope, LinkProfileRequest{PlayerID: "p4", Handle: "h-p4", Platform: "Epic", Region: "OCE"})
	g.Expect(err).ToNot(HaveOccurred())

	match := playMatch(g, s, "p2", "p1")
	_, err = s.ReportResult(g.TestScope, ReportResultRequest{MatchID: match.ID, ReporterID: "p2", WinningTeam: swag.Int(0)})
	g.Expect(err).ToNot(HaveOccurred())

	board, err := s.RequestLeaderboard("EU", "")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(board).To(HaveLen(3))
	g.Expect(board[0].PlayerID).To(Equal("p2"))
	g.Expect(board[0].Rank).To(Equal(1))
	g.Expect(board[0].MMR).To(Equal(16))

	soccar, err := s.RequestLeaderboard("", "Soccar")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(soccar).To(HaveLen(2))

	hoops, err := s.RequestLeaderboard("", "Hoops")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(hoops).To(BeEmpty())

	_, err = s.RequestLeaderboard("Mars", "")
	g.Expect(err).To(MatchError(models.ErrValidation))
	_, err = s.RequestLeaderboard("", "Volleyball")
	g.Expect(err).To(MatchError(models.ErrValidation))
}

func TestService_EventsReachTheStream(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s := newService(g, nil)
	playMatch(g, s, "p1", "p2")

	var types []models.EventType
	for len(types) < 2 {
		select {
		case event := <-s.Events():
			types = append(types, event.Type)
		case <-time.After(time.Second):
			t.Fatalf("events missing, got %v", types)
		}
	}
	g.Expect(types).To(Equal([]models.EventType{models.EventMatchFormed, models.EventQueueStatus}))
}

func TestService_SnapshotAndLoad(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	path := filepath.Join(t.TempDir(), "octanescore.db")

	db, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	first := newService(g, db)

	done := playMatch(g, first, "p1", "p2")
	_, err = first.ReportResult(g.TestScope, ReportResultRequest{MatchID: done.ID, ReporterID: "p2", WinningTeam: swag.Int(1)})
	g.Expect(err).ToNot(HaveOccurred())
	live := playMatch(g, first, "p3", "p4")
	join(g, first, "p5", "Hoops", 1)

	g.Expect(first.Snapshot(g.TestScope)).To(Succeed())
	g.Expect(db.Close()).To(Succeed())

	reopened, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()
	second := newService(g, reopened)
	g.Expect(second.Load(g.TestScope)).To(Succeed())

	winner, err := second.RequestStats("p2")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(winner.Player.MMR).To(Equal(16))
	g.Expect(winner.Recent).To(HaveLen(1))

	restored, err := second.GetMatch(live.ID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(restored.State).To(Equal(models.MatchFormed))
	g.Expect(restored.Room).To(Equal(live.Room))

	onRoster, err := second.RequestStats("p3")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(onRoster.State.MatchID).To(Equal(live.ID))

	// queue membership is not persisted
	queued, err := second.RequestStats("p5")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(queued.State.Queue).To(BeNil())
	g.Expect(second.QueueStatus().Pools).To(BeEmpty())
}

type countingSnapshotter struct {
	mu    sync.Mutex
	saves int
}

func (c *countingSnapshotter) SaveSnapshot(scope *envelope.Scope, players []models.Player, matches []models.Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return nil
}

func (c *countingSnapshotter) LoadPlayers(scope *envelope.Scope) ([]models.Player, error) {
	return nil, nil
}

func (c *countingSnapshotter) LoadMatches(scope *envelope.Scope) ([]models.Match, error) {
	return nil, nil
}

func (c *countingSnapshotter) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestService_RunFormsMatchesAndSnapshotsOnShutdown(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	cfg := config.Default()
	cfg.MatchmakingTick = 10 * time.Millisecond
	snapshots := &countingSnapshotter{}
	s := New(cfg, Options{Store: snapshots, Metrics: testsetup.NewMetrics(), Random: common.NewRandom(1)})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- s.Run(ctx) }()

	join(g, s, "p1", "Soccar", 1)
	join(g, s, "p2", "Soccar", 1)
	g.Eventually(func() []models.Match { return s.ListMatches(models.MatchFormed) }, time.Second).Should(HaveLen(1))

	cancel()
	g.Eventually(result, time.Second).Should(Receive(BeNil()))
	g.Expect(snapshots.Saves()).To(Equal(1))
}
