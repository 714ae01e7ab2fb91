// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/octanescore-matchmaker/pkg/common"
	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/service"
	"github.com/AccelByte/octanescore-matchmaker/pkg/testsetup"
)

type fixture struct {
	testsetup.GomegaWithScope
	t      *testing.T
	svc    *service.Service
	hub    *Hub
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	g := testsetup.ParallelWithGomega(t)
	registry := prometheus.NewRegistry()
	svc := service.New(config.Default(), service.Options{
		Metrics: metrics.NewMetrics(registry),
		Random:  common.NewRandom(1),
		Now:     g.Clock.Now,
	})
	hub := NewHub()
	server := httptest.NewServer(NewRouter(svc, hub, registry))
	t.Cleanup(server.Close)
	return &fixture{GomegaWithScope: g, t: t, svc: svc, hub: hub, server: server}
}

// do sends body (if any) and decodes the JSON answer into out (if any).
func (f *fixture) do(method, path, body string, out interface{}) int {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) join(playerID string) {
	status := f.do(http.MethodPost, "/queue", `{"player_id":"`+playerID+`","region":"EU","mode":"Soccar","team_size":1}`, nil)
	f.Expect(status).To(Equal(http.StatusCreated))
}

func TestRouter_LinkProfileAndStats(t *testing.T) {
	f := newFixture(t)

	var player models.Player
	status := f.do(http.MethodPost, "/players", `{"player_id":"p1","handle":"Octane","platform":"Steam","region":"EU"}`, &player)
	f.Expect(status).To(Equal(http.StatusOK))
	f.Expect(player.Handle).To(Equal("Octane"))

	var stats service.PlayerStats
	f.Expect(f.do(http.MethodGet, "/players/p1/stats", "", &stats)).To(Equal(http.StatusOK))
	f.Expect(stats.Player.ID).To(Equal("p1"))

	var failure ErrorResponse
	f.Expect(f.do(http.MethodGet, "/players/ghost/stats", "", &failure)).To(Equal(http.StatusNotFound))
	f.Expect(failure.ErrorCode).To(Equal(models.ErrorCode(models.ErrNotFound)))
}

func TestRouter_RejectsMalformedBodies(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"syntax":        `{"player_id":`,
		"unknown field": `{"player_id":"p1","elo":3}`,
		"wrong type":    `{"player_id":"p1","team_size":"two"}`,
		"two values":    `{"player_id":"p1"}{}`,
	}
	for name, body := range cases {
		var failure ErrorResponse
		f.Expect(f.do(http.MethodPost, "/queue", body, &failure)).To(Equal(http.StatusBadRequest), name)
		f.Expect(failure.ErrorCode).To(Equal(models.ErrorCode(models.ErrValidation)), name)
	}
}

func TestRouter_QueueEndpoints(t *testing.T) {
	f := newFixture(t)

	f.join("p1")
	f.Expect(f.do(http.MethodPost, "/queue", `{"player_id":"p1","region":"EU","mode":"Hoops","team_size":1}`, nil)).
		To(Equal(http.StatusConflict))
	f.Expect(f.do(http.MethodPost, "/queue", `{"player_id":"p2","region":"EU","mode":"Volleyball","team_size":1}`, nil)).
		To(Equal(http.StatusBadRequest))

	var status models.QueueStatus
	f.Expect(f.do(http.MethodGet, "/queue", "", &status)).To(Equal(http.StatusOK))
	f.Expect(status.Pools).To(HaveLen(1))
	f.Expect(status.Pools[0].Count).To(Equal(1))

	var entry models.QueueEntry
	f.Expect(f.do(http.MethodDelete, "/queue/p1", "", &entry)).To(Equal(http.StatusOK))
	f.Expect(entry.PlayerID).To(Equal("p1"))
	f.Expect(f.do(http.MethodDelete, "/queue/p1", "", nil)).To(Equal(http.StatusConflict))

	f.join("p1")
	f.Expect(f.do(http.MethodPost, "/players/p1/disconnect", "", nil)).To(Equal(http.StatusNoContent))
	f.Expect(f.do(http.MethodPost, "/players/p1/disconnect", "", nil)).To(Equal(http.StatusNoContent))
}

func TestRouter_QueueStatusFilters(t *testing.T) {
	f := newFixture(t)
	f.join("p1")
	f.Expect(f.do(http.MethodPost, "/queue", `{"player_id":"p2","region":"EU","mode":"Soccar","team_size":2}`, nil)).
		To(Equal(http.StatusCreated))
	f.Expect(f.do(http.MethodPost, "/queue", `{"player_id":"p3","region":"OCE","mode":"Hoops","team_size":2}`, nil)).
		To(Equal(http.StatusCreated))

	var status models.QueueStatus
	f.Expect(f.do(http.MethodGet, "/queue", "", &status)).To(Equal(http.StatusOK))
	f.Expect(status.Total).To(Equal(3))

	f.Expect(f.do(http.MethodGet, "/queue?team_size=2v2", "", &status)).To(Equal(http.StatusOK))
	f.Expect(status.Pools).To(HaveLen(2))
	f.Expect(status.Total).To(Equal(2))

	f.Expect(f.do(http.MethodGet, "/queue?region=EU&team_size=2", "", &status)).To(Equal(http.StatusOK))
	f.Expect(status.Pools).To(HaveLen(1))
	f.Expect(status.Pools[0].Pool.Mode).To(Equal("Soccar"))

	var failure ErrorResponse
	f.Expect(f.do(http.MethodGet, "/queue?team_size=2v3", "", &failure)).To(Equal(http.StatusBadRequest))
	f.Expect(failure.ErrorCode).To(Equal(models.ErrorCode(models.ErrValidation)))
}

func TestRouter_ArchivePlayer(t *testing.T) {
	f := newFixture(t)
	f.Expect(f.do(http.MethodPost, "/players", `{"player_id":"p1","handle":"Octane","platform":"Steam","region":"EU"}`, nil)).
		To(Equal(http.StatusOK))
	f.join("p1")

	f.Expect(f.do(http.MethodDelete, "/players/p1", "", nil)).To(Equal(http.StatusNoContent))
	f.Expect(f.svc.QueueStatus().Total).To(Equal(0))
	f.Expect(f.do(http.MethodPost, "/queue", `{"player_id":"p1","region":"EU","mode":"Soccar","team_size":1}`, nil)).
		To(Equal(http.StatusConflict))

	var board []service.LeaderboardEntry
	f.Expect(f.do(http.MethodGet, "/leaderboard", "", &board)).To(Equal(http.StatusOK))
	f.Expect(board).To(BeEmpty())

	f.Expect(f.do(http.MethodDelete, "/players/ghost", "", nil)).To(Equal(http.StatusNotFound))

	// linking again restores the player
	f.Expect(f.do(http.MethodPost, "/players", `{"player_id":"p1","handle":"Octane","platform":"Steam","region":"EU"}`, nil)).
		To(Equal(http.StatusOK))
	f.join("p1")
}

func TestRouter_MatchEndpoints(t *testing.T) {
	f := newFixture(t)
	f.join("p1")
	f.join("p2")
	f.svc.Tick(f.TestScope)

	var formed []models.Match
	f.Expect(f.do(http.MethodGet, "/matches?state=Formed", "", &formed)).To(Equal(http.StatusOK))
	f.Expect(formed).To(HaveLen(1))
	path := "/matches/" + formed[0].ID

	f.Expect(f.do(http.MethodGet, "/matches?state=Sideways", "", nil)).To(Equal(http.StatusBadRequest))
	f.Expect(f.do(http.MethodGet, "/matches/nope", "", nil)).To(Equal(http.StatusNotFound))

	var match models.Match
	f.Expect(f.do(http.MethodPost, path+"/acknowledge", `{"player_id":"p2"}`, &match)).To(Equal(http.StatusOK))
	f.Expect(match.State).To(Equal(models.MatchActive))
	f.Expect(f.do(http.MethodPost, path+"/await", `{"player_id":"p1"}`, &match)).To(Equal(http.StatusOK))
	f.Expect(match.State).To(Equal(models.MatchAwaitingResult))

	f.Expect(f.do(http.MethodPost, path+"/result", `{"reporter_id":"stranger","winning_team":0}`, nil)).
		To(Equal(http.StatusForbidden))
	f.Expect(f.do(http.MethodPost, path+"/result", `{"reporter_id":"p1"}`, nil)).
		To(Equal(http.StatusBadRequest))
	f.Expect(f.do(http.MethodPost, path+"/result", `{"reporter_id":"p1","winning_team":1,"stats":{"p2":{"goals":3}}}`, &match)).
		To(Equal(http.StatusOK))
	f.Expect(match.State).To(Equal(models.MatchCompleted))
	f.Expect(match.Result.RatingDeltas).To(HaveKeyWithValue("p2", 16))

	f.Expect(f.do(http.MethodPost, path+"/cancel", "", nil)).To(Equal(http.StatusConflict))

	var board []service.LeaderboardEntry
	f.Expect(f.do(http.MethodGet, "/leaderboard?mode=Soccar", "", &board)).To(Equal(http.StatusOK))
	f.Expect(board).To(HaveLen(2))
	f.Expect(board[0].PlayerID).To(Equal("p2"))
	f.Expect(f.do(http.MethodGet, "/leaderboard?region=Mars", "", nil)).To(Equal(http.StatusBadRequest))
}

func TestRouter_CancelWithReason(t *testing.T) {
	f := newFixture(t)
	f.join("p1")
	f.join("p2")
	info := f.svc.Tick(f.TestScope)
	f.Expect(info.MatchIDs).To(HaveLen(1))

	var match models.Match
	status := f.do(http.MethodPost, "/matches/"+info.MatchIDs[0]+"/cancel", `{"reason":"player_abort"}`, &match)
	f.Expect(status).To(Equal(http.StatusOK))
	f.Expect(match.CancelReason).To(Equal("player_abort"))
}

func TestRouter_MetricsAndHealth(t *testing.T) {
	f := newFixture(t)
	f.join("p1")
	f.svc.Tick(f.TestScope)

	f.Expect(f.do(http.MethodGet, "/healthz", "", nil)).To(Equal(http.StatusOK))

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f.Expect(string(body)).To(ContainSubstring(`octanescore_players_in_queue{mode="Soccar",region="EU",team_size="1"} 1`))
}

func TestHub_StreamsEventsToClients(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	f.Eventually(f.hub.Len, time.Second).Should(Equal(1))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan models.Event, 1)
	done := make(chan struct{})
	go func() {
		f.hub.Run(ctx, events)
		close(done)
	}()

	events <- models.NewEvent(models.EventMatchCancelled, f.Clock.Now(), models.MatchCancelledEvent{MatchID: "m1", Reason: "admin_abort"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var received struct {
		Type    models.EventType           `json:"type"`
		Payload models.MatchCancelledEvent `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&received))
	f.Expect(received.Type).To(Equal(models.EventMatchCancelled))
	f.Expect(received.Payload.MatchID).To(Equal("m1"))

	cancel()
	f.Eventually(done, time.Second).Should(BeClosed())
	f.Expect(f.hub.Len()).To(Equal(0))

	_, _, err = conn.ReadMessage()
	f.Expect(websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure)).To(BeTrue())
}
