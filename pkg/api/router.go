// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package api exposes the service over HTTP and streams its events over a websocket.
package api

import (
	"net/http"

	"github.com/elliotchance/pie/v2"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/service"
)

type Handler struct {
	svc *service.Service
}

type playerAction struct {
	PlayerID string `json:"player_id"`
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// NewRouter builds the HTTP surface. gatherer, when set, is served on /metrics.
func NewRouter(svc *service.Service, hub *Hub, gatherer prometheus.Gatherer) http.Handler {
	h := &Handler{svc: svc}

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if hub != nil {
		router.Get("/ws", hub.ServeWs)
	}

	router.Route("/players", func(r chi.Router) {
		r.Post("/", h.LinkProfile)
		r.Get("/{playerID}/stats", h.RequestStats)
		r.Post("/{playerID}/disconnect", h.Disconnect)
		r.Delete("/{playerID}", h.ArchivePlayer)
	})
	router.Route("/queue", func(r chi.Router) {
		r.Get("/", h.QueueStatus)
		r.Post("/", h.JoinQueue)
		r.Delete("/{playerID}", h.LeaveQueue)
	})
	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.ListMatches)
		r.Get("/{matchID}", h.GetMatch)
		r.Post("/{matchID}/acknowledge", h.Acknowledge)
		r.Post("/{matchID}/await", h.AwaitResult)
		r.Post("/{matchID}/result", h.ReportResult)
		r.Post("/{matchID}/cancel", h.CancelMatch)
	})
	router.Get("/leaderboard", h.Leaderboard)

	return router
}

// scope continues any trace the caller propagated in the request headers.
func scope(r *http.Request, name string) *envelope.Scope {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	s := envelope.ChildScopeFromRemoteScope(ctx, name)
	if requestID := chiMiddleware.GetReqID(r.Context()); requestID != "" {
		s = s.WithField("requestID", requestID)
	}
	return s
}

func (h *Handler) LinkProfile(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.LinkProfile")
	defer s.Finish()

	var req service.LinkProfileRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, s.Log, err)
		return
	}
	player, err := h.svc.LinkProfile(s, req)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.RequestStats")
	defer s.Finish()

	stats, err := h.svc.RequestStats(chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.Disconnect")
	defer s.Finish()

	if err := h.svc.Disconnect(s, chi.URLParam(r, "playerID")); err != nil {
		writeError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ArchivePlayer(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.ArchivePlayer")
	defer s.Finish()

	if err := h.svc.ArchivePlayer(s, chi.URLParam(r, "playerID")); err != nil {
		writeError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueueStatus accepts optional region, mode and team_size ("2" or "2v2") filters.
func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.QueueStatus")
	defer s.Finish()

	query := r.URL.Query()
	teamSize := 0
	if raw := query.Get("team_size"); raw != "" {
		parsed, err := models.ParseTeamSize(raw)
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		teamSize = parsed
	}
	region, mode := query.Get("region"), query.Get("mode")

	status := h.svc.QueueStatus()
	status.Pools = pie.Filter(status.Pools, func(c models.PoolCount) bool {
		return (region == "" || c.Pool.Region == region) &&
			(mode == "" || c.Pool.Mode == mode) &&
			(teamSize == 0 || c.Pool.TeamSize == teamSize)
	})
	status.Total = 0
	for _, c := range status.Pools {
		status.Total += c.Count
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.JoinQueue")
	defer s.Finish()

	var req service.JoinQueueRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, s.Log, err)
		return
	}
	entry, err := h.svc.JoinQueue(s, req)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.LeaveQueue")
	defer s.Finish()

	entry, err := h.svc.LeaveQueue(s, chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListMatches accepts repeated ?state= filters.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.ListMatches")
	defer s.Finish()

	states := make([]models.MatchState, 0)
	for _, name := range r.URL.Query()["state"] {
		state, err := models.ParseMatchState(name)
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		states = append(states, state)
	}
	writeJSON(w, http.StatusOK, h.svc.ListMatches(states...))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.GetMatch")
	defer s.Finish()

	match, err := h.svc.GetMatch(chi.URLParam(r, "matchID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, "api.Acknowledge", h.svc.Acknowledge)
}

func (h *Handler) AwaitResult(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, "api.AwaitResult", h.svc.AwaitResult)
}

func (h *Handler) playerAction(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	action func(*envelope.Scope, string, string) (models.Match, error),
) {
	s := scope(r, name)
	defer s.Finish()

	var body playerAction
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, s.Log, err)
		return
	}
	match, err := action(s, chi.URLParam(r, "matchID"), body.PlayerID)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handler) ReportResult(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.ReportResult")
	defer s.Finish()

	var req service.ReportResultRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, s.Log, err)
		return
	}
	req.MatchID = chi.URLParam(r, "matchID")

	match, err := h.svc.ReportResult(s, req)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.CancelMatch")
	defer s.Finish()

	var body cancelBody
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &body); err != nil {
			writeError(w, s.Log, err)
			return
		}
	}
	match, err := h.svc.CancelMatch(s, chi.URLParam(r, "matchID"), body.Reason)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	s := scope(r, "api.Leaderboard")
	defer s.Finish()

	query := r.URL.Query()
	board, err := h.svc.RequestLeaderboard(query.Get("region"), query.Get("mode"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
