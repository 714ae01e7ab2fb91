// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"errors"

	"github.com/elliotchance/pie/v2"
	"github.com/go-openapi/swag"

	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/playerregistry"
)

// recentMatches is the number of history entries returned with player stats.
const recentMatches = 5

// PlayerStats is the answer to a stats request.
type PlayerStats struct {
	Player  models.Player        `json:"player"`
	State   models.PlayerState   `json:"state"`
	Recent  []models.MatchRecord `json:"recent"`
	WinRate float64              `json:"win_rate"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank     int          `json:"rank"`
	PlayerID string       `json:"player_id"`
	Handle   string       `json:"handle"`
	Region   string       `json:"region"`
	MMR      int          `json:"mmr"`
	Tier     models.Tier  `json:"tier"`
	Stats    models.Stats `json:"stats"`
}

// LinkProfile creates or updates a player's handle, platform and region.
func (s *Service) LinkProfile(rootScope *envelope.Scope, req LinkProfileRequest) (models.Player, error) {
	scope := rootScope.NewChildScope("Service.LinkProfile")
	defer scope.Finish()

	if err := req.Validate(); err != nil {
		return models.Player{}, err
	}
	player, _, err := s.players.Link(scope, playerregistry.Profile{
		ID:       req.PlayerID,
		Handle:   req.Handle,
		Platform: req.Platform,
		Region:   req.Region,
	})
	return player, err
}

// JoinQueue places the player at the tail of the pool for region, mode and team size.
// A player never seen before is created with the initial MMR.
func (s *Service) JoinQueue(rootScope *envelope.Scope, req JoinQueueRequest) (models.QueueEntry, error) {
	scope := rootScope.NewChildScope("Service.JoinQueue").WithField("playerID", req.PlayerID)
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, req.PlayerID)

	if err := req.Validate(); err != nil {
		return models.QueueEntry{}, err
	}
	key, err := models.NewPoolKey(req.Region, req.Mode, req.TeamSize)
	if err != nil {
		return models.QueueEntry{}, err
	}
	mapPref, err := models.NormalizeMapPreference(req.Mode, swag.StringValue(req.MapPref))
	if err != nil {
		return models.QueueEntry{}, err
	}
	if _, err := s.players.GetOrCreate(scope, req.PlayerID); err != nil {
		return models.QueueEntry{}, err
	}

	entry, err := s.pools.Get(key).Enqueue(models.QueueEntry{
		PlayerID:   req.PlayerID,
		Pool:       key,
		MapPref:    mapPref,
		EnqueuedAt: s.now(),
	})
	if err != nil {
		return models.QueueEntry{}, err
	}
	scope.SetAttributes(envelope.PoolTag, key.String())
	scope.Log.Infof("joined %s", key)
	return entry, nil
}

// LeaveQueue removes the player's entry from whichever pool holds it.
func (s *Service) LeaveQueue(rootScope *envelope.Scope, playerID string) (models.QueueEntry, error) {
	scope := rootScope.NewChildScope("Service.LeaveQueue").WithField("playerID", playerID)
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, playerID)

	key, err := s.players.QueueState(playerID)
	if err != nil {
		return models.QueueEntry{}, err
	}
	if key == nil {
		return models.QueueEntry{}, &models.NotQueuedError{PlayerID: playerID}
	}
	pool, ok := s.pools.Lookup(*key)
	if !ok {
		return models.QueueEntry{}, &models.NotQueuedError{PlayerID: playerID}
	}

	// a concurrent drain may have taken the entry; Dequeue reports NotQueued then
	entry, err := pool.Dequeue(playerID)
	if err != nil {
		return models.QueueEntry{}, err
	}
	scope.Log.Infof("left %s", key)
	return entry, nil
}

// Disconnect drops any queue entry the player holds. A player that is not
// queued or not known is not an error.
func (s *Service) Disconnect(rootScope *envelope.Scope, playerID string) error {
	_, err := s.LeaveQueue(rootScope, playerID)
	if errors.Is(err, models.ErrNotQueued) || errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// ArchivePlayer drops the player's queue entry and hides them from queues and
// leaderboards. Linking the profile again restores the player.
func (s *Service) ArchivePlayer(rootScope *envelope.Scope, playerID string) error {
	scope := rootScope.NewChildScope("Service.ArchivePlayer")
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, playerID)

	if err := s.Disconnect(scope, playerID); err != nil {
		return err
	}
	if err := s.players.Archive(playerID); err != nil {
		return err
	}
	scope.Log.Infof("player %s archived", playerID)
	return nil
}

func (s *Service) GetMatch(matchID string) (models.Match, error) {
	return s.matches.Get(matchID)
}

// ListMatches returns the matches in any of states, or every match.
func (s *Service) ListMatches(states ...models.MatchState) []models.Match {
	return s.matches.List(states...)
}

func (s *Service) Acknowledge(scope *envelope.Scope, matchID, playerID string) (models.Match, error) {
	return s.matches.Acknowledge(scope, matchID, playerID)
}

func (s *Service) AwaitResult(scope *envelope.Scope, matchID, playerID string) (models.Match, error) {
	return s.matches.AwaitResult(scope, matchID, playerID)
}

// ReportResult finalizes a match on behalf of a roster member.
func (s *Service) ReportResult(scope *envelope.Scope, req ReportResultRequest) (models.Match, error) {
	if err := req.Validate(); err != nil {
		return models.Match{}, err
	}
	return s.matches.ReportResult(scope, req.MatchID, req.ReporterID, swag.IntValue(req.WinningTeam), req.Stats)
}

// CancelMatch aborts a non-terminal match. An empty reason is recorded as an admin abort.
func (s *Service) CancelMatch(scope *envelope.Scope, matchID, reason string) (models.Match, error) {
	if reason == "" {
		reason = constants.CancelReasonAdmin
	}
	return s.matches.Cancel(scope, matchID, reason)
}

// RequestStats returns the player's rating, counters, membership and recent matches.
func (s *Service) RequestStats(playerID string) (PlayerStats, error) {
	player, err := s.players.Get(playerID)
	if err != nil {
		return PlayerStats{}, err
	}
	state, err := s.players.State(playerID)
	if err != nil {
		return PlayerStats{}, err
	}

	stats := PlayerStats{
		Player: player,
		State:  state,
		Recent: player.RecentHistory(recentMatches),
	}
	if played := player.Stats.MatchesPlayed(); played > 0 {
		stats.WinRate = float64(player.Stats.Wins) / float64(played)
	}
	return stats, nil
}

// RequestLeaderboard ranks players by MMR. An empty region ranks every region;
// a mode keeps only players who finished at least one match in it.
func (s *Service) RequestLeaderboard(region, mode string) ([]LeaderboardEntry, error) {
	if region != "" {
		if err := models.ValidateRegion(region); err != nil {
			return nil, err
		}
	}

	var keep func(models.Player) bool
	if mode != "" {
		if err := models.ValidateMode(mode); err != nil {
			return nil, err
		}
		keep = func(p models.Player) bool {
			return pie.Any(p.History, func(r models.MatchRecord) bool { return r.Mode == mode })
		}
	}

	players := s.players.Leaderboard(region, s.cfg.LeaderboardSize, keep)
	board := make([]LeaderboardEntry, 0, len(players))
	for i, p := range players {
		board = append(board, LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Handle:   p.Handle,
			Region:   p.Region,
			MMR:      p.MMR,
			Tier:     p.Tier,
			Stats:    p.Stats,
		})
	}
	return board, nil
}

// QueueStatus returns the waiting count of every non-empty pool.
func (s *Service) QueueStatus() models.QueueStatus {
	return models.QueueStatus{Pools: s.pools.Counts(), Total: s.pools.Total()}
}
