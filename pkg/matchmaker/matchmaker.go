// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/oklog/ulid/v2"

	"github.com/AccelByte/octanescore-matchmaker/pkg/common"
	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/matchregistry"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/queue"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rating"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rebalance"
	"github.com/AccelByte/octanescore-matchmaker/pkg/utils"
)

// Matchmaker drains full batches from every pool on each tick and forms matches.
type Matchmaker struct {
	cfg     *config.Config
	pools   PoolSource
	players PlayerDirectory
	matches MatchStore
	sink    EventSink
	metrics metrics.MatchmakingMetrics
	random  common.Random
	now     func() time.Time
	buffers *models.Pool

	// ticking keeps a manual Tick from overlapping a scheduled one.
	ticking sync.Mutex
	tickID  atomic.Int64
}

func New(
	cfg *config.Config,
	pools PoolSource,
	players PlayerDirectory,
	matches MatchStore,
	sink EventSink,
	m metrics.MatchmakingMetrics,
	random common.Random,
	now func() time.Time,
) *Matchmaker {
	if random == nil {
		random = common.NewTimeSeededRandom()
	}
	if now == nil {
		now = time.Now
	}
	return &Matchmaker{
		cfg:     cfg,
		pools:   pools,
		players: players,
		matches: matches,
		sink:    sink,
		metrics: m,
		random:  random,
		now:     now,
		buffers: models.NewPool(),
	}
}

// Run ticks on every matchmaking period until ctx is done. A tick that would
// fire while the previous one is still running is dropped by the ticker.
func (m *Matchmaker) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.MatchmakingTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scope := envelope.NewRootScope(ctx, constants.MatchmakerFunction, "")
			m.Tick(scope)
			scope.Finish()
		}
	}
}

// Tick scans every pool once in key order. A pool holding fewer than
// 2*teamSize players is left untouched. A failure in one pool is logged and
// the scan moves on.
func (m *Matchmaker) Tick(rootScope *envelope.Scope) TickInfo {
	scope := rootScope.NewChildScope("Matchmaker.Tick")
	defer scope.Finish()

	m.ticking.Lock()
	defer m.ticking.Unlock()

	start := time.Now()
	info := TickInfo{
		Timestamp: m.now(),
		TickID:    m.tickID.Add(1),
		MatchIDs:  make([]string, 0),
	}

	for _, key := range m.pools.Keys() {
		pool, ok := m.pools.Lookup(key)
		if !ok {
			continue
		}
		info.PoolsScanned++

		formed, err := m.tickPool(scope, key, pool)
		info.MatchIDs = append(info.MatchIDs, formed...)
		info.MatchCreated += len(formed)
		info.PlayersMatched += len(formed) * key.MatchSize()
		if err != nil {
			info.Failures++
			scope.RecordError(err)
			scope.Log.WithField("pool", key.String()).Errorf("match formation failed: %v", err)
		}

		waiting := pool.Len()
		info.PlayersWaiting += waiting
		m.metrics.PlayersInQueue(key.Region, key.Mode, key.TeamSize, waiting)
	}

	m.sink.Publish(scope, models.NewEvent(models.EventQueueStatus, info.Timestamp, models.QueueStatus{
		Pools: m.pools.Counts(),
		Total: info.PlayersWaiting,
	}))
	m.metrics.AddTickElapsedTimeMs(constants.MatchmakerFunction, time.Since(start))

	if info.MatchCreated > 0 || info.Failures > 0 {
		scope.Log.Infof("tick %d: %d matches formed, %d players waiting, %d failures",
			info.TickID, info.MatchCreated, info.PlayersWaiting, info.Failures)
	}
	return info
}

// tickPool drains up to MaxMatchesPerPool batches (0 = until the pool runs short).
// A batch that cannot be formed goes back to the head of the pool.
func (m *Matchmaker) tickPool(scope *envelope.Scope, key models.PoolKey, pool *queue.QueuePool) ([]string, error) {
	size := key.MatchSize()
	limit := m.cfg.MaxMatchesPerPool
	formed := make([]string, 0, 1)

	for limit == 0 || len(formed) < limit {
		buf := m.buffers.GetQueueEntries(size)
		batch, ok := pool.DrainBatch(size, buf)
		if !ok {
			m.buffers.PutQueueEntries(batch)
			if len(formed) == 0 && pool.Len() > 0 {
				m.metrics.AddUnmatchedReason(key.Region, key.Mode, key.TeamSize, constants.ReasonNotEnoughPlayers)
			}
			return formed, nil
		}

		match, err := m.formMatch(scope, key, batch)
		if err != nil {
			pool.Requeue(batch)
			m.buffers.PutQueueEntries(batch)
			m.metrics.AddUnmatchedReason(key.Region, key.Mode, key.TeamSize, constants.ReasonFormationFailed)
			return formed, err
		}
		m.buffers.PutQueueEntries(batch)
		formed = append(formed, match.ID)
	}
	return formed, nil
}

// formMatch turns one drained batch into a registered, announced match. Every
// player is moved from its queue onto the roster, or none is.
func (m *Matchmaker) formMatch(rootScope *envelope.Scope, key models.PoolKey, entries []models.QueueEntry) (models.Match, error) {
	matchID := ulid.Make().String()
	scope := rootScope.NewChildScope("Matchmaker.formMatch").WithField("matchID", matchID)
	defer scope.Finish()
	scope.SetAttributes(envelope.PoolTag, key.String())
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	members := make([]rating.Rated, 0, len(entries))
	for _, e := range entries {
		p, err := m.players.Get(e.PlayerID)
		if err != nil {
			return models.Match{}, err
		}
		members = append(members, rating.Rated{PlayerID: e.PlayerID, MMR: p.MMR})
	}

	proposal := Proposal{
		MatchID: matchID,
		Pool:    key,
		Entries: entries,
		Teams:   rebalance.SnakeDraft(scope, matchID, members),
		Map:     ChooseMap(m.random, key.Mode, entries),
	}

	match, err := m.register(scope, &proposal)
	if err != nil {
		return models.Match{}, err
	}

	if err := m.moveToRoster(scope, proposal); err != nil {
		if discardErr := m.matches.Discard(matchID); discardErr != nil {
			scope.Log.Errorf("failed to discard unannounced match: %v", discardErr)
		}
		return models.Match{}, err
	}

	formed := proposal.MatchFormed()
	scope.Log.Debugf("match formed payload: %s", common.LogJSONFormatter(formed))
	m.sink.Publish(scope, models.NewEvent(models.EventMatchFormed, match.CreatedAt, formed))
	m.metrics.AddMatchFormed(key.Region, key.Mode, key.TeamSize, rebalance.CountDistance(proposal.Teams))

	scope.Log.Infof("match formed in %s on %s room %s: %v vs %v", key, proposal.Map, proposal.Room.Name,
		proposal.Teams[rebalance.TeamA].PlayerIDs(), proposal.Teams[rebalance.TeamB].PlayerIDs())
	return match, nil
}

// register creates the match, drawing fresh room credentials whenever the
// name collides with a live match.
func (m *Matchmaker) register(scope *envelope.Scope, proposal *Proposal) (models.Match, error) {
	active := m.matches.ActiveRoomNames()
	for attempt := 0; attempt < constants.RoomCredentialAttempts; attempt++ {
		room, err := GenerateRoom(active)
		if err != nil {
			return models.Match{}, err
		}
		proposal.Room = room

		match := proposal.Match()
		match.CreatedAt = m.now()
		err = m.matches.Create(scope, match)
		if err == nil {
			return match, nil
		}
		if !errors.Is(err, matchregistry.ErrRoomInUse) {
			return models.Match{}, err
		}
		active[room.Name] = struct{}{}
	}
	return models.Match{}, fmt.Errorf("no free room name after %d attempts", constants.RoomCredentialAttempts)
}

// moveToRoster marks every drained player as matched. On failure the
// players already marked are put back in the queue state they came from.
func (m *Matchmaker) moveToRoster(scope *envelope.Scope, proposal Proposal) error {
	marked := make([]string, 0, len(proposal.Entries))
	for _, e := range proposal.Entries {
		if err := m.players.MarkMatched(e.PlayerID, proposal.Pool, proposal.MatchID); err != nil {
			for _, id := range marked {
				m.players.ReleaseMatch(id, proposal.MatchID)
				if restoreErr := m.players.SetQueueState(id, proposal.Pool); restoreErr != nil {
					scope.Log.Warnf("player %s not restored to %s: %v", id, proposal.Pool, restoreErr)
				}
			}
			return err
		}
		marked = append(marked, e.PlayerID)
	}
	return nil
}

// ChooseMap honours a map preference shared by every drained player and
// otherwise picks uniformly from the mode's map set.
func ChooseMap(random common.Random, mode string, entries []models.QueueEntry) string {
	prefs := pie.Map(entries, func(e models.QueueEntry) string { return e.MapPref })
	if len(prefs) > 0 && prefs[0] != "" && utils.AllEqual(prefs) {
		return prefs[0]
	}
	maps := constants.ModeMaps[mode]
	if len(maps) == 0 {
		return constants.MapRandom
	}
	return maps[random.Intn(len(maps))]
}

// GenerateRoom draws an "OS####" room name not present in taken and a numeric password.
func GenerateRoom(taken map[string]struct{}) (models.RoomCredentials, error) {
	for attempt := 0; attempt < constants.RoomCredentialAttempts; attempt++ {
		digits, err := common.GenerateDigits(constants.RoomNameDigits)
		if err != nil {
			return models.RoomCredentials{}, err
		}
		name := constants.RoomNamePrefix + digits
		if _, used := taken[name]; used {
			continue
		}
		password, err := common.GenerateDigits(constants.RoomPasswordDigit)
		if err != nil {
			return models.RoomCredentials{}, err
		}
		return models.RoomCredentials{Name: name, Password: password}, nil
	}
	return models.RoomCredentials{}, fmt.Errorf("no free room name after %d attempts", constants.RoomCredentialAttempts)
}
