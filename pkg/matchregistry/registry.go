// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchregistry owns every formed match and drives its lifecycle
// from formation to result or cancellation.
package matchregistry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/playerregistry"
	"github.com/AccelByte/octanescore-matchmaker/pkg/rating"
)

// ErrRoomInUse is returned by Create when another live match holds the room name.
var ErrRoomInUse = errors.New("room name in use")

// PlayerRegistry is the part of the player registry a match needs.
type PlayerRegistry interface {
	Get(id string) (models.Player, error)
	ApplyResults(scope *envelope.Scope, updates []playerregistry.Update) ([]models.Player, error)
	AttachMatch(id, matchID string) error
	ReleaseMatch(id, matchID string)
}

// EventSink receives every emitted event.
type EventSink interface {
	Publish(scope *envelope.Scope, event models.Event)
}

// entry guards one match. Transitions on the same match are serialized;
// different matches never share a lock.
type entry struct {
	mu    sync.Mutex
	match models.Match
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	rooms   map[string]string // room name -> id of the live match holding it

	players    PlayerRegistry
	model      rating.Model
	sink       EventSink
	metrics    metrics.MatchmakingMetrics
	staleAfter time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

func New(cfg *config.Config, players PlayerRegistry, sink EventSink, m metrics.MatchmakingMetrics, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries:    make(map[string]*entry),
		rooms:      make(map[string]string),
		players:    players,
		model:      rating.New(cfg.KFactor),
		sink:       sink,
		metrics:    m,
		staleAfter: cfg.MatchStaleAfter,
		sweepEvery: cfg.SweepInterval,
		now:        now,
	}
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "match", ID: id}
	}
	return e, nil
}

// Create registers a newly formed match. Only the matchmaker calls it.
func (r *Registry) Create(scope *envelope.Scope, match models.Match) error {
	if err := match.Validate(); err != nil {
		return err
	}
	if match.State != models.MatchFormed {
		return &models.InvalidStateError{ID: match.ID, State: match.State.String(), Action: "create"}
	}
	now := r.now()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	match.UpdatedAt = match.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[match.ID]; exists {
		return &models.ValidationError{Field: "match id", Reason: "duplicate " + match.ID}
	}
	if holder, taken := r.rooms[match.Room.Name]; taken {
		return fmt.Errorf("%w: %s held by %s", ErrRoomInUse, match.Room.Name, holder)
	}
	r.entries[match.ID] = &entry{match: match.Copy()}
	r.rooms[match.Room.Name] = match.ID

	scope.Log.WithField("matchID", match.ID).Infof("match created in %s on %s", match.Pool, match.Map)
	return nil
}

// Discard drops a match that was created but never announced. It only
// succeeds while the match is still Formed.
func (r *Registry) Discard(matchID string) error {
	e, err := r.lookup(matchID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match.State != models.MatchFormed {
		return &models.InvalidStateError{ID: matchID, State: e.match.State.String(), Action: "discard"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, matchID)
	r.releaseRoomLocked(e.match)
	return nil
}

func (r *Registry) releaseRoomLocked(match models.Match) {
	if r.rooms[match.Room.Name] == match.ID {
		delete(r.rooms, match.Room.Name)
	}
}

// Get returns a copy of the match.
func (r *Registry) Get(matchID string) (models.Match, error) {
	e, err := r.lookup(matchID)
	if err != nil {
		return models.Match{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match.Copy(), nil
}

// List returns copies of the matches in the given states (all when none
// given), oldest first.
func (r *Registry) List(states ...models.MatchState) []models.Match {
	r.mu.RLock()
	entries := pie.Values(r.entries)
	r.mu.RUnlock()

	matches := make([]models.Match, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if len(states) == 0 || pie.Contains(states, e.match.State) {
			matches = append(matches, e.match.Copy())
		}
		e.mu.Unlock()
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// ActiveRoomNames returns the room names held by non-terminal matches.
func (r *Registry) ActiveRoomNames() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make(map[string]struct{}, len(r.rooms))
	for name := range r.rooms {
		names[name] = struct{}{}
	}
	return names
}

// Len is the number of known matches, terminal ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// transitionLocked moves the match to state and emits MatchUpdated. The entry lock must be held.
func (r *Registry) transitionLocked(scope *envelope.Scope, e *entry, to models.MatchState, by string) error {
	from := e.match.State
	if !models.CanTransition(from, to) {
		return &models.InvalidStateError{ID: e.match.ID, State: from.String(), Action: "move to " + to.String()}
	}
	e.match.State = to
	e.match.UpdatedAt = r.now()

	scope.Log.WithField("matchID", e.match.ID).Infof("match %s -> %s", from, to)
	r.sink.Publish(scope, models.NewEvent(models.EventMatchUpdated, e.match.UpdatedAt, models.MatchUpdatedEvent{
		MatchID: e.match.ID,
		State:   to,
		By:      by,
	}))
	return nil
}

func checkRoster(match models.Match, playerID string) error {
	if match.TeamOf(playerID) < 0 {
		return &models.UnauthorizedError{MatchID: match.ID, PlayerID: playerID}
	}
	return nil
}

// Acknowledge records that a roster member joined the room: Formed -> Active.
// Acknowledging an Active match again is a no-op.
func (r *Registry) Acknowledge(rootScope *envelope.Scope, matchID, playerID string) (models.Match, error) {
	scope := rootScope.NewChildScope("MatchRegistry.Acknowledge")
	defer scope.Finish()

	e, err := r.lookup(matchID)
	if err != nil {
		return models.Match{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkRoster(e.match, playerID); err != nil {
		return models.Match{}, err
	}
	if e.match.State != models.MatchActive {
		if err := r.transitionLocked(scope, e, models.MatchActive, playerID); err != nil {
			return models.Match{}, err
		}
	}
	return e.match.Copy(), nil
}

// AwaitResult records that the game ended and a report is expected.
// Calling it on a match already awaiting its result is a no-op.
func (r *Registry) AwaitResult(rootScope *envelope.Scope, matchID, playerID string) (models.Match, error) {
	scope := rootScope.NewChildScope("MatchRegistry.AwaitResult")
	defer scope.Finish()

	e, err := r.lookup(matchID)
	if err != nil {
		return models.Match{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkRoster(e.match, playerID); err != nil {
		return models.Match{}, err
	}
	if e.match.State != models.MatchAwaitingResult {
		if err := r.transitionLocked(scope, e, models.MatchAwaitingResult, playerID); err != nil {
			return models.Match{}, err
		}
	}
	return e.match.Copy(), nil
}

// ReportResult finalizes the match. Rating deltas and stat increments are
// applied to every roster member or to none; on failure the match stays
// AwaitingResult and can be reported again.
func (r *Registry) ReportResult(
	rootScope *envelope.Scope,
	matchID string,
	reporterID string,
	winningTeam int,
	stats map[string]models.StatLine,
) (models.Match, error) {
	scope := rootScope.NewChildScope("MatchRegistry.ReportResult")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	e, err := r.lookup(matchID)
	if err != nil {
		return models.Match{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	match := e.match
	if match.State.IsTerminal() {
		return models.Match{}, &models.InvalidStateError{ID: matchID, State: match.State.String(), Action: "report result"}
	}
	if err := checkRoster(match, reporterID); err != nil {
		return models.Match{}, err
	}
	if winningTeam != 0 && winningTeam != 1 {
		return models.Match{}, &models.ValidationError{Field: "winning team", Reason: fmt.Sprintf("%d is not 0 or 1", winningTeam)}
	}
	reported := make(map[string]models.StatLine, len(stats))
	for id, line := range stats {
		if match.TeamOf(id) < 0 {
			return models.Match{}, &models.ValidationError{Field: "stats", Reason: "player " + id + " is not on the roster"}
		}
		if err := line.Validate(); err != nil {
			return models.Match{}, err
		}
		reported[id] = line
	}

	if match.State != models.MatchAwaitingResult {
		if err := r.transitionLocked(scope, e, models.MatchAwaitingResult, reporterID); err != nil {
			return models.Match{}, err
		}
	}

	before := make(map[string]models.Player, match.Pool.MatchSize())
	var sides [2][]rating.Rated
	for team, roster := range match.Teams {
		for _, id := range roster {
			p, err := r.players.Get(id)
			if err != nil {
				scope.RecordError(err)
				return models.Match{}, err
			}
			before[id] = p
			sides[team] = append(sides[team], rating.Rated{PlayerID: id, MMR: p.MMR})
		}
	}
	deltas := r.model.ComputeUpdate(sides[winningTeam], sides[1-winningTeam])

	now := r.now()
	updates := make([]playerregistry.Update, 0, len(before))
	for _, id := range match.PlayerIDs() {
		updates = append(updates, playerregistry.Update{
			PlayerID: id,
			Delta:    deltas[id],
			Won:      match.TeamOf(id) == winningTeam,
			Stats:    reported[id],
			Record: &models.MatchRecord{
				MatchID:   match.ID,
				Mode:      match.Pool.Mode,
				Map:       match.Map,
				Region:    match.Pool.Region,
				TeamSize:  match.Pool.TeamSize,
				Timestamp: now,
			},
		})
	}
	updated, err := r.players.ApplyResults(scope, updates)
	if err != nil {
		scope.RecordError(err)
		scope.Log.WithField("matchID", matchID).Errorf("result not applied, match stays %s: %v", e.match.State, err)
		return models.Match{}, err
	}

	applied := make(map[string]int, len(updated))
	for _, p := range updated {
		applied[p.ID] = p.MMR - before[p.ID].MMR
	}
	e.match.State = models.MatchCompleted
	e.match.UpdatedAt = now
	e.match.CompletedAt = &now
	e.match.Result = &models.Result{
		WinningTeam:  winningTeam,
		ReportedBy:   reporterID,
		Stats:        reported,
		RatingDeltas: applied,
	}
	r.finishLocked(e)

	for _, p := range updated {
		old := before[p.ID]
		r.sink.Publish(scope, models.NewEvent(models.EventRatingChanged, now, models.RatingChangedEvent{
			PlayerID: p.ID,
			OldMMR:   old.MMR,
			NewMMR:   p.MMR,
			OldTier:  old.Tier,
			NewTier:  p.Tier,
		}))
	}
	r.sink.Publish(scope, models.NewEvent(models.EventMatchCompleted, now, models.MatchCompletedEvent{
		MatchID:      matchID,
		WinningTeam:  winningTeam,
		RatingDeltas: applied,
	}))
	r.metrics.AddMatchCompleted(match.Pool.Region, match.Pool.Mode, match.Pool.TeamSize)

	scope.Log.WithField("matchID", matchID).Infof("match completed, team %d won", winningTeam)
	return e.match.Copy(), nil
}

// finishLocked releases the room and the roster back-references of a match
// that just became terminal.
func (r *Registry) finishLocked(e *entry) {
	r.mu.Lock()
	r.releaseRoomLocked(e.match)
	r.mu.Unlock()

	for _, id := range e.match.PlayerIDs() {
		r.players.ReleaseMatch(id, e.match.ID)
	}
}

// Cancel aborts a non-terminal match. No rating changes are made.
func (r *Registry) Cancel(rootScope *envelope.Scope, matchID, reason string) (models.Match, error) {
	scope := rootScope.NewChildScope("MatchRegistry.Cancel")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	e, err := r.lookup(matchID)
	if err != nil {
		return models.Match{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.match.State.IsTerminal() {
		return models.Match{}, &models.InvalidStateError{ID: matchID, State: e.match.State.String(), Action: "cancel"}
	}
	e.match.State = models.MatchCancelled
	e.match.UpdatedAt = r.now()
	e.match.CancelReason = reason
	r.finishLocked(e)

	r.sink.Publish(scope, models.NewEvent(models.EventMatchCancelled, e.match.UpdatedAt, models.MatchCancelledEvent{
		MatchID: matchID,
		Reason:  reason,
	}))
	r.metrics.AddMatchCancelled(reason)

	scope.Log.WithField("matchID", matchID).Infof("match cancelled: %s", reason)
	return e.match.Copy(), nil
}

// Sweep cancels every non-terminal match created more than the stale
// threshold before now. A failure on one match does not stop the sweep.
func (r *Registry) Sweep(rootScope *envelope.Scope, now time.Time) []string {
	scope := rootScope.NewChildScope("MatchRegistry.Sweep")
	defer scope.Finish()

	start := time.Now()
	defer func() {
		r.metrics.AddTickElapsedTimeMs(constants.SweepFunction, time.Since(start))
	}()

	cancelled := make([]string, 0)
	for _, m := range r.List(models.MatchFormed, models.MatchActive, models.MatchAwaitingResult) {
		if now.Sub(m.CreatedAt) <= r.staleAfter {
			continue
		}
		if _, err := r.Cancel(scope, m.ID, constants.CancelReasonStale); err != nil {
			// reported or cancelled since List
			scope.Log.WithField("matchID", m.ID).Warnf("sweep skipped match: %v", err)
			continue
		}
		cancelled = append(cancelled, m.ID)
	}
	if len(cancelled) > 0 {
		scope.Log.Infof("sweep cancelled %d stale matches", len(cancelled))
	}
	return cancelled
}

// RunSweeper sweeps on every sweep interval until ctx is done. Ticks that
// fire while a sweep is still running are dropped.
func (r *Registry) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scope := envelope.NewRootScope(ctx, constants.SweepFunction, "")
			r.Sweep(scope, r.now())
			scope.Finish()
		}
	}
}

// Restore loads persisted matches. Non-terminal ones reclaim their room
// name and roster back-references.
func (r *Registry) Restore(scope *envelope.Scope, matches []models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range matches {
		r.entries[m.ID] = &entry{match: m.Copy()}
		if m.State.IsTerminal() {
			continue
		}
		r.rooms[m.Room.Name] = m.ID
		for _, id := range m.PlayerIDs() {
			if err := r.players.AttachMatch(id, m.ID); err != nil {
				scope.Log.WithField("matchID", m.ID).Warnf("roster player %s not restored: %v", id, err)
			}
		}
	}
}
