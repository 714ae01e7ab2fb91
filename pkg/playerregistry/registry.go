// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package playerregistry is the authoritative store of player profiles,
// ratings and queue membership.
package playerregistry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/typ.v4/slices"

	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

// entry guards one player. Updates to different players never share a lock.
type entry struct {
	mu     sync.Mutex
	player models.Player
	state  models.PlayerState
}

// Registry holds every known player keyed by identity.
// The map lock only guards membership; player data is guarded per entry.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	initialMMR int
	now        func() time.Time
}

// Profile is the linkable part of a player.
type Profile struct {
	ID       string
	Handle   string
	Platform string
	Region   string
}

// Update is the change applied to one player when a match is finalized.
type Update struct {
	PlayerID string
	Delta    int
	Won      bool
	Stats    models.StatLine

	// Record, when set, is appended to the player's history with MMRDelta
	// replaced by the applied delta.
	Record *models.MatchRecord
}

func New(initialMMR int, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries:    make(map[string]*entry),
		initialMMR: initialMMR,
		now:        now,
	}
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "player", ID: id}
	}
	return e, nil
}

func (r *Registry) getOrCreateEntry(id string) (*entry, bool) {
	if e, err := r.lookup(id); err == nil {
		return e, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e, false
	}
	e := &entry{player: models.NewPlayer(id, r.initialMMR, r.now())}
	r.entries[id] = e
	return e, true
}

// GetOrCreate returns the player, creating it with the initial MMR on first call.
func (r *Registry) GetOrCreate(scope *envelope.Scope, id string) (models.Player, error) {
	if strings.TrimSpace(id) == "" {
		return models.Player{}, &models.ValidationError{Field: "player id", Reason: "empty"}
	}
	e, created := r.getOrCreateEntry(id)
	if created {
		scope.Log.WithField("playerID", id).Info("player created")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player.Copy(), nil
}

// Link creates or updates the profile fields of a player. Rating and stats are untouched.
func (r *Registry) Link(scope *envelope.Scope, profile Profile) (models.Player, bool, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return models.Player{}, false, &models.ValidationError{Field: "player id", Reason: "empty"}
	}
	if err := models.ValidateRegion(profile.Region); err != nil {
		return models.Player{}, false, err
	}

	e, created := r.getOrCreateEntry(profile.ID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.Handle = profile.Handle
	e.player.Platform = profile.Platform
	e.player.Region = profile.Region
	e.player.Archived = false

	scope.Log.WithField("playerID", profile.ID).WithField("created", created).Info("profile linked")
	return e.player.Copy(), created, nil
}

// Get returns a copy of the player.
func (r *Registry) Get(id string) (models.Player, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Player{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player.Copy(), nil
}

// State returns the queue/match membership of the player.
func (r *Registry) State(id string) (models.PlayerState, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.PlayerState{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.state
	if state.Queue != nil {
		key := *state.Queue
		state.Queue = &key
	}
	return state, nil
}

// Archive hides a player from leaderboards and queues. Players are never deleted.
func (r *Registry) Archive(id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.Archived = true
	return nil
}

// SetQueueState records that the player holds a queue entry in pool.
// It is the single guard against double-queueing.
func (r *Registry) SetQueueState(id string, pool models.PoolKey) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.state.Queue != nil:
		return &models.AlreadyQueuedError{PlayerID: id, Pool: *e.state.Queue}
	case e.state.MatchID != "":
		return &models.InvalidStateError{ID: id, State: "in match " + e.state.MatchID, Action: "queue player"}
	case e.player.Archived:
		return &models.InvalidStateError{ID: id, State: "archived", Action: "queue player"}
	}

	key := pool
	e.state.Queue = &key
	return nil
}

// ClearQueueState drops the queue flag if it points at pool.
func (r *Registry) ClearQueueState(id string, pool models.PoolKey) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Queue == nil || *e.state.Queue != pool {
		return &models.NotQueuedError{PlayerID: id}
	}
	e.state.Queue = nil
	return nil
}

// QueueState returns the pool the player is queued in, or nil.
func (r *Registry) QueueState(id string) (*models.PoolKey, error) {
	state, err := r.State(id)
	if err != nil {
		return nil, err
	}
	return state.Queue, nil
}

// MarkMatched moves the player from its queue onto a match roster.
func (r *Registry) MarkMatched(id string, pool models.PoolKey, matchID string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Queue == nil || *e.state.Queue != pool {
		return &models.NotQueuedError{PlayerID: id}
	}
	e.state.Queue = nil
	e.state.MatchID = matchID
	return nil
}

// AttachMatch sets the match back-reference without touching the queue flag.
// It is used when restoring non-terminal matches.
func (r *Registry) AttachMatch(id, matchID string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.MatchID = matchID
	return nil
}

// ReleaseMatch clears the back-reference if it still points at matchID.
func (r *Registry) ReleaseMatch(id, matchID string) {
	e, err := r.lookup(id)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.MatchID == matchID {
		e.state.MatchID = ""
	}
}

// ApplyRatingDelta applies one update atomically and recomputes the tier.
func (r *Registry) ApplyRatingDelta(scope *envelope.Scope, update Update) (models.Player, error) {
	players, err := r.ApplyResults(scope, []Update{update})
	if err != nil {
		return models.Player{}, err
	}
	return players[0], nil
}

// ApplyResults applies every update or none. All affected players are
// resolved before anything is written; entries are then locked in ID order so
// concurrent batches cannot deadlock. Players outside the batch are not blocked.
func (r *Registry) ApplyResults(scope *envelope.Scope, updates []Update) ([]models.Player, error) {
	entries := make([]*entry, len(updates))
	seen := make(map[string]struct{}, len(updates))
	for i, u := range updates {
		if _, dup := seen[u.PlayerID]; dup {
			return nil, &models.ValidationError{Field: "updates", Reason: "player " + u.PlayerID + " listed twice"}
		}
		seen[u.PlayerID] = struct{}{}

		if err := u.Stats.Validate(); err != nil {
			return nil, err
		}
		e, err := r.lookup(u.PlayerID)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}

	order := make([]int, len(updates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return updates[order[a]].PlayerID < updates[order[b]].PlayerID
	})
	for _, i := range order {
		entries[i].mu.Lock()
	}
	defer func() {
		for _, i := range order {
			entries[i].mu.Unlock()
		}
	}()

	result := make([]models.Player, len(updates))
	for i, u := range updates {
		p := &entries[i].player
		before := p.MMR
		p.SetMMR(p.MMR + u.Delta)

		if u.Won {
			p.Stats.Wins++
		} else {
			p.Stats.Losses++
		}
		p.Stats.Goals += u.Stats.Goals
		p.Stats.Assists += u.Stats.Assists
		p.Stats.Saves += u.Stats.Saves

		if u.Record != nil {
			record := *u.Record
			record.Won = u.Won
			record.MMRDelta = p.MMR - before
			p.History = append(p.History, record)
		}

		scope.Log.WithField("playerID", u.PlayerID).
			Debugf("rating updated %d -> %d (%s)", before, p.MMR, p.Tier)
		result[i] = p.Copy()
	}
	return result, nil
}

// Leaderboard returns up to limit players by MMR descending, ties broken by
// handle then ID. An empty region means every region; keep, when set, filters further.
func (r *Registry) Leaderboard(region string, limit int, keep func(models.Player) bool) []models.Player {
	players := slices.Filter(r.Snapshot(), func(p models.Player) bool {
		if p.Archived {
			return false
		}
		if region != "" && p.Region != region {
			return false
		}
		return keep == nil || keep(p)
	})

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].MMR != players[j].MMR {
			return players[i].MMR > players[j].MMR
		}
		if players[i].Handle != players[j].Handle {
			return players[i].Handle < players[j].Handle
		}
		return players[i].ID < players[j].ID
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players
}

// Snapshot copies every player, sorted by ID.
func (r *Registry) Snapshot() []models.Player {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	players := make([]models.Player, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		players = append(players, e.player.Copy())
		e.mu.Unlock()
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// Restore loads persisted players, replacing any with the same ID.
// Tiers are recomputed from MMR rather than trusted.
func (r *Registry) Restore(players []models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range players {
		p.SetMMR(p.MMR)
		if p.History == nil {
			p.History = []models.MatchRecord{}
		}
		r.entries[p.ID] = &entry{player: p}
	}
}

// Len returns the number of known players.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
