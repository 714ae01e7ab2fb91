// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package service is the boundary the presentation layer talks to. It wires
// the registries, the queue pools, the matchmaker and the event bus together.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AccelByte/octanescore-matchmaker/pkg/common"
	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/events"
	"github.com/AccelByte/octanescore-matchmaker/pkg/matchmaker"
	"github.com/AccelByte/octanescore-matchmaker/pkg/matchregistry"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
	"github.com/AccelByte/octanescore-matchmaker/pkg/playerregistry"
	"github.com/AccelByte/octanescore-matchmaker/pkg/queue"
)

// Snapshotter persists and reloads players and matches.
type Snapshotter interface {
	SaveSnapshot(scope *envelope.Scope, players []models.Player, matches []models.Match) error
	LoadPlayers(scope *envelope.Scope) ([]models.Player, error)
	LoadMatches(scope *envelope.Scope) ([]models.Match, error)
}

// Options carries the collaborators that tests replace.
type Options struct {
	Store   Snapshotter // nil disables persistence
	Metrics metrics.MatchmakingMetrics
	Random  common.Random
	Now     func() time.Time
}

type Service struct {
	cfg        *config.Config
	players    *playerregistry.Registry
	pools      *queue.Pools
	matches    *matchregistry.Registry
	matchmaker *matchmaker.Matchmaker
	bus        *events.Bus
	store      Snapshotter
	now        func() time.Time
}

func New(cfg *config.Config, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Random == nil {
		opts.Random = common.NewTimeSeededRandom()
	}

	bus := events.NewBus(cfg.EventBufferSize, opts.Metrics)
	players := playerregistry.New(cfg.InitialMMR, opts.Now)
	pools := queue.NewPools(players)
	matches := matchregistry.New(cfg, players, bus, opts.Metrics, opts.Now)

	return &Service{
		cfg:        cfg,
		players:    players,
		pools:      pools,
		matches:    matches,
		matchmaker: matchmaker.New(cfg, pools, players, matches, bus, opts.Metrics, opts.Random, opts.Now),
		bus:        bus,
		store:      opts.Store,
		now:        opts.Now,
	}
}

// Events is the outbound event stream.
func (s *Service) Events() <-chan models.Event {
	return s.bus.Events()
}

// Tick runs one matchmaking scan immediately.
func (s *Service) Tick(scope *envelope.Scope) matchmaker.TickInfo {
	return s.matchmaker.Tick(scope)
}

// Sweep runs one stale-match sweep immediately.
func (s *Service) Sweep(scope *envelope.Scope) []string {
	return s.matches.Sweep(scope, s.now())
}

// Load restores the last snapshot. Queue state is never persisted, so every
// restored player starts outside any queue.
func (s *Service) Load(rootScope *envelope.Scope) error {
	if s.store == nil {
		return nil
	}
	scope := rootScope.NewChildScope("Service.Load")
	defer scope.Finish()

	players, err := s.store.LoadPlayers(scope)
	if err != nil {
		return err
	}
	s.players.Restore(players)

	matches, err := s.store.LoadMatches(scope)
	if err != nil {
		return err
	}
	s.matches.Restore(scope, matches)

	scope.Log.Infof("restored %d players and %d matches", len(players), len(matches))
	return nil
}

// Snapshot saves every player and match.
func (s *Service) Snapshot(rootScope *envelope.Scope) error {
	if s.store == nil {
		return nil
	}
	scope := rootScope.NewChildScope("Service.Snapshot")
	defer scope.Finish()

	return s.store.SaveSnapshot(scope, s.players.Snapshot(), s.matches.List())
}

// Run drives the matchmaking tick, the stale sweep and the periodic snapshot
// until ctx is done, then takes a final snapshot.
func (s *Service) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error { return s.matchmaker.Run(groupCtx) })
	group.Go(func() error { return s.matches.RunSweeper(groupCtx) })
	if s.store != nil {
		group.Go(func() error { return s.runSnapshots(groupCtx) })
	}

	err := group.Wait()

	scope := envelope.NewRootScope(context.Background(), constants.SnapshotFunction, "")
	defer scope.Finish()
	if snapErr := s.Snapshot(scope); snapErr != nil {
		scope.Log.Errorf("final snapshot failed: %v", snapErr)
		err = errors.Join(err, snapErr)
	}
	s.bus.Close()
	return err
}

func (s *Service) runSnapshots(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scope := envelope.NewRootScope(ctx, constants.SnapshotFunction, "")
			if err := s.Snapshot(scope); err != nil {
				// the next interval retries; state stays in memory
				scope.Log.Errorf("snapshot failed: %v", err)
			}
			scope.Finish()
		}
	}
}
