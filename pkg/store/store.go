// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package store persists players and matches as flat SQLite records.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite database holding the latest snapshot of players and matches.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it to the latest schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := optimizeSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func optimizeSQLite(ctx context.Context, db *sql.DB) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
	}
	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot writes players and matches in one transaction, replacing
// rows with the same ID.
func (s *Store) SaveSnapshot(rootScope *envelope.Scope, players []models.Player, matches []models.Match) error {
	scope := rootScope.NewChildScope("Store.SaveSnapshot")
	defer scope.Finish()

	tx, err := s.db.BeginTx(scope.Ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := savePlayers(scope.Ctx, tx, players); err != nil {
		scope.RecordError(err)
		return err
	}
	if err := saveMatches(scope.Ctx, tx, matches); err != nil {
		scope.RecordError(err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	scope.Log.Infof("snapshot saved: %d players, %d matches", len(players), len(matches))
	return nil
}

const upsertPlayer = `
INSERT INTO players (id, handle, platform, region, mmr, tier, wins, losses, goals, assists, saves, history, created_at, archived)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    handle = excluded.handle,
    platform = excluded.platform,
    region = excluded.region,
    mmr = excluded.mmr,
    tier = excluded.tier,
    wins = excluded.wins,
    losses = excluded.losses,
    goals = excluded.goals,
    assists = excluded.assists,
    saves = excluded.saves,
    history = excluded.history,
    created_at = excluded.created_at,
    archived = excluded.archived`

func savePlayers(ctx context.Context, tx *sql.Tx, players []models.Player) error {
	stmt, err := tx.PrepareContext(ctx, upsertPlayer)
	if err != nil {
		return fmt.Errorf("failed to prepare player upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range players {
		history, err := json.Marshal(p.History)
		if err != nil {
			return fmt.Errorf("failed to encode history of %s: %w", p.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Handle, p.Platform, p.Region, p.MMR, p.Tier.String(),
			p.Stats.Wins, p.Stats.Losses, p.Stats.Goals, p.Stats.Assists, p.Stats.Saves,
			string(history), p.CreatedAt.UTC().Format(timeLayout), p.Archived,
		)
		if err != nil {
			return fmt.Errorf("failed to save player %s: %w", p.ID, err)
		}
	}
	return nil
}

const upsertMatch = `
INSERT INTO matches (id, region, mode, team_size, map, team_a, team_b, state, room_name, room_password,
    created_at, updated_at, completed_at, cancel_reason, result)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    map = excluded.map,
    team_a = excluded.team_a,
    team_b = excluded.team_b,
    state = excluded.state,
    room_name = excluded.room_name,
    room_password = excluded.room_password,
    updated_at = excluded.updated_at,
    completed_at = excluded.completed_at,
    cancel_reason = excluded.cancel_reason,
    result = excluded.result`

func saveMatches(ctx context.Context, tx *sql.Tx, matches []models.Match) error {
	stmt, err := tx.PrepareContext(ctx, upsertMatch)
	if err != nil {
		return fmt.Errorf("failed to prepare match upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		teamA, err := json.Marshal(m.Teams[0])
		if err != nil {
			return err
		}
		teamB, err := json.Marshal(m.Teams[1])
		if err != nil {
			return err
		}

		var completedAt, result sql.NullString
		if m.CompletedAt != nil {
			completedAt = sql.NullString{String: m.CompletedAt.UTC().Format(timeLayout), Valid: true}
		}
		if m.Result != nil {
			encoded, err := json.Marshal(m.Result)
			if err != nil {
				return fmt.Errorf("failed to encode result of %s: %w", m.ID, err)
			}
			result = sql.NullString{String: string(encoded), Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			m.ID, m.Pool.Region, m.Pool.Mode, m.Pool.TeamSize, m.Map, string(teamA), string(teamB),
			m.State.String(), m.Room.Name, m.Room.Password,
			m.CreatedAt.UTC().Format(timeLayout), m.UpdatedAt.UTC().Format(timeLayout),
			completedAt, m.CancelReason, result,
		)
		if err != nil {
			return fmt.Errorf("failed to save match %s: %w", m.ID, err)
		}
	}
	return nil
}

// LoadPlayers returns every stored player ordered by ID.
func (s *Store) LoadPlayers(rootScope *envelope.Scope) ([]models.Player, error) {
	scope := rootScope.NewChildScope("Store.LoadPlayers")
	defer scope.Finish()

	rows, err := s.db.QueryContext(scope.Ctx, `
SELECT id, handle, platform, region, mmr, wins, losses, goals, assists, saves, history, created_at, archived
FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var (
			p         models.Player
			history   string
			createdAt string
		)
		err := rows.Scan(&p.ID, &p.Handle, &p.Platform, &p.Region, &p.MMR,
			&p.Stats.Wins, &p.Stats.Losses, &p.Stats.Goals, &p.Stats.Assists, &p.Stats.Saves,
			&history, &createdAt, &p.Archived)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		if err := json.Unmarshal([]byte(history), &p.History); err != nil {
			return nil, fmt.Errorf("failed to decode history of %s: %w", p.ID, err)
		}
		if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to decode created_at of %s: %w", p.ID, err)
		}
		p.SetMMR(p.MMR)
		players = append(players, p)
	}
	return players, rows.Err()
}

// LoadMatches returns every stored match ordered by creation.
func (s *Store) LoadMatches(rootScope *envelope.Scope) ([]models.Match, error) {
	scope := rootScope.NewChildScope("Store.LoadMatches")
	defer scope.Finish()

	rows, err := s.db.QueryContext(scope.Ctx, `
SELECT id, region, mode, team_size, map, team_a, team_b, state, room_name, room_password,
    created_at, updated_at, completed_at, cancel_reason, result
FROM matches ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var (
			m                    models.Match
			teamA, teamB, state  string
			createdAt, updatedAt string
			completedAt, result  sql.NullString
		)
		err := rows.Scan(&m.ID, &m.Pool.Region, &m.Pool.Mode, &m.Pool.TeamSize, &m.Map, &teamA, &teamB,
			&state, &m.Room.Name, &m.Room.Password, &createdAt, &updatedAt, &completedAt, &m.CancelReason, &result)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if err := decodeMatch(&m, teamA, teamB, state, createdAt, updatedAt, completedAt, result); err != nil {
			return nil, fmt.Errorf("failed to decode match %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func decodeMatch(m *models.Match, teamA, teamB, state, createdAt, updatedAt string, completedAt, result sql.NullString) error {
	var err error
	if err = json.Unmarshal([]byte(teamA), &m.Teams[0]); err != nil {
		return err
	}
	if err = json.Unmarshal([]byte(teamB), &m.Teams[1]); err != nil {
		return err
	}
	if m.State, err = models.ParseMatchState(state); err != nil {
		return err
	}
	if m.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return err
	}
	if m.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return err
	}
	if completedAt.Valid {
		at, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return err
		}
		m.CompletedAt = &at
	}
	if result.Valid {
		m.Result = &models.Result{}
		if err := json.Unmarshal([]byte(result.String), m.Result); err != nil {
			return err
		}
	}
	return nil
}
