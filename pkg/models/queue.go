// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/utils"
)

// PoolKey identifies one waiting pool.
type PoolKey struct {
	Region   string `json:"region"`
	Mode     string `json:"mode"`
	TeamSize int    `json:"team_size"`
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s/%dv%d", k.Region, k.Mode, k.TeamSize, k.TeamSize)
}

// MatchSize is the number of players a match in this pool needs.
func (k PoolKey) MatchSize() int {
	return 2 * k.TeamSize
}

// Less orders keys by region, mode, then team size.
func (k PoolKey) Less(other PoolKey) bool {
	if k.Region != other.Region {
		return k.Region < other.Region
	}
	if k.Mode != other.Mode {
		return k.Mode < other.Mode
	}
	return k.TeamSize < other.TeamSize
}

// NewPoolKey validates region, mode and team size against the catalogue.
func NewPoolKey(region, mode string, teamSize int) (PoolKey, error) {
	if err := ValidateRegion(region); err != nil {
		return PoolKey{}, err
	}
	if err := ValidateMode(mode); err != nil {
		return PoolKey{}, err
	}
	if !utils.Contains(constants.TeamSizes, teamSize) {
		return PoolKey{}, &ValidationError{Field: "team size", Reason: fmt.Sprintf("unsupported team size %d", teamSize)}
	}
	return PoolKey{Region: region, Mode: mode, TeamSize: teamSize}, nil
}

// ValidateRegion checks the region against the catalogue.
func ValidateRegion(region string) error {
	if !utils.Contains(constants.Regions, region) {
		return &ValidationError{Field: "region", Reason: fmt.Sprintf("unknown region %q", region)}
	}
	return nil
}

// ValidateMode checks the mode against the catalogue.
func ValidateMode(mode string) error {
	if !utils.Contains(constants.Modes, mode) {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	return nil
}

// ParseTeamSize accepts "2", "2v2" or "2V2".
func ParseTeamSize(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if left, right, found := strings.Cut(s, "v"); found {
		if left != right {
			return 0, &ValidationError{Field: "team size", Reason: fmt.Sprintf("uneven team size %q", s)}
		}
		s = left
	}
	n, err := strconv.Atoi(s)
	if err != nil || !utils.Contains(constants.TeamSizes, n) {
		return 0, &ValidationError{Field: "team size", Reason: fmt.Sprintf("unsupported team size %q", s)}
	}
	return n, nil
}

// NormalizeMapPreference returns "" for no preference and validates a named map
// against the mode's map set.
func NormalizeMapPreference(mode, mapPref string) (string, error) {
	mapPref = strings.TrimSpace(mapPref)
	if mapPref == "" || strings.EqualFold(mapPref, constants.MapRandom) {
		return "", nil
	}
	if !utils.Contains(constants.ModeMaps[mode], mapPref) {
		return "", &ValidationError{Field: "map", Reason: fmt.Sprintf("map %q is not played in %s", mapPref, mode)}
	}
	return mapPref, nil
}

// QueueEntry is one waiting player in a pool.
type QueueEntry struct {
	PlayerID   string    `json:"player_id"`
	Pool       PoolKey   `json:"pool"`
	MapPref    string    `json:"map_pref,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Seq is the arrival order within the pool, assigned on enqueue.
	Seq uint64 `json:"seq"`
}

// PoolCount is the number of waiting players in one pool.
type PoolCount struct {
	Pool  PoolKey `json:"pool"`
	Count int     `json:"count"`
}
