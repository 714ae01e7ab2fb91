// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

const (
	DefaultMatchmakingTick  = 30 * time.Second
	DefaultSweepInterval    = time.Minute
	DefaultMatchStaleAfter  = 20 * time.Minute
	DefaultSnapshotInterval = 60 * time.Minute

	// ShutdownGracePeriod bounds the final snapshot and http shutdown.
	ShutdownGracePeriod = 10 * time.Second
)

const (
	DefaultKFactor         = 32.0
	DefaultInitialMMR      = 0
	DefaultLeaderboardSize = 10
	DefaultEventBufferSize = 256

	// EloScale is the rating difference at which the expected score is 10:1.
	EloScale = 400.0
)

const (
	RoomNamePrefix    = "OS"
	RoomNameDigits    = 4
	RoomPasswordDigit = 3
	RoomDigits        = "0123456789"

	// RoomCredentialAttempts bounds regeneration on a collision with an active room.
	RoomCredentialAttempts = 32
)

// MapRandom is the preference value meaning "no preference".
const MapRandom = "Random"

const (
	MatchmakerFunction = "matchmakerTick"
	SweepFunction      = "matchSweep"
	SnapshotFunction   = "snapshot"

	// cancel reason constants.
	CancelReasonStale = "stale_no_result"
	CancelReasonAdmin = "admin_abort"
	CancelReasonAbort = "player_abort"

	// not matched reason constants.
	ReasonNotEnoughPlayers = "not_enough_players"
	ReasonFormationFailed  = "formation_failed"
)

// Regions in display order.
var Regions = []string{"NA-East", "NA-West", "EU", "ASIA", "OCE", "SAM", "ME"}

// Modes in display order.
var Modes = []string{"Soccar", "Hoops", "Rumble", "Dropshot", "Snow Day", "Heatseeker"}

// TeamSizes are the supported players-per-team values.
var TeamSizes = []int{1, 2, 3}

// ModeMaps lists the legal maps of every mode.
var ModeMaps = map[string][]string{
	"Soccar":     {"DFH Stadium", "Mannfield", "Champions Field", "Neo Tokyo", "Urban Central", "Beckwith Park"},
	"Hoops":      {"Dunk House", "The Block"},
	"Rumble":     {"DFH Stadium", "Mannfield", "Champions Field"},
	"Dropshot":   {"Core 707", "Throwback Stadium"},
	"Snow Day":   {"Snowy DFH Stadium", "Wintry Mannfield"},
	"Heatseeker": {"DFH Stadium", "Mannfield", "Champions Field"},
}
