// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"time"
)

// TickInfo stores what one matchmaking tick did
type TickInfo struct {
	Timestamp      time.Time `json:"timestamp"`
	TickID         int64     `json:"tickID"`
	PoolsScanned   int       `json:"poolsScanned"`
	MatchCreated   int       `json:"matchCreated"`
	PlayersMatched int       `json:"playersMatched"`
	PlayersWaiting int       `json:"playersWaiting"`
	Failures       int       `json:"failures"`

	// MatchIDs lists the matches formed in this tick, in formation order.
	MatchIDs []string `json:"matchIDs"`
}
