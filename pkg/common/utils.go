// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/utils"
)

// Random is the source of uniform choices used by the matchmaker.
type Random interface {
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRandom returns a concurrency-safe source seeded with seed.
func NewRandom(seed int64) Random {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandom generate a random source that is not determined
func NewTimeSeededRandom() Random {
	return NewRandom(time.Now().UnixNano())
}

// GenerateDigits returns a random string of n decimal digits.
func GenerateDigits(n int) (string, error) {
	return gonanoid.Generate(constants.RoomDigits, n)
}

// GenerateUUID is kept here for scope trace IDs.
func GenerateUUID() string {
	return utils.GenerateUUID()
}

// LogJSONFormatter is printing the data in log
func LogJSONFormatter(data interface{}) string {
	response, err := json.Marshal(data)
	if err != nil {
		logrus.Errorf("failed to marshal json.")

		return ""
	}

	return string(response)
}
