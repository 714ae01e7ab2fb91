// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
	"fmt"
)

// Error kinds, usable with errors.Is on any of the typed errors below.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyQueued = errors.New("already queued")
	ErrNotQueued     = errors.New("not queued")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
)

var errorCodeMap = map[error]int{
	ErrNotFound:      510120,
	ErrAlreadyQueued: 510121,
	ErrNotQueued:     510122,
	ErrInvalidState:  510123,
	ErrUnauthorized:  510124,
	ErrValidation:    510125,
}

// ErrorCode returns a code for the error.
// It returns 20002 if the error is not one of the known kinds.
func ErrorCode(err error) int {
	for kind, code := range errorCodeMap {
		if errors.Is(err, kind) {
			return code
		}
	}
	return 20002
}

// NotFoundError is returned for an unknown player or match reference.
type NotFoundError struct {
	Kind string // "player" or "match"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AlreadyQueuedError is returned when a player already holds a queue entry.
type AlreadyQueuedError struct {
	PlayerID string
	Pool     PoolKey
}

func (e *AlreadyQueuedError) Error() string {
	return fmt.Sprintf("player %q is already queued in %s", e.PlayerID, e.Pool)
}

func (e *AlreadyQueuedError) Is(target error) bool { return target == ErrAlreadyQueued }

// NotQueuedError is returned when removing a player that holds no queue entry.
type NotQueuedError struct {
	PlayerID string
}

func (e *NotQueuedError) Error() string {
	return fmt.Sprintf("player %q is not queued", e.PlayerID)
}

func (e *NotQueuedError) Is(target error) bool { return target == ErrNotQueued }

// InvalidStateError is returned for an illegal match transition or a player
// that cannot act in its current state.
type InvalidStateError struct {
	ID     string
	State  string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %q in state %s", e.Action, e.ID, e.State)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// UnauthorizedError is returned when the acting player is not on the match roster.
type UnauthorizedError struct {
	MatchID  string
	PlayerID string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("player %q is not on the roster of match %q", e.PlayerID, e.MatchID)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ValidationError is returned for malformed input: team size, region, mode, map, stats.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
