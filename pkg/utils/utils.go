// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// Contains return true if val exist in list, else return false.
func Contains[T comparable](list []T, val T) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

// GenerateUUID generates uuid without hyphens.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()
	return strings.ReplaceAll(id.String(), "-", "")
}

// AllEqual reports whether every element equals the first one. Empty lists are not all-equal.
func AllEqual[T comparable](list []T) bool {
	if len(list) == 0 {
		return false
	}
	for _, v := range list[1:] {
		if v != list[0] {
			return false
		}
	}
	return true
}
