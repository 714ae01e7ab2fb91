// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"testing"

	"github.com/onsi/gomega"

	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
)

// GomegaWithScope bundles what most tests need: assertions, a scope,
// a manual clock and an event sink.
type GomegaWithScope struct {
	TestScope *envelope.Scope
	Clock     *Clock
	Sink      *RecordingSink
	*gomega.GomegaWithT
}

func ParallelWithGomega(t *testing.T) GomegaWithScope {
	t.Parallel()
	return WithGomega(t)
}

func WithGomega(t *testing.T) GomegaWithScope {
	return GomegaWithScope{
		TestScope:   NewTestScope(),
		Clock:       NewClock(),
		Sink:        &RecordingSink{},
		GomegaWithT: gomega.NewGomegaWithT(t),
	}
}
