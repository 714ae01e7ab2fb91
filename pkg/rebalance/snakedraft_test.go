// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rebalance

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/onsi/gomega"

	"github.com/AccelByte/octanescore-matchmaker/pkg/rating"
	"github.com/AccelByte/octanescore-matchmaker/pkg/testsetup"
)

func rated(mmrs ...int) []rating.Rated {
	out := make([]rating.Rated, len(mmrs))
	for i, mmr := range mmrs {
		out[i] = rating.Rated{PlayerID: fmt.Sprintf("p%d", i), MMR: mmr}
	}
	return out
}

func TestSnakeDraft_TwoVersusTwo(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	teams := SnakeDraft(g.TestScope, "m1", rated(1000, 1200, 800, 900))

	g.Expect(teams[TeamA].PlayerIDs()).To(Equal([]string{"p1", "p2"}))
	g.Expect(teams[TeamB].PlayerIDs()).To(Equal([]string{"p0", "p3"}))
	g.Expect(teams[TeamA].Sum()).To(Equal(2000))
	g.Expect(teams[TeamB].Sum()).To(Equal(1900))
	g.Expect(CountDistance(teams)).To(Equal(100))
}

func TestSnakeDraft_OneVersusOneHighestIsTeamA(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	teams := SnakeDraft(g.TestScope, "m1", rated(700, 1300))

	g.Expect(teams[TeamA].PlayerIDs()).To(Equal([]string{"p1"}))
	g.Expect(teams[TeamB].PlayerIDs()).To(Equal([]string{"p0"}))
}

func TestSnakeDraft_ThreeVersusThreeSerpentine(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	teams := SnakeDraft(g.TestScope, "m1", rated(600, 500, 400, 300, 200, 100))

	// picks A,B,B,A,A,B
	g.Expect(teams[TeamA].PlayerIDs()).To(Equal([]string{"p0", "p3", "p4"}))
	g.Expect(teams[TeamB].PlayerIDs()).To(Equal([]string{"p1", "p2", "p5"}))
	g.Expect(CountDistance(teams)).To(Equal(100))
}

func TestSnakeDraft_TiesKeepArrivalOrder(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	teams := SnakeDraft(g.TestScope, "m1", rated(1000, 1000, 1000, 1000))

	g.Expect(teams[TeamA].PlayerIDs()).To(Equal([]string{"p0", "p3"}))
	g.Expect(teams[TeamB].PlayerIDs()).To(Equal([]string{"p1", "p2"}))
}

func TestSnakeDraft_DoesNotModifyInput(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	members := rated(100, 900, 500, 300)
	before := append([]rating.Rated(nil), members...)

	SnakeDraft(g.TestScope, "m1", members)

	g.Expect(members).To(Equal(before))
}

func TestSnakeDraft_GapNeverExceedsSpread(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	rnd := rand.New(rand.NewSource(42))

	for _, teamSize := range []int{1, 2, 3} {
		for round := 0; round < 500; round++ {
			mmrs := make([]int, 2*teamSize)
			for i := range mmrs {
				mmrs[i] = rnd.Intn(2600)
			}
			members := rated(mmrs...)
			teams := SnakeDraft(g.TestScope, "m", members)

			g.Expect(teams[TeamA].Members).To(HaveLen(teamSize))
			g.Expect(teams[TeamB].Members).To(HaveLen(teamSize))
			g.Expect(CountDistance(teams)).To(BeNumerically("<=", Spread(members)),
				"unbalanced draft: %s", spew.Sdump(teams))
		}
	}
}
