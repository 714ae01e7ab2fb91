// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "encoding/json"

// Rank is a named rank band.
type Rank int

const (
	Bronze Rank = iota
	Silver
	Gold
	Platinum
	Diamond
	Champion
	GrandChampion
	SupersonicLegend
)

var rankNames = [...]string{
	Bronze:           "Bronze",
	Silver:           "Silver",
	Gold:             "Gold",
	Platinum:         "Platinum",
	Diamond:          "Diamond",
	Champion:         "Champion",
	GrandChampion:    "Grand Champion",
	SupersonicLegend: "Supersonic Legend",
}

// rankFloors holds the inclusive MMR lower bound of every rank.
var rankFloors = [...]int{
	Bronze:           0,
	Silver:           400,
	Gold:             700,
	Platinum:         1000,
	Diamond:          1300,
	Champion:         1600,
	GrandChampion:    1900,
	SupersonicLegend: 2200,
}

func (r Rank) String() string {
	if r < Bronze || r > SupersonicLegend {
		return "Unknown"
	}
	return rankNames[r]
}

// Floor returns the lowest MMR of the rank.
func (r Rank) Floor() int {
	return rankFloors[r]
}

// Tier is a rank plus its division (1..3). The top rank has no divisions and
// always reports division 0.
type Tier struct {
	Rank     Rank
	Division int
}

var divisionNames = [...]string{"", "I", "II", "III"}

func (t Tier) String() string {
	if t.Division == 0 {
		return t.Rank.String()
	}
	return t.Rank.String() + " " + divisionNames[t.Division]
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, tier := range AllTiers() {
		if tier.String() == name {
			*t = tier
			return nil
		}
	}
	return &ValidationError{Field: "tier", Reason: "unknown tier " + name}
}

// TierForMMR derives the tier of an MMR value. Negative values are treated as 0.
// Each rank below the top splits its span into thirds; the remainder goes to
// the third division (Bronze I 0-132, II 133-265, III 266-399).
func TierForMMR(mmr int) Tier {
	if mmr < 0 {
		mmr = 0
	}
	rank := Bronze
	for r := SupersonicLegend; r >= Bronze; r-- {
		if mmr >= r.Floor() {
			rank = r
			break
		}
	}
	if rank == SupersonicLegend {
		return Tier{Rank: rank}
	}

	step := ((rank + 1).Floor() - rank.Floor()) / 3
	division := (mmr-rank.Floor())/step + 1
	if division > 3 {
		division = 3
	}
	return Tier{Rank: rank, Division: division}
}

// AllTiers lists every tier from lowest to highest.
func AllTiers() []Tier {
	tiers := make([]Tier, 0, 3*int(SupersonicLegend)+1)
	for r := Bronze; r < SupersonicLegend; r++ {
		for d := 1; d <= 3; d++ {
			tiers = append(tiers, Tier{Rank: r, Division: d})
		}
	}
	return append(tiers, Tier{Rank: SupersonicLegend})
}
