package main

import (
	"math"
	"testing"
)

func TestPositionBonusStrictlyOrdersTier(t *testing.T) {
	// Five items in one tier: raw scores must decrease by exactly 0.1 per
	// position and never drift a full point from the tier base.
	ranking := make(Ranking)
	for i, itemID := range []string{"i1", "i2", "i3", "i4", "i5"} {
		ranking[itemID] = Placement{Tier: TierA, Index: i}
	}

	scores := rawScores(ranking)

	base := tierPoints[TierA]
	previous := math.Inf(1)
	for i, itemID := range []string{"i1", "i2", "i3", "i4", "i5"} {
		got := scores[itemID]
		want := base + float64(len(ranking)-1-i)*0.1

		if got != want {
			t.Fatalf("item %q raw score = %v, want %v", itemID, got, want)
		}
		if got >= previous {
			t.Fatalf("item %q raw score %v not strictly below predecessor %v", itemID, got, previous)
		}
		if diff := math.Abs(got - base); diff >= float64(len(ranking))*0.1 {
			t.Fatalf("item %q deviates %v from base, want < %v", itemID, diff, float64(len(ranking))*0.1)
		}
		previous = got
	}
}

func TestRawScoreSingleItemTier(t *testing.T) {
	scores := rawScores(Ranking{"solo": {Tier: TierGoat, Index: 0}})
	if got := scores["solo"]; got != 6.0 {
		t.Fatalf("lone Goat item raw score = %v, want 6.0 (no bonus)", got)
	}
}

func TestItemAveragesSkipOmittedItems(t *testing.T) {
	submissions := map[string]Ranking{
		"Alpha": {
			"x": {Tier: TierS, Index: 0},
			"y": {Tier: TierB, Index: 0},
		},
		"Beta": {
			// Beta never ranked "y"; no penalty row is inserted.
			"x": {Tier: TierA, Index: 0},
		},
	}

	averages := itemAverages(submissions)

	if got := averages["x"]; got != 4.5 {
		t.Fatalf("average for item ranked by both = %v, want 4.5", got)
	}
	if got := averages["y"]; got != 3.0 {
		t.Fatalf("average for item ranked by one = %v, want that team's raw score 3.0", got)
	}
}

func TestRoundContributionBounds(t *testing.T) {
	// Two submissions at maximum disagreement (Goat vs C, distance 2.0 from
	// the 4.0 average) and two in agreement.
	submissions := map[string]Ranking{
		"Alpha": {"x": {Tier: TierGoat, Index: 0}},
		"Beta":  {"x": {Tier: TierC, Index: 0}},
	}
	averages := itemAverages(submissions)

	scores := teamRoundScores(submissions, averages)
	for name, score := range scores {
		if score != 0 {
			t.Fatalf("team %q score = %v, want 0 when distance >= 1.0", name, score)
		}
	}

	agreed := map[string]Ranking{
		"Alpha": {"x": {Tier: TierB, Index: 0}},
		"Beta":  {"x": {Tier: TierB, Index: 0}},
	}
	scores = teamRoundScores(agreed, itemAverages(agreed))
	for name, score := range scores {
		if score != 5.0 {
			t.Fatalf("team %q score = %v, want the full 5.0 at zero distance", name, score)
		}
	}
}

func TestRoundContributionNeverExceedsBounds(t *testing.T) {
	// A spread of disagreement levels; every per-item contribution must land
	// in [0, 5.0]. Single-item rankings make the round score equal the
	// contribution itself.
	for _, tier := range []Tier{TierGoat, TierS, TierA, TierB, TierC} {
		submissions := map[string]Ranking{
			"Alpha": {"x": {Tier: tier, Index: 0}},
			"Beta":  {"x": {Tier: TierA, Index: 0}},
		}
		scores := teamRoundScores(submissions, itemAverages(submissions))
		for name, score := range scores {
			if score < 0 || score > 5.0 {
				t.Fatalf("tier %s: team %q contribution %v outside [0, 5.0]", tier, name, score)
			}
		}
	}
}

func TestTeamRoundScoresOnlyCoverSubmitters(t *testing.T) {
	submissions := map[string]Ranking{
		"Alpha": {"x": {Tier: TierS, Index: 0}},
	}
	scores := teamRoundScores(submissions, itemAverages(submissions))

	if len(scores) != 1 {
		t.Fatalf("expected scores for submitters only, got %v", scores)
	}
	if scores["Alpha"] != 5.0 {
		t.Fatalf("sole submitter defines the consensus, score = %v, want 5.0", scores["Alpha"])
	}
}
