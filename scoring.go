// Consensus scoring for the tier game.
//
// Each submitted ranking yields a raw score per item: the tier's base points
// plus a positional bonus of 0.1 per slot ahead of the last item in the same
// tier. The bonus strictly orders same-tier items, so no two items a team
// placed in one tier ever score identically.
//
// An item's consensus value is the average of its raw scores across every
// submission that placed it. A team is then rewarded for proximity to
// consensus: each item contributes max(0, 5.0 - distance*5.0) to the team's
// round score, where distance is the absolute gap between the team's raw
// score for the item and the item's average. Teams predict the group's
// opinion; there is no "correct" ranking.
//
// Everything here is a pure function of the submissions, so recomputation is
// idempotent by construction.

package main

import "math"

// rawScores computes the per-item raw score for one submission.
func rawScores(ranking Ranking) map[string]float64 {
	tierCounts := make(map[Tier]int)
	for _, p := range ranking {
		tierCounts[p.Tier]++
	}

	scores := make(map[string]float64, len(ranking))
	for itemID, p := range ranking {
		base := tierPoints[p.Tier]

		bonus := 0.0
		if count := tierCounts[p.Tier]; count > 0 {
			bonus = float64(count-1-p.Index) * 0.1
		}

		scores[itemID] = base + bonus
	}

	return scores
}

// itemAverages averages each item's raw scores across all submissions. An
// item a team omitted simply contributes nothing from that team; no penalty
// row is inserted.
func itemAverages(submissions map[string]Ranking) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, ranking := range submissions {
		for itemID, score := range rawScores(ranking) {
			sums[itemID] += score
			counts[itemID]++
		}
	}

	averages := make(map[string]float64, len(sums))
	for itemID, sum := range sums {
		averages[itemID] = sum / float64(counts[itemID])
	}

	return averages
}

// teamRoundScores computes each submitting team's closeness-to-consensus
// reward for the round. Every stored submission is scored, whether or not
// the team is still connected.
func teamRoundScores(submissions map[string]Ranking, averages map[string]float64) map[string]float64 {
	scores := make(map[string]float64, len(submissions))

	for teamName, ranking := range submissions {
		roundScore := 0.0
		for itemID, teamPoints := range rawScores(ranking) {
			distance := math.Abs(teamPoints - averages[itemID])
			roundScore += math.Max(0, 5.0-distance*5.0)
		}
		scores[teamName] = roundScore
	}

	return scores
}
