// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"math"
	"sort"
)

// Ballot is a group of identical ranked ballots. Ranking lists candidate IDs
// from first choice to last; Count is how many voters submitted exactly this
// ranking.
type Ballot struct {
	Count   float64  `json:"count"`
	Ranking []string `json:"ballot"`
}

// Round records the state of one counting round.
type Round struct {
	Tallies    map[string]float64 `json:"tallies"`
	Winners    []string           `json:"winners,omitempty"`
	Eliminated []string           `json:"eliminated,omitempty"`
	Exhausted  float64            `json:"exhausted"`
}

// Result is the full output of a tabulation.
type Result struct {
	Quota      float64  `json:"quota"`
	Candidates []string `json:"candidates"`
	Winners    []string `json:"winners"`
	Rounds     []Round  `json:"rounds"`
}

// ballotGroup tracks a Ballot's remaining weight and current preference
// position during counting.
type ballotGroup struct {
	weight  float64
	ranking []string
}

// Tabulate runs a Single Transferable Vote count with the Droop quota and
// fractional surplus transfer. With seats == 1 this degenerates to
// Instant-Runoff Voting.
//
// The count is fully deterministic: ties at elimination and at surplus
// ordering are broken by lowest candidate ID. A deployment wanting a
// different tie-break rule (e.g. by first-round tally, or by lot) should
// change lowestID below.
func Tabulate(ballots []Ballot, candidates []string, seats int) Result {
	res := Result{
		Quota:      0,
		Candidates: sortedCopy(candidates),
		Winners:    []string{},
		Rounds:     []Round{},
	}
	if seats < 1 || len(candidates) == 0 {
		return res
	}

	standing := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		standing[id] = true
	}

	var total float64
	groups := make([]*ballotGroup, 0, len(ballots))
	for _, b := range ballots {
		ranking := prunedRanking(b.Ranking, standing)
		if b.Count <= 0 || len(ranking) == 0 {
			continue
		}
		total += b.Count
		groups = append(groups, &ballotGroup{weight: b.Count, ranking: ranking})
	}

	// No usable ballots: nobody can be elected.
	if total == 0 {
		return res
	}

	quota := math.Floor(total/float64(seats+1)) + 1
	res.Quota = quota

	elected := []string{}
	seatsLeft := seats

	// Terminates: every round either elects or eliminates at least one
	// candidate, so at most len(candidates) rounds run.
	for range candidates {
		tallies, exhausted := count(groups, standing)

		// Remaining candidates fill the remaining seats by default.
		if len(standing) <= seatsLeft {
			winners := standingIDs(standing)
			res.Rounds = append(res.Rounds, Round{
				Tallies:   tallies,
				Winners:   winners,
				Exhausted: exhausted,
			})
			elected = append(elected, winners...)
			break
		}

		winners := atQuota(tallies, quota)
		if len(winners) > seatsLeft {
			winners = winners[:seatsLeft]
		}

		if len(winners) > 0 {
			res.Rounds = append(res.Rounds, Round{
				Tallies:   tallies,
				Winners:   winners,
				Exhausted: exhausted,
			})
			for _, w := range winners {
				transferSurplus(groups, standing, w, tallies[w], quota)
				delete(standing, w)
			}
			elected = append(elected, winners...)
			seatsLeft -= len(winners)
			if seatsLeft == 0 {
				break
			}
			continue
		}

		loser := lowestID(tallies)
		delete(standing, loser)
		res.Rounds = append(res.Rounds, Round{
			Tallies:    tallies,
			Eliminated: []string{loser},
			Exhausted:  exhausted,
		})
	}

	sort.Strings(elected)
	res.Winners = elected
	return res
}

// count assigns each group's weight to its highest-ranked standing candidate.
// Groups with no standing preference left are exhausted.
func count(groups []*ballotGroup, standing map[string]bool) (map[string]float64, float64) {
	tallies := make(map[string]float64, len(standing))
	for id := range standing {
		tallies[id] = 0
	}

	var exhausted float64
	for _, g := range groups {
		id, ok := current(g, standing)
		if !ok {
			exhausted += g.weight
			continue
		}
		tallies[id] += g.weight
	}
	return tallies, exhausted
}

// current returns the group's highest-ranked candidate still standing.
func current(g *ballotGroup, standing map[string]bool) (string, bool) {
	for _, id := range g.ranking {
		if standing[id] {
			return id, true
		}
	}
	return "", false
}

// transferSurplus scales down the weight of every ballot group currently
// counted for the winner so that exactly the surplus above quota carries on
// to later preferences.
func transferSurplus(groups []*ballotGroup, standing map[string]bool, winner string, tally, quota float64) {
	if tally <= 0 {
		return
	}
	factor := (tally - quota) / tally
	if factor < 0 {
		factor = 0
	}
	for _, g := range groups {
		if id, ok := current(g, standing); ok && id == winner {
			g.weight *= factor
		}
	}
}

// atQuota returns candidates meeting quota, highest tally first; equal
// tallies order by lowest ID.
func atQuota(tallies map[string]float64, quota float64) []string {
	var winners []string
	for id, tally := range tallies {
		if tally >= quota {
			winners = append(winners, id)
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		a, b := winners[i], winners[j]
		if tallies[a] != tallies[b] {
			return tallies[a] > tallies[b]
		}
		return a < b
	})
	return winners
}

// lowestID returns the candidate with the lowest tally, ties broken by
// lowest candidate ID.
func lowestID(tallies map[string]float64) string {
	var loser string
	for id, tally := range tallies {
		if loser == "" || tally < tallies[loser] || (tally == tallies[loser] && id < loser) {
			loser = id
		}
	}
	return loser
}

func standingIDs(standing map[string]bool) []string {
	ids := make([]string, 0, len(standing))
	for id := range standing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// prunedRanking drops candidate IDs that are not in the race, keeping order.
func prunedRanking(ranking []string, standing map[string]bool) []string {
	out := make([]string, 0, len(ranking))
	seen := make(map[string]bool, len(ranking))
	for _, id := range ranking {
		if standing[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

func sortedCopy(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
