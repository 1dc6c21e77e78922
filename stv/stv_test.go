// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// irvBallots is a 12-voter single-seat election. Candidate 2 receives no
// first preferences, 1 and 4 tie 6-6 after the middle eliminations, and the
// lowest-ID tie-break decides the count.
func irvBallots() []Ballot {
	return []Ballot{
		{Count: 1, Ranking: []string{"1", "2", "3", "4"}},
		{Count: 1, Ranking: []string{"1", "4", "2", "3"}},
		{Count: 1, Ranking: []string{"4", "2", "1", "3"}},
		{Count: 1, Ranking: []string{"4", "1", "3", "2"}},
		{Count: 1, Ranking: []string{"3", "1", "4", "2"}},
		{Count: 1, Ranking: []string{"1"}},
		{Count: 1, Ranking: []string{"1", "2", "4", "3"}},
		{Count: 2, Ranking: []string{"3", "4", "1", "2"}},
		{Count: 2, Ranking: []string{"4", "2", "3", "1"}},
		{Count: 1, Ranking: []string{"1", "3"}},
	}
}

func TestTabulateIRV(t *testing.T) {
	res := Tabulate(irvBallots(), []string{"1", "2", "3", "4"}, 1)

	if !approx(res.Quota, 7) {
		t.Errorf("Expected quota 7, got %v", res.Quota)
	}
	if !reflect.DeepEqual(res.Winners, []string{"4"}) {
		t.Fatalf("Expected winner [4], got %v", res.Winners)
	}
	if len(res.Rounds) != 4 {
		t.Fatalf("Expected 4 rounds, got %d", len(res.Rounds))
	}

	// Zero-tally candidate goes first, then the weakest, then the tie
	// breaks by lowest ID
	eliminations := [][]string{{"2"}, {"3"}, {"1"}}
	for i, want := range eliminations {
		if !reflect.DeepEqual(res.Rounds[i].Eliminated, want) {
			t.Errorf("Round %d: expected elimination %v, got %v",
				i+1, want, res.Rounds[i].Eliminated)
		}
	}

	final := res.Rounds[3]
	if !reflect.DeepEqual(final.Winners, []string{"4"}) {
		t.Errorf("Final round: expected winners [4], got %v", final.Winners)
	}
	if !approx(final.Tallies["4"], 10) {
		t.Errorf("Final round: expected tally 10 for candidate 4, got %v", final.Tallies["4"])
	}
	if !approx(final.Exhausted, 2) {
		t.Errorf("Final round: expected 2 exhausted, got %v", final.Exhausted)
	}
}

func TestTabulateDroopSurplus(t *testing.T) {
	ballots := []Ballot{
		{Count: 6, Ranking: []string{"A", "B", "C"}},
		{Count: 3, Ranking: []string{"B"}},
		{Count: 3, Ranking: []string{"C"}},
	}
	res := Tabulate(ballots, []string{"A", "B", "C"}, 2)

	// total 12, two seats: quota floor(12/3)+1
	if !approx(res.Quota, 5) {
		t.Errorf("Expected quota 5, got %v", res.Quota)
	}
	if !reflect.DeepEqual(res.Winners, []string{"A", "B"}) {
		t.Fatalf("Expected winners [A B], got %v", res.Winners)
	}
	if len(res.Rounds) != 3 {
		t.Fatalf("Expected 3 rounds, got %d", len(res.Rounds))
	}

	// A exceeds quota by 1 of 6; each A ballot continues to B at weight 1/6
	if !reflect.DeepEqual(res.Rounds[0].Winners, []string{"A"}) {
		t.Errorf("Round 1: expected winner [A], got %v", res.Rounds[0].Winners)
	}
	if !approx(res.Rounds[1].Tallies["B"], 4) {
		t.Errorf("Round 2: expected B at 4 after surplus transfer, got %v",
			res.Rounds[1].Tallies["B"])
	}
	if !reflect.DeepEqual(res.Rounds[1].Eliminated, []string{"C"}) {
		t.Errorf("Round 2: expected elimination [C], got %v", res.Rounds[1].Eliminated)
	}

	// C's ballots listed nobody else
	if !approx(res.Rounds[2].Exhausted, 3) {
		t.Errorf("Round 3: expected 3 exhausted, got %v", res.Rounds[2].Exhausted)
	}
}

// Weight is conserved every round: tallies plus exhausted plus one quota
// per already-elected candidate must equal the total ballots cast.
func TestTabulateWeightConservation(t *testing.T) {
	cases := []struct {
		name       string
		ballots    []Ballot
		candidates []string
		seats      int
		total      float64
	}{
		{"single seat", irvBallots(), []string{"1", "2", "3", "4"}, 1, 12},
		{
			"surplus transfer",
			[]Ballot{
				{Count: 6, Ranking: []string{"A", "B", "C"}},
				{Count: 3, Ranking: []string{"B"}},
				{Count: 3, Ranking: []string{"C"}},
			},
			[]string{"A", "B", "C"}, 2, 12,
		},
		{
			"short ballots",
			[]Ballot{
				{Count: 5, Ranking: []string{"A"}},
				{Count: 4, Ranking: []string{"B"}},
				{Count: 2, Ranking: []string{"C", "A"}},
			},
			[]string{"A", "B", "C"}, 2, 11,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Tabulate(tc.ballots, tc.candidates, tc.seats)
			elected := 0.0
			for i, round := range res.Rounds {
				sum := round.Exhausted
				for _, tally := range round.Tallies {
					sum += tally
				}
				sum += elected * res.Quota
				if !approx(sum, tc.total) {
					t.Errorf("Round %d: weight %v does not add up to %v", i+1, sum, tc.total)
				}
				// Snapshot rounds elect below quota and transfer nothing
				if i < len(res.Rounds)-1 {
					elected += float64(len(round.Winners))
				}
			}
		})
	}
}

func TestTabulateNoBallots(t *testing.T) {
	res := Tabulate(nil, []string{"A", "B"}, 1)
	if len(res.Winners) != 0 {
		t.Errorf("Expected no winners, got %v", res.Winners)
	}
	if len(res.Rounds) != 0 {
		t.Errorf("Expected no rounds, got %d", len(res.Rounds))
	}
	if res.Quota != 0 {
		t.Errorf("Expected zero quota, got %v", res.Quota)
	}
}

func TestTabulateNoCandidates(t *testing.T) {
	res := Tabulate([]Ballot{{Count: 3, Ranking: []string{"A"}}}, nil, 1)
	if len(res.Winners) != 0 {
		t.Errorf("Expected no winners, got %v", res.Winners)
	}
}

func TestTabulateFewerCandidatesThanSeats(t *testing.T) {
	ballots := []Ballot{
		{Count: 2, Ranking: []string{"A"}},
		{Count: 1, Ranking: []string{"B"}},
	}
	res := Tabulate(ballots, []string{"A", "B"}, 3)

	if !reflect.DeepEqual(res.Winners, []string{"A", "B"}) {
		t.Fatalf("Expected winners [A B], got %v", res.Winners)
	}
	if len(res.Rounds) != 1 {
		t.Errorf("Expected a single snapshot round, got %d", len(res.Rounds))
	}
}

func TestTabulateUnknownRankingEntriesPruned(t *testing.T) {
	ballots := []Ballot{
		{Count: 3, Ranking: []string{"ghost", "A", "A", "B"}},
		{Count: 1, Ranking: []string{"gone"}},
	}
	res := Tabulate(ballots, []string{"A", "B"}, 1)

	// The all-unknown ballot contributes nothing, so total is 3 and
	// quota is floor(3/2)+1
	if !approx(res.Quota, 2) {
		t.Errorf("Expected quota 2, got %v", res.Quota)
	}
	if !reflect.DeepEqual(res.Winners, []string{"A"}) {
		t.Errorf("Expected winner [A], got %v", res.Winners)
	}
}

func TestTabulateDeterministic(t *testing.T) {
	ballots := []Ballot{
		{Count: 2, Ranking: []string{"A", "C"}},
		{Count: 2, Ranking: []string{"B", "C"}},
		{Count: 1, Ranking: []string{"C"}},
	}
	first := Tabulate(ballots, []string{"A", "B", "C"}, 1)
	for i := 0; i < 20; i++ {
		again := Tabulate(ballots, []string{"A", "B", "C"}, 1)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d differed: %+v vs %+v", i, first, again)
		}
	}

	// C is weakest, then A loses the 2-2 tie on ID
	if !reflect.DeepEqual(first.Rounds[0].Eliminated, []string{"C"}) {
		t.Errorf("Round 1: expected elimination [C], got %v", first.Rounds[0].Eliminated)
	}
	if !reflect.DeepEqual(first.Rounds[1].Eliminated, []string{"A"}) {
		t.Errorf("Round 2: expected elimination [A], got %v", first.Rounds[1].Eliminated)
	}
	if !reflect.DeepEqual(first.Winners, []string{"B"}) {
		t.Errorf("Expected winner [B], got %v", first.Winners)
	}
}

func TestTabulateZeroSeats(t *testing.T) {
	res := Tabulate([]Ballot{{Count: 1, Ranking: []string{"A"}}}, []string{"A"}, 0)
	if len(res.Winners) != 0 {
		t.Errorf("Expected no winners with zero seats, got %v", res.Winners)
	}
}
