// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package stv implements Single Transferable Vote tabulation over grouped
ranked ballots.

The tabulator is a pure function with no persistence dependency: callers
hand it weighted ballot groups, the candidate list, and the number of seats,
and get back the winners plus a round-by-round trace suitable for archival.

# Algorithm

 1. Quota = floor(total / (seats + 1)) + 1 (Droop).
 2. Each ballot counts in full for its highest-ranked standing candidate.
 3. Candidates at or above quota win; their surplus transfers fractionally
    to each ballot's next standing preference.
 4. If nobody reaches quota, the lowest-tallied candidate is eliminated and
    their ballots transfer at full weight.
 5. When as many candidates remain as seats, all remaining candidates win.

Ballots with no standing preference left are exhausted and stop counting;
their weight is reported per round, so the invariant

	sum(tallies) + exhausted + quota*previously_elected == total

holds at every round.
*/
package stv
