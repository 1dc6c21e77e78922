// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db creates the database schema.

# Tables

  - person: registered users (person.username unique)
  - team: teams holding elections (team.slug unique)
  - team_member: membership rows, written when winners join a team
  - election: one row per contest; the log column holds the serialized
    result once the election reaches a terminal status
  - candidate: nominations, unique per (election, nominee) and per
    (election, invitor)
  - ballot: one per constituent, unique per (election, voter)
  - vote: ranked preferences, unique per (ballot, rank) and
    (ballot, candidate); NULL rank records an abstention

Candidate, ballot and vote rows are transient: they are deleted in the same
transaction that persists the election's result log.
*/
package db
