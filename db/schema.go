// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL sticks to the subset shared by SQLite and PostgreSQL: no engine
// defaults beyond constants, timestamps always written by the application.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- People
CREATE TABLE IF NOT EXISTS person (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

-- Teams
CREATE TABLE IF NOT EXISTS team (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS team_member (
    team_id TEXT NOT NULL REFERENCES team(id) ON DELETE CASCADE,
    person_id TEXT NOT NULL REFERENCES person(id) ON DELETE CASCADE,
    title TEXT NOT NULL DEFAULT '',
    added_by TEXT,
    joined_at TIMESTAMP NOT NULL,
    PRIMARY KEY (team_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_team_member_person ON team_member(person_id);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    for_team TEXT NOT NULL REFERENCES team(id),
    for_role TEXT NOT NULL DEFAULT '',
    constituents TEXT NOT NULL REFERENCES team(id),
    called_by TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'planning' CHECK (status IN
        ('planning', 'nominating', 'selecting', 'voting',
         'finished', 'failed_candidates', 'failed_voters')),
    invite_from TEXT NOT NULL,
    accept_from TEXT NOT NULL,
    voting_from TEXT NOT NULL,
    finish_on TEXT NOT NULL,
    places INTEGER NOT NULL CHECK (places >= 1),
    min_votes INTEGER NOT NULL DEFAULT 2,
    notes TEXT,
    log TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (for_team, slug)
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Candidates exist only between nomination and tabulation; the result log
-- is the permanent record.
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    slug TEXT NOT NULL UNIQUE,
    invitor_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    responded INTEGER NOT NULL DEFAULT 0,
    accepted INTEGER NOT NULL DEFAULT 0,
    UNIQUE (election_id, person_id),
    UNIQUE (election_id, invitor_id)
);

CREATE INDEX IF NOT EXISTS idx_candidate_election ON candidate(election_id);

-- Ballots, one per constituent, also deleted at tabulation.
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    slug TEXT NOT NULL UNIQUE,
    person_id TEXT NOT NULL,
    responded INTEGER NOT NULL DEFAULT 0,
    UNIQUE (election_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_election ON ballot(election_id);

-- Ranked votes. rank is NULL when the voter abstained on that candidate.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    rank INTEGER,
    UNIQUE (ballot_id, rank),
    UNIQUE (ballot_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_ballot ON vote(ballot_id);
`
