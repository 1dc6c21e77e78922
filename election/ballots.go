// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/teamvote/elections/auth"
	"github.com/teamvote/elections/models"
	"github.com/teamvote/elections/stv"
)

// createBallots gives each constituent one ballot, get-or-create: ballots
// that already exist are left alone.
func createBallots(tx *sql.Tx, electionID string, personIDs []string) error {
	for _, personID := range personIDs {
		var exists bool
		err := tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM ballot WHERE election_id = $1 AND person_id = $2)
		`, electionID, personID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check ballot: %w", err)
		}
		if exists {
			continue
		}
		slug, err := auth.GenerateSecretSlug()
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO ballot (id, election_id, slug, person_id, responded)
			VALUES ($1, $2, $3, $4, 0)
		`, uuid.NewString(), electionID, slug, personID)
		if err != nil {
			return fmt.Errorf("failed to insert ballot: %w", err)
		}
	}
	return nil
}

// SubmitVote replaces the ballot's entire vote with the given preference
// order. Ranking is position-derived (first entry = rank 1); abstain
// entries are stored with a NULL rank. Resubmission replaces everything:
// updating ranks row by row would transiently collide with the
// (ballot, rank) uniqueness constraint when candidates shift position.
//
// A uniqueness conflict from a concurrent resubmission is retried once and
// then surfaced as ErrConflict.
func (m *Machine) SubmitVote(ballotSlug string, ranking, abstain []string) error {
	err := m.submitVote(ballotSlug, ranking, abstain)
	if isUniqueViolation(err) {
		if err = m.submitVote(ballotSlug, ranking, abstain); isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

func (m *Machine) submitVote(ballotSlug string, ranking, abstain []string) error {
	return m.inTx(func(tx *sql.Tx) error {
		var ballotID, electionID, status string
		err := tx.QueryRow(`
			SELECT b.id, b.election_id, e.status
			FROM ballot b JOIN election e ON b.election_id = e.id
			WHERE b.slug = $1
		`, ballotSlug).Scan(&ballotID, &electionID, &status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load ballot: %w", err)
		}
		if status != models.StatusVoting {
			return ErrVotingClosed
		}

		accepted, err := listCandidates(tx, electionID, filterAccepted)
		if err != nil {
			return err
		}
		valid := make(map[string]bool, len(accepted))
		for _, c := range accepted {
			valid[c.ID] = true
		}
		seen := make(map[string]bool, len(ranking)+len(abstain))
		for _, candidateID := range append(append([]string{}, ranking...), abstain...) {
			if !valid[candidateID] {
				return ErrUnknownCandidate
			}
			if seen[candidateID] {
				return ErrInvalidRanking
			}
			seen[candidateID] = true
		}

		if _, err := tx.Exec(`DELETE FROM vote WHERE ballot_id = $1`, ballotID); err != nil {
			return fmt.Errorf("failed to clear votes: %w", err)
		}
		for i, candidateID := range ranking {
			_, err := tx.Exec(`
				INSERT INTO vote (id, ballot_id, candidate_id, rank)
				VALUES ($1, $2, $3, $4)
			`, uuid.NewString(), ballotID, candidateID, i+1)
			if err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
		}
		for _, candidateID := range abstain {
			_, err := tx.Exec(`
				INSERT INTO vote (id, ballot_id, candidate_id, rank)
				VALUES ($1, $2, $3, NULL)
			`, uuid.NewString(), ballotID, candidateID)
			if err != nil {
				return fmt.Errorf("failed to insert abstention: %w", err)
			}
		}

		_, err = tx.Exec(`UPDATE ballot SET responded = $1 WHERE id = $2`,
			btoi(len(ranking) > 0), ballotID)
		if err != nil {
			return fmt.Errorf("failed to update ballot: %w", err)
		}
		return nil
	})
}

// ReadVote returns the ballot's preference order as nominee person IDs.
func (m *Machine) ReadVote(ballotID string) ([]string, error) {
	return readVote(m.db, ballotID)
}

// readVote reads ranked preferences first and NULL-ranked abstentions
// second. Two explicit passes: some engines order NULL before rank 1 and a
// plain ORDER BY rank would spoil the ballot.
func readVote(q querier, ballotID string) ([]string, error) {
	var paper []string
	for _, where := range []string{"v.rank IS NOT NULL", "v.rank IS NULL"} {
		rows, err := q.Query(`
			SELECT c.person_id
			FROM vote v JOIN candidate c ON v.candidate_id = c.id
			WHERE v.ballot_id = $1 AND `+where+`
			ORDER BY v.rank, c.person_id
		`, ballotID)
		if err != nil {
			return nil, fmt.Errorf("failed to read vote: %w", err)
		}
		for rows.Next() {
			var personID string
			if err := rows.Scan(&personID); err != nil {
				rows.Close()
				return nil, err
			}
			paper = append(paper, personID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return paper, nil
}

// tallyBallots groups identical responded ballots into weighted groups for
// the tabulator. Grouping is a deduplication optimization; correctness does
// not depend on it.
func tallyBallots(q querier, electionID string) ([]stv.Ballot, error) {
	ballots, err := listBallots(q, electionID, true)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]float64)
	for _, b := range ballots {
		paper, err := readVote(q, b.ID)
		if err != nil {
			return nil, err
		}
		counts[strings.Join(paper, "\x1f")]++
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]stv.Ballot, 0, len(keys))
	for _, key := range keys {
		var ranking []string
		if key != "" {
			ranking = strings.Split(key, "\x1f")
		}
		groups = append(groups, stv.Ballot{Count: counts[key], Ranking: ranking})
	}
	return groups, nil
}

func listBallots(q querier, electionID string, respondedOnly bool) ([]models.Ballot, error) {
	query := `
		SELECT id, election_id, slug, person_id, responded
		FROM ballot WHERE election_id = $1`
	if respondedOnly {
		query += ` AND responded = 1`
	}
	query += ` ORDER BY person_id`

	rows, err := q.Query(query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	var out []models.Ballot
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.ID, &b.Election, &b.Slug, &b.PersonID, &b.Responded); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func countBallots(q querier, electionID string, respondedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM ballot WHERE election_id = $1`
	if respondedOnly {
		query += ` AND responded = 1`
	}
	var n int
	if err := q.QueryRow(query, electionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}

// ballotLog snapshots every ballot with its voter's frozen identity and
// submitted paper for the result log.
func ballotLog(q querier, ids Identities, electionID string) ([]models.BallotRecord, error) {
	ballots, err := listBallots(q, electionID, false)
	if err != nil {
		return nil, err
	}
	records := make([]models.BallotRecord, 0, len(ballots))
	for _, b := range ballots {
		paper, err := readVote(q, b.ID)
		if err != nil {
			return nil, err
		}
		if paper == nil {
			paper = []string{}
		}
		records = append(records, models.BallotRecord{
			PersonID:  b.PersonID,
			Identity:  snapshotIdentity(ids, b.PersonID),
			Responded: b.Responded,
			Paper:     paper,
		})
	}
	return records, nil
}
