// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamvote/elections/auth"
	"github.com/teamvote/elections/models"
)

// Candidate roster filters
const (
	filterAll      = ""
	filterAccepted = "AND accepted = 1"
	filterIgnored  = "AND responded = 0"
	filterRejected = "AND responded = 1 AND accepted = 0"
)

// Invite nominates a person to stand in the election and returns the
// candidate's secret respond slug. An invitor may issue exactly one
// invitation per election and a person can be nominated only once;
// violating either returns ErrDuplicateInvitation. The nominee is notified
// after commit with the respond link.
func (m *Machine) Invite(electionID, invitorID, nomineeID string) (string, error) {
	slug, err := auth.GenerateSecretSlug()
	if err != nil {
		return "", err
	}
	var e models.Election
	err = m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusNominating {
			return ErrWrongStatus
		}
		_, err = tx.Exec(`
			INSERT INTO candidate (id, election_id, slug, invitor_id, person_id, responded, accepted)
			VALUES ($1, $2, $3, $4, $5, 0, 0)
		`, uuid.NewString(), electionID, slug, invitorID, nomineeID)
		if isUniqueViolation(err) {
			return ErrDuplicateInvitation
		}
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	m.notifyUser(nomineeID, models.NotifyInvitation, map[string]any{
		"election":    e.Slug,
		"invitor":     invitorID,
		"slug":        slug,
		"accept_from": e.AcceptFrom,
	})
	return slug, nil
}

// Respond records the nominee's answer to their invitation. Calling it
// again simply overwrites the previous answer.
func (m *Machine) Respond(candidateSlug string, accept bool) error {
	res, err := m.db.Exec(`
		UPDATE candidate SET responded = 1, accepted = $1 WHERE slug = $2
	`, btoi(accept), candidateSlug)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Accepted returns candidates who accepted their nomination.
func (m *Machine) Accepted(electionID string) ([]models.Candidate, error) {
	return listCandidates(m.db, electionID, filterAccepted)
}

// Ignored returns candidates who never responded.
func (m *Machine) Ignored(electionID string) ([]models.Candidate, error) {
	return listCandidates(m.db, electionID, filterIgnored)
}

// Rejected returns candidates who responded but declined.
func (m *Machine) Rejected(electionID string) ([]models.Candidate, error) {
	return listCandidates(m.db, electionID, filterRejected)
}

func listCandidates(q querier, electionID, filter string) ([]models.Candidate, error) {
	rows, err := q.Query(`
		SELECT id, election_id, slug, invitor_id, person_id, responded, accepted
		FROM candidate WHERE election_id = $1 `+filter+` ORDER BY person_id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Election, &c.Slug, &c.InvitorID,
			&c.PersonID, &c.Responded, &c.Accepted); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func countCandidates(q querier, electionID, filter string) (int, error) {
	var n int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM candidate WHERE election_id = $1 `+filter,
		electionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return n, nil
}

// rotateCandidateSlugs regenerates every candidate slug so invitation links
// issued during nominating cannot be used once voting starts.
func rotateCandidateSlugs(tx *sql.Tx, electionID string) error {
	all, err := listCandidates(tx, electionID, filterAll)
	if err != nil {
		return err
	}
	for _, c := range all {
		slug, err := auth.GenerateSecretSlug()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE candidate SET slug = $1 WHERE id = $2`, slug, c.ID); err != nil {
			return fmt.Errorf("failed to rotate candidate slug: %w", err)
		}
	}
	return nil
}

// candidateLog snapshots the full roster for the result log, freezing each
// nominee's identity. A person deleted since invitation gets an anonymous
// placeholder instead of failing the tabulation.
func candidateLog(q querier, ids Identities, electionID string) ([]models.CandidateRecord, error) {
	all, err := listCandidates(q, electionID, filterAll)
	if err != nil {
		return nil, err
	}
	records := make([]models.CandidateRecord, 0, len(all))
	for _, c := range all {
		records = append(records, models.CandidateRecord{
			PersonID:  c.PersonID,
			Identity:  snapshotIdentity(ids, c.PersonID),
			Invitor:   c.InvitorID,
			Responded: c.Responded,
			Accepted:  c.Accepted,
		})
	}
	return records, nil
}

func snapshotIdentity(ids Identities, personID string) models.Identity {
	identity, err := ids.Snapshot(personID)
	if err != nil {
		return models.Identity{Username: "anon_" + personID}
	}
	return identity
}

func personIDs(candidates []models.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.PersonID)
	}
	return out
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
