// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/teamvote/elections/models"
	"github.com/teamvote/elections/stv"
)

// Machine drives one election through its lifecycle:
//
//	planning -> nominating -> selecting -> voting -> finished
//
// with failure exits selecting -> failed_candidates and
// voting -> failed_voters. Transitions are one-way; calling one while the
// election is past its precondition status returns ErrWrongStatus.
//
// Every transition runs inside a single transaction scoped to the
// election's rows. Notifications fire after commit, never inside it.
type Machine struct {
	db       *sql.DB
	teams    TeamService
	ids      Identities
	notifier Notifier
}

func NewMachine(db *sql.DB, teams TeamService, ids Identities, notifier Notifier) *Machine {
	return &Machine{db: db, teams: teams, ids: ids, notifier: notifier}
}

// OpenInvitations moves the election from planning to nominating and asks
// the constituents for candidates.
func (m *Machine) OpenInvitations(electionID string) error {
	var e models.Election
	err := m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusPlanning {
			return ErrWrongStatus
		}
		return setStatus(tx, e.ID, models.StatusNominating)
	})
	if err != nil {
		return err
	}
	m.notifyTeam(e, models.NotifyCandidatesNeeded)
	return nil
}

// CloseInvitations moves the election from nominating to selecting, or to
// failed_candidates when fewer candidates accepted than there are places.
func (m *Machine) CloseInvitations(electionID string) error {
	var e models.Election
	var kind string
	err := m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusNominating {
			return ErrWrongStatus
		}
		accepted, err := countCandidates(tx, e.ID, filterAccepted)
		if err != nil {
			return err
		}
		if accepted < e.Places {
			kind = models.NotifyFailedCandidates
			return m.failTx(tx, &e, models.StatusFailedCandidates)
		}
		return setStatus(tx, e.ID, models.StatusSelecting)
	})
	if err != nil {
		return err
	}
	m.notifyTeam(e, kind)
	return nil
}

// OpenVoting moves the election from selecting to voting. Candidate slugs
// are regenerated first so stale invitation links stop working. When the
// accepted count exactly equals the number of places the vote is a
// formality and the election closes immediately with a single unanimous
// ballot; below places it fails.
func (m *Machine) OpenVoting(electionID string) error {
	var e models.Election
	kind := models.NotifyVotingOpen
	err := m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusSelecting {
			return ErrWrongStatus
		}
		if err := rotateCandidateSlugs(tx, e.ID); err != nil {
			return err
		}

		accepted, err := listCandidates(tx, e.ID, filterAccepted)
		if err != nil {
			return err
		}
		switch {
		case len(accepted) < e.Places:
			kind = models.NotifyFailedCandidates
			return m.failTx(tx, &e, models.StatusFailedCandidates)

		case len(accepted) == e.Places:
			// Every accepted candidate wins by default; tabulate with a
			// synthetic unanimous ballot instead of opening a vote.
			override := &stv.Ballot{Count: 1, Ranking: personIDs(accepted)}
			kind, err = m.closeVotingTx(tx, &e, override)
			return err

		default:
			members, err := m.teams.Members(e.Constituents)
			if err != nil {
				return fmt.Errorf("failed to load constituents: %w", err)
			}
			if err := createBallots(tx, e.ID, members); err != nil {
				return err
			}
			return setStatus(tx, e.ID, models.StatusVoting)
		}
	})
	if err != nil {
		return err
	}
	m.notifyTeam(e, kind)
	return nil
}

// CloseVoting moves the election from voting to finished: tabulate, write
// the result log, delete the raw candidate/ballot rows, and add winners to
// the team. Fewer responded ballots than min_votes fails the election
// instead.
func (m *Machine) CloseVoting(electionID string) error {
	var e models.Election
	var kind string
	err := m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusVoting {
			return ErrWrongStatus
		}
		kind, err = m.closeVotingTx(tx, &e, nil)
		return err
	})
	if err != nil {
		return err
	}
	m.notifyTeam(e, kind)
	return nil
}

// FailCandidates cancels the election for lack of candidates. A first-class
// terminal state, not an error: "the election failed" stays durable and
// queryable.
func (m *Machine) FailCandidates(electionID string) error {
	return m.fail(electionID, models.StatusFailedCandidates, models.NotifyFailedCandidates)
}

// FailVoters cancels the election for lack of voters.
func (m *Machine) FailVoters(electionID string) error {
	return m.fail(electionID, models.StatusFailedVoters, models.NotifyFailedVotes)
}

func (m *Machine) fail(electionID, status, kind string) error {
	var e models.Election
	err := m.inTx(func(tx *sql.Tx) error {
		var err error
		e, err = loadElection(tx, electionID)
		if err != nil {
			return err
		}
		if models.Terminal(e.Status) {
			return ErrWrongStatus
		}
		return m.failTx(tx, &e, status)
	})
	if err != nil {
		return err
	}
	m.notifyTeam(e, kind)
	return nil
}

// closeVotingTx runs the tabulation half of CloseVoting inside the caller's
// transaction and returns the notification kind to send after commit.
// override carries the synthetic unanimous ballot of the accepted==places
// shortcut, which bypasses the min_votes check.
func (m *Machine) closeVotingTx(tx *sql.Tx, e *models.Election, override *stv.Ballot) (string, error) {
	votes, err := tallyBallots(tx, e.ID)
	if err != nil {
		return "", err
	}
	voters, err := countBallots(tx, e.ID, true)
	if err != nil {
		return "", err
	}
	if voters < e.MinVotes {
		if override == nil {
			return models.NotifyFailedVotes, m.failTx(tx, e, models.StatusFailedVoters)
		}
		votes = []stv.Ballot{*override}
	}

	accepted, err := listCandidates(tx, e.ID, filterAccepted)
	if err != nil {
		return "", err
	}
	res := stv.Tabulate(votes, personIDs(accepted), e.Places)

	// Log first, then delete: the log is the sole surviving record and
	// must be durable before the raw rows go away.
	if err := m.writeLogTx(tx, e, models.StatusFinished, res); err != nil {
		return "", err
	}
	if err := deleteElectionRows(tx, e.ID); err != nil {
		return "", err
	}

	for _, personID := range res.Winners {
		if err := m.teams.AddMember(tx, e.ForTeam, personID, e.ForRole, e.CalledBy); err != nil {
			return "", fmt.Errorf("failed to add winner to team: %w", err)
		}
	}
	e.Status = models.StatusFinished
	return models.NotifyVotingFinished, nil
}

// failTx writes a partial log (roster and counts, no results) and clears
// the raw rows, leaving the election in the given terminal status.
func (m *Machine) failTx(tx *sql.Tx, e *models.Election, status string) error {
	accepted, err := listCandidates(tx, e.ID, filterAccepted)
	if err != nil {
		return err
	}
	res := stv.Result{
		Candidates: personIDs(accepted),
		Winners:    []string{},
		Rounds:     []stv.Round{},
	}
	if err := m.writeLogTx(tx, e, status, res); err != nil {
		return err
	}
	if err := deleteElectionRows(tx, e.ID); err != nil {
		return err
	}
	e.Status = status
	return nil
}

func (m *Machine) inTx(fn func(*sql.Tx) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (m *Machine) notifyTeam(e models.Election, kind string) {
	if kind == "" {
		return
	}
	context := map[string]any{
		"election":    e.Slug,
		"team":        e.ForTeam,
		"status":      e.Status,
		"voting_from": e.VotingFrom,
		"finish_on":   e.FinishOn,
		"notes":       e.Notes,
	}
	if err := m.notifier.SendToTeam(e.Constituents, kind, context); err != nil {
		slog.Warn("notification failed", "election", e.ID, "kind", kind, "error", err)
	}
}

func (m *Machine) notifyUser(personID, kind string, context map[string]any) {
	if err := m.notifier.SendToUser(personID, kind, context); err != nil {
		slog.Warn("notification failed", "person", personID, "kind", kind, "error", err)
	}
}

func loadElection(q querier, electionID string) (models.Election, error) {
	var e models.Election
	var role, notes sql.NullString
	err := q.QueryRow(`
		SELECT id, slug, for_team, for_role, constituents, called_by, status,
		       invite_from, accept_from, voting_from, finish_on,
		       places, min_votes, notes, log, created_at
		FROM election WHERE id = $1
	`, electionID).Scan(
		&e.ID, &e.Slug, &e.ForTeam, &role, &e.Constituents, &e.CalledBy,
		&e.Status, &e.InviteFrom, &e.AcceptFrom, &e.VotingFrom, &e.FinishOn,
		&e.Places, &e.MinVotes, &notes, &e.Log, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("failed to load election: %w", err)
	}
	e.ForRole = role.String
	e.Notes = notes.String
	return e, nil
}

func setStatus(tx *sql.Tx, electionID, status string) error {
	_, err := tx.Exec(`UPDATE election SET status = $1 WHERE id = $2`, status, electionID)
	if err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}
	return nil
}

// deleteElectionRows removes every candidate, ballot, and vote row of the
// election. Votes go first so the deletes never depend on cascade support.
func deleteElectionRows(tx *sql.Tx, electionID string) error {
	for _, query := range []string{
		`DELETE FROM vote WHERE ballot_id IN (SELECT id FROM ballot WHERE election_id = $1)`,
		`DELETE FROM ballot WHERE election_id = $1`,
		`DELETE FROM candidate WHERE election_id = $1`,
	} {
		if _, err := tx.Exec(query, electionID); err != nil {
			return fmt.Errorf("failed to clear election rows: %w", err)
		}
	}
	return nil
}
