// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/teamvote/elections/models"
	"github.com/teamvote/elections/stv"
)

// writeLogTx serializes the election's permanent record and stores it with
// the terminal status in one statement. Candidate and ballot rows must not
// be deleted before this has been written.
func (m *Machine) writeLogTx(tx *sql.Tx, e *models.Election, status string, res stv.Result) error {
	record, err := buildLog(tx, m.ids, e.ID, res)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize result log: %w", err)
	}
	_, err = tx.Exec(`UPDATE election SET status = $1, log = $2 WHERE id = $3`,
		status, string(payload), e.ID)
	if err != nil {
		return fmt.Errorf("failed to write result log: %w", err)
	}
	log := string(payload)
	e.Log = &log
	e.Status = status
	return nil
}

func buildLog(q querier, ids Identities, electionID string, res stv.Result) (models.ResultLog, error) {
	candidates, err := candidateLog(q, ids, electionID)
	if err != nil {
		return models.ResultLog{}, err
	}
	votes, err := ballotLog(q, ids, electionID)
	if err != nil {
		return models.ResultLog{}, err
	}
	counts, err := logCounts(q, electionID)
	if err != nil {
		return models.ResultLog{}, err
	}
	return models.ResultLog{
		Type:       models.BallotTypeSTV,
		Candidates: candidates,
		Votes:      votes,
		Results:    res,
		Counts:     counts,
	}, nil
}

func logCounts(q querier, electionID string) (models.LogCounts, error) {
	var counts models.LogCounts
	var err error
	if counts.Invites, err = countCandidates(q, electionID, filterAll); err != nil {
		return counts, err
	}
	if counts.Candidates, err = countCandidates(q, electionID, filterAccepted); err != nil {
		return counts, err
	}
	if counts.Ignored, err = countCandidates(q, electionID, filterIgnored); err != nil {
		return counts, err
	}
	if counts.Rejected, err = countCandidates(q, electionID, filterRejected); err != nil {
		return counts, err
	}
	if counts.Ballots, err = countBallots(q, electionID, false); err != nil {
		return counts, err
	}
	if counts.Voters, err = countBallots(q, electionID, true); err != nil {
		return counts, err
	}
	return counts, nil
}

// ParseLog deserializes an election's stored result log.
func ParseLog(log *string) (models.ResultLog, error) {
	var record models.ResultLog
	if log == nil || *log == "" {
		return record, ErrNotFound
	}
	if err := json.Unmarshal([]byte(*log), &record); err != nil {
		return record, fmt.Errorf("failed to parse result log: %w", err)
	}
	return record, nil
}
