// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teamvote/elections/models"
)

// Advance fires the next transition for every non-terminal election whose
// gate date has passed. today is an ISO date (models.DateLayout); ISO dates
// compare correctly as strings.
//
// Designed for a daily cron cadence and safe to invoke any number of times:
// each call re-reads current statuses, and an election that advanced
// earlier in the day is simply gated on its next milestone. Failures on one
// election are logged and do not stop the sweep.
func Advance(db *sql.DB, m *Machine, today string) error {
	rows, err := db.Query(`
		SELECT id, status, invite_from, accept_from, voting_from, finish_on
		FROM election
		WHERE status IN ($1, $2, $3, $4)
		ORDER BY finish_on
	`, models.StatusPlanning, models.StatusNominating,
		models.StatusSelecting, models.StatusVoting)
	if err != nil {
		return fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id, status                                   string
		inviteFrom, acceptFrom, votingFrom, finishOn string
	}
	var elections []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.status, &p.inviteFrom, &p.acceptFrom,
			&p.votingFrom, &p.finishOn); err != nil {
			return err
		}
		elections = append(elections, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range elections {
		var err error
		switch {
		case p.status == models.StatusPlanning && p.inviteFrom <= today:
			err = m.OpenInvitations(p.id)
		case p.status == models.StatusNominating && p.acceptFrom <= today:
			err = m.CloseInvitations(p.id)
		case p.status == models.StatusSelecting && p.votingFrom <= today:
			err = m.OpenVoting(p.id)
		case p.status == models.StatusVoting && p.finishOn <= today:
			err = m.CloseVoting(p.id)
		default:
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrWrongStatus) {
				slog.Error("failed to advance election", "election", p.id,
					"status", p.status, "error", err)
			}
			continue
		}
		slog.Info("election advanced", "election", p.id, "from", p.status)
	}
	return nil
}
