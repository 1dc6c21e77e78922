// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"

	"github.com/teamvote/elections/models"
)

// Notifier delivers election announcements to a team or to a single person.
// Implementations are fire-and-forget: a delivery failure is logged by the
// caller and never blocks a state transition.
type Notifier interface {
	SendToTeam(teamID, kind string, context map[string]any) error
	SendToUser(personID, kind string, context map[string]any) error
}

// TeamService materializes voter rosters and applies election winners to
// team membership.
type TeamService interface {
	// Members returns the person IDs of every member of the team.
	Members(teamID string) ([]string, error)
	// AddMember adds or updates a membership row. It participates in the
	// caller's transaction so a crash mid-transition cannot leave winners
	// half-applied.
	AddMember(tx *sql.Tx, teamID, personID, title, addedBy string) error
}

// Identities resolves a person ID to a frozen identity snapshot for result
// logs. Any error is treated as "identity gone" by the caller, which
// substitutes a placeholder rather than failing the tabulation.
type Identities interface {
	Snapshot(personID string) (models.Identity, error)
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
