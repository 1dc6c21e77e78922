// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/middleware"
	"github.com/teamvote/elections/models"
)

// electionByPath resolves /teams/{team}/elections/{slug} path values to an
// election row.
func electionByPath(db *sql.DB, dir *directory.Directory, r *http.Request) (models.Election, models.Team, error) {
	var e models.Election
	team, err := dir.TeamBySlug(r.PathValue("team"))
	if err == sql.ErrNoRows {
		return e, team, election.ErrNotFound
	}
	if err != nil {
		return e, team, err
	}

	var role, notes sql.NullString
	err = db.QueryRow(`
		SELECT id, slug, for_team, for_role, constituents, called_by, status,
		       invite_from, accept_from, voting_from, finish_on,
		       places, min_votes, notes, log, created_at
		FROM election WHERE for_team = $1 AND slug = $2
	`, team.ID, r.PathValue("slug")).Scan(
		&e.ID, &e.Slug, &e.ForTeam, &role, &e.Constituents, &e.CalledBy,
		&e.Status, &e.InviteFrom, &e.AcceptFrom, &e.VotingFrom, &e.FinishOn,
		&e.Places, &e.MinVotes, &notes, &e.Log, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return e, team, election.ErrNotFound
	}
	if err != nil {
		return e, team, err
	}
	e.ForRole = role.String
	e.Notes = notes.String
	return e, team, nil
}

// domainError maps election package errors onto HTTP responses.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, election.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
	case errors.Is(err, election.ErrDuplicateInvitation):
		middleware.ErrorResponse(w, http.StatusConflict, "Invitation already sent")
	case errors.Is(err, election.ErrWrongStatus):
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in the right phase for that")
	case errors.Is(err, election.ErrVotingClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
	case errors.Is(err, election.ErrUnknownCandidate):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown candidate in ranking")
	case errors.Is(err, election.ErrInvalidRanking):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Candidate ranked more than once")
	case errors.Is(err, election.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "Conflicting submission, please retry")
	default:
		slog.Error("unexpected storage error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
