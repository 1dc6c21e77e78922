// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/hmac"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teamvote/elections/auth"
	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/middleware"
	"github.com/teamvote/elections/models"
)

type ElectionHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	machine *election.Machine
	dir     *directory.Directory
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config, machine *election.Machine, dir *directory.Directory) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg, machine: machine, dir: dir}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}
	if req.ForTeam == "" || req.Constituents == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "for_team and constituents are required")
		return
	}
	if req.CalledBy == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "called_by is required")
		return
	}
	if req.Places == 0 {
		req.Places = 1
	}
	if req.Places < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "places must be at least 1")
		return
	}
	if req.MinVotes < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_votes must not be negative")
		return
	}
	if req.MinVotes == 0 {
		req.MinVotes = 2
	}

	// Milestone dates must parse and be monotonically non-decreasing
	dates := []string{req.InviteFrom, req.AcceptFrom, req.VotingFrom, req.FinishOn}
	for i, date := range dates {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "milestone dates must be YYYY-MM-DD")
			return
		}
		if i > 0 && date < dates[i-1] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "milestone dates must not decrease")
			return
		}
	}

	forTeam, err := h.dir.TeamBySlug(req.ForTeam)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
		return
	}
	constituents, err := h.dir.TeamBySlug(req.Constituents)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Constituent team not found")
		return
	}

	electionID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO election (id, slug, for_team, for_role, constituents, called_by,
		                      status, invite_from, accept_from, voting_from, finish_on,
		                      places, min_votes, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, electionID, req.Slug, forTeam.ID, req.ForRole, constituents.ID, req.CalledBy,
		models.StatusPlanning, req.InviteFrom, req.AcceptFrom, req.VotingFrom,
		req.FinishOn, req.Places, req.MinVotes, req.Notes, time.Now())

	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "team", forTeam.Slug, "slug", req.Slug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt),
	})
}

// ListElections handles GET /teams/{team}/elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	team, err := h.dir.TeamBySlug(r.PathValue("team"))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		slog.Error("failed to query team", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, slug, for_team, for_role, constituents, called_by, status,
		       invite_from, accept_from, voting_from, finish_on,
		       places, min_votes, notes, log, created_at
		FROM election WHERE for_team = $1 ORDER BY finish_on DESC
	`, team.ID)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		var e models.Election
		var role, notes sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Slug, &e.ForTeam, &role, &e.Constituents, &e.CalledBy,
			&e.Status, &e.InviteFrom, &e.AcceptFrom, &e.VotingFrom, &e.FinishOn,
			&e.Places, &e.MinVotes, &notes, &e.Log, &e.CreatedAt,
		); err != nil {
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.ForRole = role.String
		e.Notes = notes.String
		elections = append(elections, e)
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /teams/{team}/elections/{slug}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, team, err := electionByPath(h.db, h.dir, r)
	if err != nil {
		domainError(w, err)
		return
	}

	// Voters rank candidates by these IDs; secret slugs stay hidden.
	candidates, err := h.machine.Accepted(e.ID)
	if err != nil {
		domainError(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}

	var ballotCount int
	err = h.db.QueryRow(`SELECT COUNT(*) FROM ballot WHERE election_id = $1`, e.ID).Scan(&ballotCount)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"election":     e,
		"name":         e.DisplayName(team.Name),
		"candidates":   candidates,
		"ballot_count": ballotCount,
	})
}

// CancelElection handles POST /teams/{team}/elections/{slug}/cancel
// The caller must present the admin key issued at creation. Cancellation
// moves the election to the failure state matching its current phase and is
// itself permanent.
func (h *ElectionHandler) CancelElection(w http.ResponseWriter, r *http.Request) {
	e, _, err := electionByPath(h.db, h.dir, r)
	if err != nil {
		domainError(w, err)
		return
	}
	if err := auth.ValidateAdminKey(e.ID, r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	cancel := h.machine.FailCandidates
	status := models.StatusFailedCandidates
	if e.Status == models.StatusVoting {
		cancel = h.machine.FailVoters
		status = models.StatusFailedVoters
	}
	if err := cancel(e.ID); err != nil {
		domainError(w, err)
		return
	}

	slog.Info("election cancelled", "election", e.ID, "status", status)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": status})
}

// Advance handles POST /advance - the scheduler's entry point.
func (h *ElectionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Service-Key")
	if !hmac.Equal([]byte(key), []byte(h.cfg.ServiceKey)) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid service key")
		return
	}

	today := time.Now().Format(models.DateLayout)
	if err := election.Advance(h.db, h.machine, today); err != nil {
		slog.Error("advance sweep failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Advance failed")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"advanced": today})
}
