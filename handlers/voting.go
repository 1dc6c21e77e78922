// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/middleware"
	"github.com/teamvote/elections/models"
)

type VotingHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	machine *election.Machine
	dir     *directory.Directory
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, machine *election.Machine, dir *directory.Directory) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, machine: machine, dir: dir}
}

// Invite handles POST /teams/{team}/elections/{slug}/invite
func (h *VotingHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req models.InviteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.InvitorID == "" || req.NomineeID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invitor_id and nominee_id are required")
		return
	}

	e, _, err := electionByPath(h.db, h.dir, r)
	if err != nil {
		domainError(w, err)
		return
	}

	slug, err := h.machine.Invite(e.ID, req.InvitorID, req.NomineeID)
	if err != nil {
		domainError(w, err)
		return
	}

	slog.Info("candidate invited", "election", e.ID, "invitor", req.InvitorID, "nominee", req.NomineeID)

	middleware.JSONResponse(w, http.StatusCreated, models.InviteResponse{
		CandidateSlug: slug,
	})
}

// Respond handles POST /candidates/{slug}/respond
// The slug is the secret token from the invitation link.
func (h *VotingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	candidateSlug := r.PathValue("slug")
	if candidateSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.RespondRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.machine.Respond(candidateSlug, req.Accept); err != nil {
		domainError(w, err)
		return
	}

	message := "Invitation accepted"
	if !req.Accept {
		message = "Invitation declined"
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": message})
}

// SubmitVote handles POST /ballots/{slug}/votes
// The slug is the voter's secret ballot token. Resubmission while voting is
// open replaces the previous ranking entirely.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	ballotSlug := r.PathValue("slug")
	if ballotSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.machine.SubmitVote(ballotSlug, req.Ranking, req.Abstain); err != nil {
		domainError(w, err)
		return
	}

	slog.Info("ballot submitted", "ranked", len(req.Ranking), "abstained", len(req.Abstain))

	middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
		Responded: len(req.Ranking) > 0,
		Message:   "Your ballot has been saved",
	})
}
