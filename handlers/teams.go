// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/middleware"
	"github.com/teamvote/elections/models"
)

// TeamHandler serves the small people/teams directory the election
// machinery runs against.
type TeamHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	dir *directory.Directory
}

func NewTeamHandler(db *sql.DB, cfg cliparse.Config, dir *directory.Directory) *TeamHandler {
	return &TeamHandler{db: db, cfg: cfg, dir: dir}
}

// CreatePerson handles POST /people
func (h *TeamHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePersonRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	id, err := h.dir.CreatePerson(req.Username, req.FirstName, req.LastName, req.Email)
	if err != nil {
		if uniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("failed to create person", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create person")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePersonResponse{PersonID: id})
}

// CreateTeam handles POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Slug == "" || req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug and name are required")
		return
	}

	id, err := h.dir.CreateTeam(req.Slug, req.Name)
	if err != nil {
		if uniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Team slug already taken")
			return
		}
		slog.Error("failed to create team", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTeamResponse{TeamID: id})
}

// AddMember handles POST /teams/{team}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req models.AddMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PersonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "person_id is required")
		return
	}

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

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err := h.dir.AddMember(tx, team.ID, req.PersonID, req.Title, req.AddedBy); err != nil {
		tx.Rollback()
		slog.Error("failed to add member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add member")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, map[string]string{"message": "Member added"})
}

// ListMembers handles GET /teams/{team}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
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

	people, err := h.dir.MemberDetails(team.ID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if people == nil {
		people = []models.Person{}
	}

	middleware.JSONResponse(w, http.StatusOK, people)
}

// uniqueViolation matches constraint errors from both supported drivers.
func uniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
