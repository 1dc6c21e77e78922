// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/middleware"
	"github.com/teamvote/elections/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	dir *directory.Directory
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, dir *directory.Directory) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, dir: dir}
}

// GetResults handles GET /teams/{team}/elections/{slug}/results
// Results stay sealed until the election reaches a terminal status. Once
// published, the stored log is the only record; the working rows are gone.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	e, team, err := electionByPath(h.db, h.dir, r)
	if err != nil {
		domainError(w, err)
		return
	}

	if !models.Terminal(e.Status) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the election closes")
		return
	}

	log, err := election.ParseLog(e.Log)
	if errors.Is(err, election.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No results were recorded for this election")
		return
	}
	if err != nil {
		domainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"election": e.Slug,
		"name":     e.DisplayName(team.Name),
		"status":   e.Status,
		"log":      log,
	})
}
