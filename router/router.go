// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/handlers"
	"github.com/teamvote/elections/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, machine *election.Machine, dir *directory.Directory) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg, machine, dir)
	votingHandler := handlers.NewVotingHandler(db, cfg, machine, dir)
	resultsHandler := handlers.NewResultsHandler(db, cfg, dir)
	teamHandler := handlers.NewTeamHandler(db, cfg, dir)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("POST /teams/{team}/elections/{slug}/cancel", middleware.WithLogging(electionHandler.CancelElection))
	mux.HandleFunc("POST /advance", middleware.WithLogging(electionHandler.Advance))

	// Election retrieval (public, with sealed results)
	mux.HandleFunc("GET /teams/{team}/elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /teams/{team}/elections/{slug}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /teams/{team}/elections/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Nomination and voting (token-gated)
	mux.HandleFunc("POST /teams/{team}/elections/{slug}/invite", middleware.WithLogging(votingHandler.Invite))
	mux.HandleFunc("POST /candidates/{slug}/respond", middleware.WithLogging(votingHandler.Respond))
	mux.HandleFunc("POST /ballots/{slug}/votes", middleware.WithLogging(votingHandler.SubmitVote))

	// People and teams directory
	mux.HandleFunc("POST /people", middleware.WithLogging(teamHandler.CreatePerson))
	mux.HandleFunc("POST /teams", middleware.WithLogging(teamHandler.CreateTeam))
	mux.HandleFunc("POST /teams/{team}/members", middleware.WithLogging(teamHandler.AddMember))
	mux.HandleFunc("GET /teams/{team}/members", middleware.WithLogging(teamHandler.ListMembers))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("teamvote elections API v1"))
	})

	return mux
}
