// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the team elections API server.

The service runs team elections with a milestone-driven lifecycle
(planning, nominating, selecting, voting, finished) and tabulates ranked
ballots with the single transferable vote method using the Droop quota.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=elections.db ADMIN_KEY_SALT=... SERVICE_KEY=... go run main.go

Or with flags:

	go run main.go -p 3324 -d elections.db -admin-salt ... -service-key ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - SERVICE_KEY (-service-key): Secret for the /advance endpoint

Optional settings:

  - PORT (-p): Server port (default: 3324)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - -advance: Run one milestone sweep and exit, for cron setups

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (elections, voting, results, teams)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Logging, JSON helpers
  - models: Request/response and domain types
  - election: Lifecycle state machine, ballots, result logs, advancer
  - stv: Pure single transferable vote tabulator
  - directory: People and teams storage
  - notify: Announcement hook for lifecycle transitions
  - auth: Token generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
