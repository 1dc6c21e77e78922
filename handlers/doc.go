// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers contains the HTTP handlers for the election service.
//
// Handlers are grouped by concern: elections.go covers the admin surface
// (creating and advancing elections), voting.go covers the token-gated
// candidate and voter surface, results.go serves published result logs,
// and teams.go is the people/teams directory.
package handlers
