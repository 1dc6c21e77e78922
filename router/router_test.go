// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/notify"
	"github.com/teamvote/elections/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *sql.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	dir := directory.New(conn)
	machine := election.NewMachine(conn, dir, dir, notify.NewLogNotifier())
	return NewRouter(conn, cfg, machine, dir), conn
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "teamvote elections API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Routes should be matched; 400/401/404 are valid handler outcomes here
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/elections"},
		{"POST", "/teams/test-team/elections/test-slug/cancel"},
		{"POST", "/advance"},

		{"GET", "/teams/test-team/elections"},
		{"GET", "/teams/test-team/elections/test-slug"},
		{"GET", "/teams/test-team/elections/test-slug/results"},

		{"POST", "/teams/test-team/elections/test-slug/invite"},
		{"POST", "/candidates/test-slug/respond"},
		{"POST", "/ballots/test-slug/votes"},

		{"POST", "/people"},
		{"POST", "/teams"},
		{"POST", "/teams/test-team/members"},
		{"GET", "/teams/test-team/members"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},                           // Only GET is defined
		{"DELETE", "/teams/test-team/elections/slug"}, // Only GET is defined
		{"PUT", "/ballots/test-slug/votes"},           // Only POST is defined
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, conn := newTestRouter(t)

	board := testutil.CreateTestTeam(t, conn, "board", "The Board")
	members := testutil.CreateTestTeam(t, conn, "members", "Members")
	testutil.CreateTestElection(t, conn, board, members,
		testutil.ElectionFixture{Slug: "board-2026"})

	req := httptest.NewRequest("GET", "/teams/board/elections/board-2026", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for an existing election, got %d. Body: %s", w.Code, w.Body.String())
	}
}
