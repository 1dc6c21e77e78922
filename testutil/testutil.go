// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teamvote/elections/auth"
	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/db"
)

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "elections.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Single connection keeps concurrent test transactions from hitting
	// SQLITE_BUSY
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3324,
		DatabaseURL:  "test.db",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
		ServiceKey:   "test-service-key",
	}
}

// CreateTestPerson inserts a person and returns their ID
func CreateTestPerson(t *testing.T, conn *sql.DB, username string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO person (id, username, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, 'Tester', $4, $5)
	`, id, username, username, username+"@example.com", time.Now())
	if err != nil {
		t.Fatalf("Failed to create test person: %v", err)
	}
	return id
}

// CreateTestTeam inserts a team and returns its ID
func CreateTestTeam(t *testing.T, conn *sql.DB, slug, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO team (id, slug, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, slug, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test team: %v", err)
	}
	return id
}

// AddTestMember adds a person to a team
func AddTestMember(t *testing.T, conn *sql.DB, teamID, personID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO team_member (team_id, person_id, title, added_by, joined_at)
		VALUES ($1, $2, '', '', $3)
	`, teamID, personID, time.Now())
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// ElectionFixture configures CreateTestElection. Zero values get sensible
// defaults: one place, min_votes of two, milestone dates in the past so the
// advancer always fires.
type ElectionFixture struct {
	Slug       string
	Status     string
	Places     int
	MinVotes   int
	InviteFrom string
	AcceptFrom string
	VotingFrom string
	FinishOn   string
	CalledBy   string
}

// CreateTestElection inserts an election row and returns its ID
func CreateTestElection(t *testing.T, conn *sql.DB, forTeam, constituents string, fx ElectionFixture) string {
	t.Helper()

	if fx.Slug == "" {
		fx.Slug = "board"
	}
	if fx.Status == "" {
		fx.Status = "planning"
	}
	if fx.Places == 0 {
		fx.Places = 1
	}
	if fx.MinVotes == 0 {
		fx.MinVotes = 2
	}
	if fx.InviteFrom == "" {
		fx.InviteFrom = "2026-01-01"
	}
	if fx.AcceptFrom == "" {
		fx.AcceptFrom = "2026-01-08"
	}
	if fx.VotingFrom == "" {
		fx.VotingFrom = "2026-01-15"
	}
	if fx.FinishOn == "" {
		fx.FinishOn = "2026-01-22"
	}

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO election (id, slug, for_team, for_role, constituents, called_by,
		                      status, invite_from, accept_from, voting_from, finish_on,
		                      places, min_votes, notes, created_at)
		VALUES ($1, $2, $3, '', $4, $5, $6, $7, $8, $9, $10, $11, $12, '', $13)
	`, id, fx.Slug, forTeam, constituents, fx.CalledBy, fx.Status,
		fx.InviteFrom, fx.AcceptFrom, fx.VotingFrom, fx.FinishOn,
		fx.Places, fx.MinVotes, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// CreateTestCandidate inserts a candidate row directly and returns its
// respond slug
func CreateTestCandidate(t *testing.T, conn *sql.DB, electionID, invitorID, personID string, responded, accepted bool) string {
	t.Helper()

	slug, err := auth.GenerateSecretSlug()
	if err != nil {
		t.Fatalf("Failed to generate slug: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO candidate (id, election_id, slug, invitor_id, person_id, responded, accepted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), electionID, slug, invitorID, personID, boolInt(responded), boolInt(accepted))
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return slug
}

// BallotSlug looks up the secret voting slug issued to a person
func BallotSlug(t *testing.T, conn *sql.DB, electionID, personID string) string {
	t.Helper()

	var slug string
	err := conn.QueryRow(`
		SELECT slug FROM ballot WHERE election_id = $1 AND person_id = $2
	`, electionID, personID).Scan(&slug)
	if err != nil {
		t.Fatalf("Failed to look up ballot slug: %v", err)
	}
	return slug
}

// CandidateID looks up a candidate row ID by the nominee's person ID
func CandidateID(t *testing.T, conn *sql.DB, electionID, personID string) string {
	t.Helper()

	var id string
	err := conn.QueryRow(`
		SELECT id FROM candidate WHERE election_id = $1 AND person_id = $2
	`, electionID, personID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to look up candidate: %v", err)
	}
	return id
}

// RecordingNotifier captures notification kinds for assertions
type RecordingNotifier struct {
	mu    sync.Mutex
	Kinds []string
	Users []UserNotice
}

// UserNotice is one captured per-person notification
type UserNotice struct {
	PersonID string
	Kind     string
}

func (n *RecordingNotifier) SendToTeam(teamID, kind string, context map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Kinds = append(n.Kinds, kind)
	return nil
}

func (n *RecordingNotifier) SendToUser(personID, kind string, context map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Users = append(n.Users, UserNotice{PersonID: personID, Kind: kind})
	return nil
}

// Sent returns the captured team notification kinds in order
func (n *RecordingNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.Kinds...)
}

// SentToUsers returns the captured per-person notifications in order
func (n *RecordingNotifier) SentToUsers() []UserNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]UserNotice{}, n.Users...)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
