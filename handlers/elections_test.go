// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/teamvote/elections/auth"
	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/models"
	"github.com/teamvote/elections/notify"
	"github.com/teamvote/elections/testutil"
)

func setupHandlers(t *testing.T) (*sql.DB, cliparse.Config, *election.Machine, *directory.Directory) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	dir := directory.New(conn)
	machine := election.NewMachine(conn, dir, dir, notify.NewLogNotifier())
	return conn, cfg, machine, dir
}

func TestCreateElection(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	h := NewElectionHandler(conn, cfg, machine, dir)

	testutil.CreateTestTeam(t, conn, "board", "The Board")
	testutil.CreateTestTeam(t, conn, "members", "Members")

	body := models.CreateElectionRequest{
		Slug:         "board-2026",
		ForTeam:      "board",
		Constituents: "members",
		CalledBy:     "someone",
		InviteFrom:   "2026-03-01",
		AcceptFrom:   "2026-03-08",
		VotingFrom:   "2026-03-15",
		FinishOn:     "2026-03-22",
		Places:       2,
	}

	w := httptest.NewRecorder()
	h.CreateElection(w, testutil.MakeRequest("POST", "/elections", body, nil))
	testutil.AssertStatus(t, w, 201)

	var resp models.CreateElectionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ElectionID == "" {
		t.Fatal("Expected an election ID")
	}
	if resp.AdminKey == "" {
		t.Fatal("Expected an admin key")
	}

	var status string
	var minVotes int
	err := conn.QueryRow(`SELECT status, min_votes FROM election WHERE id = $1`,
		resp.ElectionID).Scan(&status, &minVotes)
	if err != nil {
		t.Fatalf("Failed to read election: %v", err)
	}
	if status != models.StatusPlanning {
		t.Errorf("Expected new election in planning, got %s", status)
	}
	if minVotes != 2 {
		t.Errorf("Expected default min_votes 2, got %d", minVotes)
	}
}

func TestCreateElectionValidation(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	h := NewElectionHandler(conn, cfg, machine, dir)

	testutil.CreateTestTeam(t, conn, "board", "The Board")
	testutil.CreateTestTeam(t, conn, "members", "Members")

	valid := func() models.CreateElectionRequest {
		return models.CreateElectionRequest{
			Slug: "board-2026", ForTeam: "board", Constituents: "members",
			CalledBy: "someone", InviteFrom: "2026-03-01", AcceptFrom: "2026-03-08",
			VotingFrom: "2026-03-15", FinishOn: "2026-03-22",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*models.CreateElectionRequest)
		expects int
	}{
		{"missing slug", func(r *models.CreateElectionRequest) { r.Slug = "" }, 400},
		{"missing team", func(r *models.CreateElectionRequest) { r.ForTeam = "" }, 400},
		{"unknown team", func(r *models.CreateElectionRequest) { r.ForTeam = "nope" }, 404},
		{"bad date", func(r *models.CreateElectionRequest) { r.VotingFrom = "03/15/2026" }, 400},
		{"dates out of order", func(r *models.CreateElectionRequest) { r.FinishOn = "2026-03-01" }, 400},
		{"negative places", func(r *models.CreateElectionRequest) { r.Places = -1 }, 400},
		{"negative min_votes", func(r *models.CreateElectionRequest) { r.MinVotes = -1 }, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(&body)
			w := httptest.NewRecorder()
			h.CreateElection(w, testutil.MakeRequest("POST", "/elections", body, nil))
			testutil.AssertStatus(t, w, tt.expects)
		})
	}
}

func TestAdvanceRequiresServiceKey(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	h := NewElectionHandler(conn, cfg, machine, dir)

	w := httptest.NewRecorder()
	h.Advance(w, testutil.MakeRequest("POST", "/advance", nil,
		map[string]string{"X-Service-Key": "wrong"}))
	testutil.AssertStatus(t, w, 401)

	w = httptest.NewRecorder()
	h.Advance(w, testutil.MakeRequest("POST", "/advance", nil,
		map[string]string{"X-Service-Key": cfg.ServiceKey}))
	testutil.AssertStatus(t, w, 200)
}

func TestCancelElection(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	h := NewElectionHandler(conn, cfg, machine, dir)

	board := testutil.CreateTestTeam(t, conn, "board", "The Board")
	members := testutil.CreateTestTeam(t, conn, "members", "Members")
	electionID := testutil.CreateTestElection(t, conn, board, members,
		testutil.ElectionFixture{Slug: "board-2026", Status: "nominating"})

	cancelReq := func(key string) *httptest.ResponseRecorder {
		headers := map[string]string{}
		if key != "" {
			headers["X-Admin-Key"] = key
		}
		req := testutil.MakeRequest("POST", "/teams/board/elections/board-2026/cancel", nil, headers)
		req.SetPathValue("team", "board")
		req.SetPathValue("slug", "board-2026")
		w := httptest.NewRecorder()
		h.CancelElection(w, req)
		return w
	}

	testutil.AssertStatus(t, cancelReq("wrong-key"), 401)

	adminKey := auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
	w := cancelReq(adminKey)
	testutil.AssertStatus(t, w, 200)

	var resp map[string]string
	testutil.AssertJSON(t, w, &resp)
	if resp["status"] != models.StatusFailedCandidates {
		t.Errorf("Expected failed_candidates, got %s", resp["status"])
	}

	// Terminal elections cannot be cancelled again
	testutil.AssertStatus(t, cancelReq(adminKey), 409)
}

func TestGetElection(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	h := NewElectionHandler(conn, cfg, machine, dir)

	board := testutil.CreateTestTeam(t, conn, "board", "The Board")
	members := testutil.CreateTestTeam(t, conn, "members", "Members")
	alice := testutil.CreateTestPerson(t, conn, "alice")
	testutil.CreateTestElection(t, conn, board, members,
		testutil.ElectionFixture{Slug: "board-2026", Status: "nominating"})

	electionID := ""
	if err := conn.QueryRow(`SELECT id FROM election WHERE slug = 'board-2026'`).Scan(&electionID); err != nil {
		t.Fatalf("Failed to read election: %v", err)
	}
	testutil.CreateTestCandidate(t, conn, electionID, "someone", alice, true, true)

	req := testutil.MakeRequest("GET", "/teams/board/elections/board-2026", nil, nil)
	req.SetPathValue("team", "board")
	req.SetPathValue("slug", "board-2026")
	w := httptest.NewRecorder()
	h.GetElection(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp struct {
		Name       string             `json:"name"`
		Candidates []models.Candidate `json:"candidates"`
	}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Candidates) != 1 || resp.Candidates[0].PersonID != alice {
		t.Errorf("Expected accepted candidate %s, got %+v", alice, resp.Candidates)
	}
	if resp.Name == "" {
		t.Error("Expected a display name")
	}

	req = testutil.MakeRequest("GET", "/teams/board/elections/nope", nil, nil)
	req.SetPathValue("team", "board")
	req.SetPathValue("slug", "nope")
	w = httptest.NewRecorder()
	h.GetElection(w, req)
	testutil.AssertStatus(t, w, 404)
}

func TestResultsSealedUntilTerminal(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	rh := NewResultsHandler(conn, cfg, dir)

	board := testutil.CreateTestTeam(t, conn, "board", "The Board")
	members := testutil.CreateTestTeam(t, conn, "members", "Members")
	for _, status := range []string{"planning", "nominating", "selecting", "voting"} {
		testutil.CreateTestElection(t, conn, board, members,
			testutil.ElectionFixture{Slug: "e-" + status, Status: status})

		req := testutil.MakeRequest("GET", "/teams/board/elections/e-"+status+"/results", nil, nil)
		req.SetPathValue("team", "board")
		req.SetPathValue("slug", "e-"+status)
		w := httptest.NewRecorder()
		rh.GetResults(w, req)
		testutil.AssertStatus(t, w, 403)
	}

	// Run a real election to completion and read its published log
	alice := testutil.CreateTestPerson(t, conn, "alice")
	erin := testutil.CreateTestPerson(t, conn, "erin")
	testutil.AddTestMember(t, conn, members, alice)
	testutil.AddTestMember(t, conn, members, erin)
	electionID := testutil.CreateTestElection(t, conn, board, members,
		testutil.ElectionFixture{Slug: "done", Status: "nominating", Places: 1})

	slug := testutil.CreateTestCandidate(t, conn, electionID, erin, alice, false, false)
	if err := machine.Respond(slug, true); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if err := machine.CloseInvitations(electionID); err != nil {
		t.Fatalf("CloseInvitations failed: %v", err)
	}
	// Uncontested: closes at voting open
	if err := machine.OpenVoting(electionID); err != nil {
		t.Fatalf("OpenVoting failed: %v", err)
	}

	req := testutil.MakeRequest("GET", "/teams/board/elections/done/results", nil, nil)
	req.SetPathValue("team", "board")
	req.SetPathValue("slug", "done")
	w := httptest.NewRecorder()
	rh.GetResults(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp struct {
		Status string           `json:"status"`
		Log    models.ResultLog `json:"log"`
	}
	testutil.AssertJSON(t, w, &resp)
	if resp.Status != models.StatusFinished {
		t.Errorf("Expected finished status, got %s", resp.Status)
	}
	if len(resp.Log.Results.Winners) != 1 || resp.Log.Results.Winners[0] != alice {
		t.Errorf("Expected winner %s, got %v", alice, resp.Log.Results.Winners)
	}
}

func TestVotingEndpoints(t *testing.T) {
	conn, cfg, machine, dir := setupHandlers(t)
	vh := NewVotingHandler(conn, cfg, machine, dir)

	board := testutil.CreateTestTeam(t, conn, "board", "The Board")
	members := testutil.CreateTestTeam(t, conn, "members", "Members")
	var people []string
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		id := testutil.CreateTestPerson(t, conn, u)
		testutil.AddTestMember(t, conn, members, id)
		people = append(people, id)
	}
	alice, bob, carol, dave := people[0], people[1], people[2], people[3]

	electionID := testutil.CreateTestElection(t, conn, board, members,
		testutil.ElectionFixture{Slug: "board-2026", Status: "nominating", Places: 1, MinVotes: 1})

	// Nominate alice and bob over HTTP
	var candidateSlugs []string
	for _, inv := range []models.InviteRequest{
		{InvitorID: carol, NomineeID: alice},
		{InvitorID: dave, NomineeID: bob},
	} {
		req := testutil.MakeRequest("POST", "/teams/board/elections/board-2026/invite", inv, nil)
		req.SetPathValue("team", "board")
		req.SetPathValue("slug", "board-2026")
		w := httptest.NewRecorder()
		vh.Invite(w, req)
		testutil.AssertStatus(t, w, 201)

		var resp models.InviteResponse
		testutil.AssertJSON(t, w, &resp)
		candidateSlugs = append(candidateSlugs, resp.CandidateSlug)
	}

	// Duplicate nomination conflicts
	req := testutil.MakeRequest("POST", "/teams/board/elections/board-2026/invite",
		models.InviteRequest{InvitorID: carol, NomineeID: bob}, nil)
	req.SetPathValue("team", "board")
	req.SetPathValue("slug", "board-2026")
	w := httptest.NewRecorder()
	vh.Invite(w, req)
	testutil.AssertStatus(t, w, 409)

	for _, slug := range candidateSlugs {
		req := testutil.MakeRequest("POST", "/candidates/"+slug+"/respond",
			models.RespondRequest{Accept: true}, nil)
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		vh.Respond(w, req)
		testutil.AssertStatus(t, w, 200)
	}

	if err := machine.CloseInvitations(electionID); err != nil {
		t.Fatalf("CloseInvitations failed: %v", err)
	}
	if err := machine.OpenVoting(electionID); err != nil {
		t.Fatalf("OpenVoting failed: %v", err)
	}

	aliceCand := testutil.CandidateID(t, conn, electionID, alice)
	ballotSlug := testutil.BallotSlug(t, conn, electionID, carol)

	req = testutil.MakeRequest("POST", "/ballots/"+ballotSlug+"/votes",
		models.SubmitVoteRequest{Ranking: []string{aliceCand}}, nil)
	req.SetPathValue("slug", ballotSlug)
	w = httptest.NewRecorder()
	vh.SubmitVote(w, req)
	testutil.AssertStatus(t, w, 200)

	var voteResp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &voteResp)
	if !voteResp.Responded {
		t.Error("Expected a ranked submission to count as responded")
	}

	// Unknown candidate in the ranking
	req = testutil.MakeRequest("POST", "/ballots/"+ballotSlug+"/votes",
		models.SubmitVoteRequest{Ranking: []string{"ghost"}}, nil)
	req.SetPathValue("slug", ballotSlug)
	w = httptest.NewRecorder()
	vh.SubmitVote(w, req)
	testutil.AssertStatus(t, w, 400)

	// Unknown ballot token
	req = testutil.MakeRequest("POST", "/ballots/nope/votes",
		models.SubmitVoteRequest{Ranking: []string{aliceCand}}, nil)
	req.SetPathValue("slug", "nope")
	w = httptest.NewRecorder()
	vh.SubmitVote(w, req)
	testutil.AssertStatus(t, w, 404)
}

func TestTeamEndpoints(t *testing.T) {
	conn, cfg, _, dir := setupHandlers(t)
	th := NewTeamHandler(conn, cfg, dir)

	w := httptest.NewRecorder()
	th.CreateTeam(w, testutil.MakeRequest("POST", "/teams",
		models.CreateTeamRequest{Slug: "board", Name: "The Board"}, nil))
	testutil.AssertStatus(t, w, 201)

	// Duplicate slug conflicts
	w = httptest.NewRecorder()
	th.CreateTeam(w, testutil.MakeRequest("POST", "/teams",
		models.CreateTeamRequest{Slug: "board", Name: "Another Board"}, nil))
	testutil.AssertStatus(t, w, 409)

	w = httptest.NewRecorder()
	th.CreatePerson(w, testutil.MakeRequest("POST", "/people",
		models.CreatePersonRequest{Username: "alice"}, nil))
	testutil.AssertStatus(t, w, 201)

	var personResp models.CreatePersonResponse
	testutil.AssertJSON(t, w, &personResp)

	req := testutil.MakeRequest("POST", "/teams/board/members",
		models.AddMemberRequest{PersonID: personResp.PersonID}, nil)
	req.SetPathValue("team", "board")
	w = httptest.NewRecorder()
	th.AddMember(w, req)
	testutil.AssertStatus(t, w, 201)

	req = testutil.MakeRequest("GET", "/teams/board/members", nil, nil)
	req.SetPathValue("team", "board")
	w = httptest.NewRecorder()
	th.ListMembers(w, req)
	testutil.AssertStatus(t, w, 200)

	var people []models.Person
	testutil.AssertJSON(t, w, &people)
	if len(people) != 1 || people[0].Username != "alice" {
		t.Errorf("Expected one member alice, got %+v", people)
	}
}
