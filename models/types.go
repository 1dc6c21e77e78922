package models

import (
	"time"

	"github.com/teamvote/elections/stv"
)

// Election status constants
const (
	StatusPlanning         = "planning"
	StatusNominating       = "nominating"
	StatusSelecting        = "selecting"
	StatusVoting           = "voting"
	StatusFinished         = "finished"
	StatusFailedCandidates = "failed_candidates"
	StatusFailedVoters     = "failed_voters"
)

// Ballot type identifier recorded in every result log
const BallotTypeSTV = "stv.droop"

// Notification kinds
const (
	NotifyInvitation       = "candidate_invitation"
	NotifyCandidatesNeeded = "candidates_needed"
	NotifyVotingOpen       = "voting_open"
	NotifyVotingFinished   = "voting_finished"
	NotifyFailedCandidates = "failed_candidates"
	NotifyFailedVotes      = "failed_votes"
)

// DateLayout is the storage format of milestone dates. ISO dates compare
// correctly as strings, which the advancer relies on.
const DateLayout = "2006-01-02"

// Terminal reports whether a status permits no further transitions.
func Terminal(status string) bool {
	switch status {
	case StatusFinished, StatusFailedCandidates, StatusFailedVoters:
		return true
	}
	return false
}

// Request types

type CreateElectionRequest struct {
	Slug         string `json:"slug"`
	ForTeam      string `json:"for_team"`
	ForRole      string `json:"for_role"`
	Constituents string `json:"constituents"`
	CalledBy     string `json:"called_by"`
	InviteFrom   string `json:"invite_from"`
	AcceptFrom   string `json:"accept_from"`
	VotingFrom   string `json:"voting_from"`
	FinishOn     string `json:"finish_on"`
	Places       int    `json:"places"`
	MinVotes     int    `json:"min_votes"`
	Notes        string `json:"notes"`
}

type InviteRequest struct {
	InvitorID string `json:"invitor_id"`
	NomineeID string `json:"nominee_id"`
}

type RespondRequest struct {
	Accept bool `json:"accept"`
}

// Ranking lists candidate IDs in preference order (first = rank 1).
// Abstain lists candidates the voter explicitly declined to rank.
type SubmitVoteRequest struct {
	Ranking []string `json:"ranking"`
	Abstain []string `json:"abstain"`
}

type CreatePersonRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type CreateTeamRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type AddMemberRequest struct {
	PersonID string `json:"person_id"`
	Title    string `json:"title"`
	AddedBy  string `json:"added_by"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type InviteResponse struct {
	CandidateSlug string `json:"candidate_slug"`
}

type SubmitVoteResponse struct {
	Responded bool   `json:"responded"`
	Message   string `json:"message"`
}

type CreatePersonResponse struct {
	PersonID string `json:"person_id"`
}

type CreateTeamResponse struct {
	TeamID string `json:"team_id"`
}

// Domain types

type Election struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	ForTeam      string    `json:"for_team"`
	ForRole      string    `json:"for_role,omitempty"`
	Constituents string    `json:"constituents"`
	CalledBy     string    `json:"called_by"`
	Status       string    `json:"status"`
	InviteFrom   string    `json:"invite_from"`
	AcceptFrom   string    `json:"accept_from"`
	VotingFrom   string    `json:"voting_from"`
	FinishOn     string    `json:"finish_on"`
	Places       int       `json:"places"`
	MinVotes     int       `json:"min_votes"`
	Notes        string    `json:"notes,omitempty"`
	Log          *string   `json:"-"` // Exposed only via the results endpoint
	CreatedAt    time.Time `json:"created_at"`
}

// Year of the voting period, used in display names.
func (e Election) Year() string {
	if len(e.VotingFrom) < 4 {
		return ""
	}
	return e.VotingFrom[:4]
}

// DisplayName renders the election's conventional title.
func (e Election) DisplayName(teamName string) string {
	if e.ForRole == "" {
		return "Election for " + teamName + " (" + e.Year() + ")"
	}
	return "Election for " + e.ForRole + " in " + teamName
}

type Candidate struct {
	ID        string `json:"id"`
	Election  string `json:"election_id"`
	Slug      string `json:"-"` // Secret respond token, never listed
	InvitorID string `json:"invitor_id"`
	PersonID  string `json:"person_id"`
	Responded bool   `json:"responded"`
	Accepted  bool   `json:"accepted"`
}

type Ballot struct {
	ID        string `json:"id"`
	Election  string `json:"election_id"`
	Slug      string `json:"-"` // Secret voting token, never listed
	PersonID  string `json:"person_id"`
	Responded bool   `json:"responded"`
}

type Person struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Team struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is a frozen snapshot of a person's public fields, captured into
// result logs so the record survives account deletion.
type Identity struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Result log types
//
// Once an election reaches a terminal status the log is the sole record of
// what happened; candidate and ballot rows no longer exist.

type CandidateRecord struct {
	PersonID string `json:"user_id"`
	Identity
	Invitor   string `json:"invitor"`
	Responded bool   `json:"responded"`
	Accepted  bool   `json:"accepted"`
}

type BallotRecord struct {
	PersonID string `json:"user_id"`
	Identity
	Responded bool     `json:"responded"`
	Paper     []string `json:"paper"`
}

type LogCounts struct {
	Candidates int `json:"candidates"`
	Invites    int `json:"invites"`
	Ignored    int `json:"ignored"`
	Rejected   int `json:"rejected"`
	Ballots    int `json:"ballots"`
	Voters     int `json:"voters"`
}

type ResultLog struct {
	Type       string            `json:"type"`
	Candidates []CandidateRecord `json:"candidates"`
	Votes      []BallotRecord    `json:"votes"`
	Results    stv.Result        `json:"results"`
	Counts     LogCounts         `json:"counts"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
