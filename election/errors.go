// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound - no election, candidate, or ballot matches the identifier
	ErrNotFound = errors.New("not found")

	// ErrWrongStatus - the election is not in the status the operation
	// requires; the advancer treats this as a harmless no-op
	ErrWrongStatus = errors.New("election is not in the required status")

	// ErrDuplicateInvitation - the invitor or the nominee already has a
	// candidacy in this election
	ErrDuplicateInvitation = errors.New("invitation already sent")

	// ErrVotingClosed - the ballot's election is not open for voting
	ErrVotingClosed = errors.New("election is not open for voting")

	// ErrUnknownCandidate - a ranked ID is not an accepted candidate of
	// the ballot's election
	ErrUnknownCandidate = errors.New("unknown candidate")

	// ErrInvalidRanking - the same candidate appears more than once
	ErrInvalidRanking = errors.New("candidate ranked more than once")

	// ErrConflict - a storage uniqueness conflict persisted through a
	// retry; the caller should try again
	ErrConflict = errors.New("conflicting concurrent write")
)

// isUniqueViolation matches the uniqueness-violation message of both
// supported engines, same approach as checking pq error strings elsewhere.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
