// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the election lifecycle state machine and the
candidate/ballot workflows around it.

# Lifecycle

	planning -> nominating -> selecting -> voting -> finished
	                           \                \
	                            failed_candidates  failed_voters

Transitions are driven by milestone dates through Advance (invoked daily by
a scheduler) and are one-way. Insufficient candidates and insufficient
voters are terminal states, not errors, so a failed election remains a
durable, queryable fact.

# Atomicity

Every transition executes inside one transaction scoped to the election's
rows: a crash mid-transition leaves the election exactly in its
pre-transition state. Winning members are applied to the team inside the
same transaction; notifications fire only after commit.

# The result log

Closing (or failing) an election serializes the roster, every submitted
paper, the round-by-round tabulation, and the participation counts into the
election's log column, then deletes the raw candidate, ballot, and vote
rows. Anything that wants to know "who voted for whom" afterwards must read
the log; the live rows are gone on purpose.

External collaborators (Notifier, TeamService, Identities) are
constructor-injected interfaces rather than implicit dispatch.
*/
package election
