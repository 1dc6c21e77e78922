// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/teamvote/elections/models"
)

// LogNotifier records election announcements to the structured log.
// Message composition and mail delivery live outside this service; the
// state machine only needs a hook that never blocks a transition.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendToTeam logs one announcement for the team. Deadline fields in the
// context are rephrased relative to now ("closes in 3 days") for readable
// operational logs.
func (n *LogNotifier) SendToTeam(teamID, kind string, context map[string]any) error {
	args := []any{"team", teamID, "kind", kind}
	for key, value := range context {
		args = append(args, key, value)
	}
	if closes := relativeDeadline(context, kind); closes != "" {
		args = append(args, "closes", closes)
	}
	slog.Info("notification", args...)
	return nil
}

// SendToUser logs one announcement addressed to a single person, such as
// the respond link of a fresh nomination.
func (n *LogNotifier) SendToUser(personID, kind string, context map[string]any) error {
	args := []any{"person", personID, "kind", kind}
	for key, value := range context {
		args = append(args, key, value)
	}
	if closes := relativeDeadline(context, kind); closes != "" {
		args = append(args, "closes", closes)
	}
	slog.Info("notification", args...)
	return nil
}

func relativeDeadline(context map[string]any, kind string) string {
	var field string
	switch kind {
	case models.NotifyInvitation:
		field = "accept_from"
	case models.NotifyCandidatesNeeded:
		field = "voting_from"
	case models.NotifyVotingOpen:
		field = "finish_on"
	default:
		return ""
	}
	raw, ok := context[field].(string)
	if !ok {
		return ""
	}
	deadline, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return ""
	}
	return humanize.Time(deadline)
}
