package model

import (
	"fmt"
	"strings"
)

// Vote is a reviewer vote as reported by Azure DevOps.
type Vote int

const (
	VoteApproved                Vote = 10
	VoteApprovedWithSuggestions Vote = 5
	VoteNone                    Vote = 0
	VoteWaitingForAuthor        Vote = -5
	VoteRejected                Vote = -10
)

// AllVotes lists the votes in display order.
var AllVotes = []Vote{
	VoteApproved,
	VoteApprovedWithSuggestions,
	VoteNone,
	VoteWaitingForAuthor,
	VoteRejected,
}

// String returns the display label for the vote.
func (v Vote) String() string {
	switch v {
	case VoteApproved:
		return "Approved"
	case VoteApprovedWithSuggestions:
		return "Approved with suggestions"
	case VoteNone:
		return "No vote"
	case VoteWaitingForAuthor:
		return "Waiting for author"
	case VoteRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("Vote(%d)", int(v))
	}
}

// Short returns a compact tag used in tables.
func (v Vote) Short() string {
	switch v {
	case VoteApproved:
		return "approved"
	case VoteApprovedWithSuggestions:
		return "suggestions"
	case VoteNone:
		return "novote"
	case VoteWaitingForAuthor:
		return "waiting"
	case VoteRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsApproval reports whether the vote approves the pull request.
func (v Vote) IsApproval() bool {
	return v == VoteApproved || v == VoteApprovedWithSuggestions
}

// ParseVote parses a vote name (as printed by Short) or its integer value.
func ParseVote(raw string) (Vote, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "approved", "10":
		return VoteApproved, nil
	case "suggestions", "approved-with-suggestions", "5":
		return VoteApprovedWithSuggestions, nil
	case "novote", "none", "no-vote", "0":
		return VoteNone, nil
	case "waiting", "waiting-for-author", "-5":
		return VoteWaitingForAuthor, nil
	case "rejected", "-10":
		return VoteRejected, nil
	default:
		return VoteNone, fmt.Errorf("invalid vote %q (valid: approved, suggestions, novote, waiting, rejected)", raw)
	}
}
