package model

// Severity classifies an aggregate pull request status.
type Severity string

const (
	SeverityFailed  Severity = "failed"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityRunning Severity = "running"
	SeverityWaiting Severity = "waiting"
	SeverityQueued  Severity = "queued"
)

// Status labels.
const (
	LabelFailure          = "Pull Request is in failure status."
	LabelRejected         = "One or more reviewer(s) has rejected."
	LabelWaitingForAuthor = "One or more reviewer(s) is waiting for the author."
	LabelSuccess          = "Success"
	LabelPolicies         = "Waiting all policies to be completed"
	LabelRequiredWaiting  = "Waiting Review of required Reviewers"
	LabelInProgress       = "Review in progress"
	LabelWaitingReview    = "Waiting Review"
)

// Status is the aggregate status shown for a pull request.
type Status struct {
	Label    string
	Severity Severity
}

// StatusInput holds everything the aggregate status depends on.
type StatusInput struct {
	HasFailure    bool
	Votes         []Vote
	RequiredVotes []Vote
	PoliciesOK    bool
}

// DeriveStatus evaluates the status rules in order; the first match wins.
//
// An empty RequiredVotes slice satisfies "every required reviewer approved",
// so a pull request without required reviewers and with passing policies is
// reported as a success.
func DeriveStatus(in StatusInput) Status {
	if in.HasFailure {
		return Status{Label: LabelFailure, Severity: SeverityFailed}
	}
	if anyVote(in.Votes, VoteRejected) {
		return Status{Label: LabelRejected, Severity: SeverityFailed}
	}
	if anyVote(in.Votes, VoteWaitingForAuthor) {
		return Status{Label: LabelWaitingForAuthor, Severity: SeverityWarning}
	}
	if everyVote(in.RequiredVotes, Vote.IsApproval) && in.PoliciesOK {
		return Status{Label: LabelSuccess, Severity: SeveritySuccess}
	}
	if !in.PoliciesOK {
		return Status{Label: LabelPolicies, Severity: SeverityRunning}
	}
	noVote := func(v Vote) bool { return v == VoteNone }
	if everyVote(in.RequiredVotes, noVote) {
		return Status{Label: LabelRequiredWaiting, Severity: SeverityWaiting}
	}
	if anyVote(in.RequiredVotes, VoteNone) {
		return Status{Label: LabelInProgress, Severity: SeverityRunning}
	}
	return Status{Label: LabelWaitingReview, Severity: SeverityQueued}
}

// SeverityRank orders severities from most to least urgent.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityFailed:
		return 0
	case SeverityWarning:
		return 1
	case SeverityRunning:
		return 2
	case SeverityWaiting:
		return 3
	case SeverityQueued:
		return 4
	case SeveritySuccess:
		return 5
	default:
		return 6
	}
}

func anyVote(votes []Vote, want Vote) bool {
	for _, v := range votes {
		if v == want {
			return true
		}
	}
	return false
}

func everyVote(votes []Vote, pred func(Vote) bool) bool {
	for _, v := range votes {
		if !pred(v) {
			return false
		}
	}
	return true
}
