package model

import (
	"strings"
	"time"
)

// PullRequestState is the lifecycle state of a pull request.
type PullRequestState string

const (
	StateActive    PullRequestState = "active"
	StateCompleted PullRequestState = "completed"
	StateAbandoned PullRequestState = "abandoned"
	StateAll       PullRequestState = "all"
)

// ParsePullRequestState validates a state string, applying a fallback when empty.
func ParsePullRequestState(value string, fallback PullRequestState) (PullRequestState, bool) {
	switch PullRequestState(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return fallback, true
	case StateActive:
		return StateActive, true
	case StateCompleted:
		return StateCompleted, true
	case StateAbandoned:
		return StateAbandoned, true
	case StateAll:
		return StateAll, true
	default:
		return fallback, false
	}
}

// IsHistorical reports whether listing this state is capped by the historical limit.
func (s PullRequestState) IsHistorical() bool {
	return s == StateCompleted || s == StateAbandoned || s == StateAll
}

// MergeStatus is the result of the last merge attempt.
type MergeStatus string

const (
	MergeNotSet           MergeStatus = "notSet"
	MergeQueued           MergeStatus = "queued"
	MergeConflicts        MergeStatus = "conflicts"
	MergeSucceeded        MergeStatus = "succeeded"
	MergeRejectedByPolicy MergeStatus = "rejectedByPolicy"
	MergeFailure          MergeStatus = "failure"
)

// HasFailure reports whether the merge status blocks completion.
func (m MergeStatus) HasFailure() bool {
	switch m {
	case MergeConflicts, MergeFailure, MergeRejectedByPolicy:
		return true
	default:
		return false
	}
}

// Identity is a user or group.
type Identity struct {
	ID          string
	DisplayName string
	UniqueName  string
}

// Reviewer is an identity with a vote on a pull request.
type Reviewer struct {
	Identity
	Vote        Vote
	IsRequired  bool
	IsContainer bool
}

// Project identifies an Azure DevOps project.
type Project struct {
	ID   string
	Name string
}

// Repository identifies a git repository inside a project.
type Repository struct {
	ID      string
	Name    string
	Project Project
}

// PullRequest is the list-query payload for one pull request.
type PullRequest struct {
	ID            int
	Title         string
	IsDraft       bool
	State         PullRequestState
	MergeStatus   MergeStatus
	CreatedAt     time.Time
	ClosedAt      time.Time
	CreatedBy     Identity
	Repository    Repository
	SourceRefName string
	TargetRefName string
	Reviewers     []Reviewer
}

// Details holds the extended metadata fetched per pull request.
type Details struct {
	AutoComplete bool
	LastCommitID string
	LastCommitAt time.Time
}

// Comment is a single comment in a thread.
type Comment struct {
	AuthorID    string
	IsDeleted   bool
	IsText      bool
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// ThreadStatus is the resolution state of a comment thread.
type ThreadStatus string

const (
	ThreadActive   ThreadStatus = "active"
	ThreadFixed    ThreadStatus = "fixed"
	ThreadWontFix  ThreadStatus = "wontFix"
	ThreadClosed   ThreadStatus = "closed"
	ThreadByDesign ThreadStatus = "byDesign"
	ThreadPending  ThreadStatus = "pending"
)

// IsTerminated reports whether the thread counts as resolved.
func (s ThreadStatus) IsTerminated() bool {
	return s == ThreadClosed || s == ThreadWontFix || s == ThreadFixed
}

// Thread is a comment thread on a pull request.
type Thread struct {
	ID        int
	Status    ThreadStatus
	IsDeleted bool
	Comments  []Comment
}

// Label is a tag attached to a pull request.
type Label struct {
	ID     string
	Name   string
	Active bool
}

const refHeadsPrefix = "refs/heads/"

// BranchName strips the refs/heads/ prefix from a ref name.
func BranchName(ref string) string {
	return strings.TrimPrefix(ref, refHeadsPrefix)
}

// RefName expands a branch display name into a full ref name.
func RefName(branch string) string {
	if branch == "" || strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return refHeadsPrefix + branch
}
