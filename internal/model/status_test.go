package model

import "testing"

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name string
		in   StatusInput
		want Status
	}{
		{
			name: "merge failure pre-empts approvals",
			in: StatusInput{
				HasFailure:    true,
				Votes:         []Vote{VoteApproved, VoteApproved},
				RequiredVotes: []Vote{VoteApproved, VoteApproved},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelFailure, Severity: SeverityFailed},
		},
		{
			name: "rejected wins over approved required reviewers",
			in: StatusInput{
				Votes:         []Vote{VoteApproved, VoteRejected},
				RequiredVotes: []Vote{VoteApproved},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelRejected, Severity: SeverityFailed},
		},
		{
			name: "rejected wins over waiting for author",
			in: StatusInput{
				Votes:      []Vote{VoteWaitingForAuthor, VoteRejected},
				PoliciesOK: true,
			},
			want: Status{Label: LabelRejected, Severity: SeverityFailed},
		},
		{
			name: "waiting for author",
			in: StatusInput{
				Votes:         []Vote{VoteWaitingForAuthor, VoteApproved},
				RequiredVotes: []Vote{VoteApproved},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelWaitingForAuthor, Severity: SeverityWarning},
		},
		{
			name: "all required approved and policies ok",
			in: StatusInput{
				Votes:         []Vote{VoteApproved, VoteApprovedWithSuggestions},
				RequiredVotes: []Vote{VoteApproved, VoteApprovedWithSuggestions},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelSuccess, Severity: SeveritySuccess},
		},
		{
			name: "no required reviewers and policies ok",
			in: StatusInput{
				Votes:      []Vote{VoteNone},
				PoliciesOK: true,
			},
			want: Status{Label: LabelSuccess, Severity: SeveritySuccess},
		},
		{
			name: "approved but policies pending",
			in: StatusInput{
				Votes:         []Vote{VoteApproved},
				RequiredVotes: []Vote{VoteApproved},
				PoliciesOK:    false,
			},
			want: Status{Label: LabelPolicies, Severity: SeverityRunning},
		},
		{
			name: "no required reviewers and policies pending",
			in:   StatusInput{PoliciesOK: false},
			want: Status{Label: LabelPolicies, Severity: SeverityRunning},
		},
		{
			name: "all required reviewers have not voted",
			in: StatusInput{
				Votes:         []Vote{VoteNone, VoteNone},
				RequiredVotes: []Vote{VoteNone, VoteNone},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelRequiredWaiting, Severity: SeverityWaiting},
		},
		{
			name: "some required reviewers have not voted",
			in: StatusInput{
				Votes:         []Vote{VoteApproved, VoteNone},
				RequiredVotes: []Vote{VoteApproved, VoteNone},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelInProgress, Severity: SeverityRunning},
		},
		{
			name: "unknown vote value falls through",
			in: StatusInput{
				Votes:         []Vote{Vote(3)},
				RequiredVotes: []Vote{Vote(3)},
				PoliciesOK:    true,
			},
			want: Status{Label: LabelWaitingReview, Severity: SeverityQueued},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.in)
			if got != tt.want {
				t.Fatalf("DeriveStatus() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveStatusRejectedAlwaysFails(t *testing.T) {
	for _, other := range AllVotes {
		for _, required := range AllVotes {
			in := StatusInput{
				Votes:         []Vote{other, VoteRejected, required},
				RequiredVotes: []Vote{required},
				PoliciesOK:    true,
			}
			got := DeriveStatus(in)
			if got.Label != LabelRejected {
				t.Fatalf("votes %v: got %q, want %q", in.Votes, got.Label, LabelRejected)
			}
		}
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	in := StatusInput{
		Votes:         []Vote{VoteApproved, VoteNone},
		RequiredVotes: []Vote{VoteApproved, VoteNone},
		PoliciesOK:    true,
	}
	first := DeriveStatus(in)
	second := DeriveStatus(in)
	if first != second {
		t.Fatalf("DeriveStatus not deterministic: %+v vs %+v", first, second)
	}
}

func TestAllPoliciesOK(t *testing.T) {
	tests := []struct {
		name     string
		policies []Policy
		want     bool
	}{
		{name: "none", want: true},
		{
			name: "non blocking rejected",
			policies: []Policy{
				{IsEnabled: true, IsBlocking: false, Status: PolicyRejected},
			},
			want: true,
		},
		{
			name: "disabled blocking running",
			policies: []Policy{
				{IsEnabled: false, IsBlocking: true, Status: PolicyRunning},
			},
			want: true,
		},
		{
			name: "blocking approved",
			policies: []Policy{
				{IsEnabled: true, IsBlocking: true, Status: PolicyApproved},
				{IsEnabled: true, IsBlocking: false, Status: PolicyQueued},
			},
			want: true,
		},
		{
			name: "blocking running",
			policies: []Policy{
				{IsEnabled: true, IsBlocking: true, Status: PolicyApproved},
				{IsEnabled: true, IsBlocking: true, Status: PolicyRunning},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllPoliciesOK(tt.policies); got != tt.want {
				t.Errorf("AllPoliciesOK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeStatusHasFailure(t *testing.T) {
	failing := map[MergeStatus]bool{
		MergeNotSet:           false,
		MergeQueued:           false,
		MergeSucceeded:        false,
		MergeConflicts:        true,
		MergeFailure:          true,
		MergeRejectedByPolicy: true,
	}
	for status, want := range failing {
		if got := status.HasFailure(); got != want {
			t.Errorf("%s.HasFailure() = %v, want %v", status, got, want)
		}
	}
}
