package model

// PolicyStatus is the evaluation state of a branch policy.
type PolicyStatus string

const (
	PolicyQueued        PolicyStatus = "queued"
	PolicyRunning       PolicyStatus = "running"
	PolicyApproved      PolicyStatus = "approved"
	PolicyRejected      PolicyStatus = "rejected"
	PolicyNotApplicable PolicyStatus = "notApplicable"
	PolicyBroken        PolicyStatus = "broken"
)

// Policy is one policy evaluation for a pull request.
type Policy struct {
	ID          string
	DisplayName string
	IsEnabled   bool
	IsBlocking  bool
	Status      PolicyStatus
}

// IsApproved reports whether the evaluation passed.
func (p Policy) IsApproved() bool {
	return p.Status == PolicyApproved
}

// AllPoliciesOK is true when no enabled blocking policy exists or all of them are approved.
func AllPoliciesOK(policies []Policy) bool {
	for _, p := range policies {
		if !p.IsEnabled || !p.IsBlocking {
			continue
		}
		if !p.IsApproved() {
			return false
		}
	}
	return true
}
