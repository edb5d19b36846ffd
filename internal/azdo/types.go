package azdo

import (
	"time"

	"github.com/cribeiro84/prhub/internal/model"
)

type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

type identityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type reviewerRef struct {
	identityRef
	Vote        int  `json:"vote"`
	IsRequired  bool `json:"isRequired"`
	IsContainer bool `json:"isContainer"`
}

type projectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type repositoryRef struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Project projectRef `json:"project"`
}

type gitUserDate struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type commitRef struct {
	CommitID  string       `json:"commitId"`
	Committer *gitUserDate `json:"committer,omitempty"`
	Author    *gitUserDate `json:"author,omitempty"`
}

type pullRequest struct {
	PullRequestID         int           `json:"pullRequestId"`
	Title                 string        `json:"title"`
	IsDraft               bool          `json:"isDraft"`
	Status                string        `json:"status"`
	MergeStatus           string        `json:"mergeStatus"`
	CreationDate          time.Time     `json:"creationDate"`
	ClosedDate            *time.Time    `json:"closedDate,omitempty"`
	CreatedBy             identityRef   `json:"createdBy"`
	Repository            repositoryRef `json:"repository"`
	SourceRefName         string        `json:"sourceRefName"`
	TargetRefName         string        `json:"targetRefName"`
	Reviewers             []reviewerRef `json:"reviewers"`
	AutoCompleteSetBy     *identityRef  `json:"autoCompleteSetBy,omitempty"`
	LastMergeSourceCommit *commitRef    `json:"lastMergeSourceCommit,omitempty"`
}

type comment struct {
	ID              int         `json:"id"`
	Author          identityRef `json:"author"`
	CommentType     string      `json:"commentType"`
	IsDeleted       bool        `json:"isDeleted"`
	PublishedDate   time.Time   `json:"publishedDate"`
	LastUpdatedDate time.Time   `json:"lastUpdatedDate"`
}

type thread struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"`
	IsDeleted bool      `json:"isDeleted"`
	Comments  []comment `json:"comments"`
}

type resourceRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type label struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type policyType struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type policyConfiguration struct {
	ID         int        `json:"id"`
	IsEnabled  bool       `json:"isEnabled"`
	IsBlocking bool       `json:"isBlocking"`
	Type       policyType `json:"type"`
	Settings   struct {
		DisplayName string `json:"displayName"`
	} `json:"settings"`
}

type policyEvaluation struct {
	EvaluationID  string              `json:"evaluationId"`
	Status        string              `json:"status"`
	Configuration policyConfiguration `json:"configuration"`
}

type connectionData struct {
	AuthenticatedUser struct {
		ID                  string `json:"id"`
		ProviderDisplayName string `json:"providerDisplayName"`
	} `json:"authenticatedUser"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (i identityRef) toModel() model.Identity {
	return model.Identity{ID: i.ID, DisplayName: i.DisplayName, UniqueName: i.UniqueName}
}

func (p projectRef) toModel() model.Project {
	return model.Project{ID: p.ID, Name: p.Name}
}

func (r repositoryRef) toModel() model.Repository {
	return model.Repository{ID: r.ID, Name: r.Name, Project: r.Project.toModel()}
}

func (pr pullRequest) toModel() model.PullRequest {
	out := model.PullRequest{
		ID:            pr.PullRequestID,
		Title:         pr.Title,
		IsDraft:       pr.IsDraft,
		State:         model.PullRequestState(pr.Status),
		MergeStatus:   model.MergeStatus(pr.MergeStatus),
		CreatedAt:     pr.CreationDate,
		CreatedBy:     pr.CreatedBy.toModel(),
		Repository:    pr.Repository.toModel(),
		SourceRefName: pr.SourceRefName,
		TargetRefName: pr.TargetRefName,
	}
	if out.MergeStatus == "" {
		out.MergeStatus = model.MergeNotSet
	}
	if pr.ClosedDate != nil {
		out.ClosedAt = *pr.ClosedDate
	}
	for _, r := range pr.Reviewers {
		out.Reviewers = append(out.Reviewers, model.Reviewer{
			Identity:    r.identityRef.toModel(),
			Vote:        model.Vote(r.Vote),
			IsRequired:  r.IsRequired,
			IsContainer: r.IsContainer,
		})
	}
	return out
}

func (pr pullRequest) toDetails() model.Details {
	d := model.Details{AutoComplete: pr.AutoCompleteSetBy != nil && pr.AutoCompleteSetBy.ID != ""}
	if c := pr.LastMergeSourceCommit; c != nil {
		d.LastCommitID = c.CommitID
		switch {
		case c.Committer != nil:
			d.LastCommitAt = c.Committer.Date
		case c.Author != nil:
			d.LastCommitAt = c.Author.Date
		}
	}
	return d
}

func (t thread) toModel() model.Thread {
	out := model.Thread{ID: t.ID, Status: model.ThreadStatus(t.Status), IsDeleted: t.IsDeleted}
	for _, c := range t.Comments {
		out.Comments = append(out.Comments, model.Comment{
			AuthorID:    c.Author.ID,
			IsDeleted:   c.IsDeleted,
			IsText:      c.CommentType == "text",
			PublishedAt: c.PublishedDate,
			UpdatedAt:   c.LastUpdatedDate,
		})
	}
	return out
}

func (p policyEvaluation) toModel() model.Policy {
	name := p.Configuration.Settings.DisplayName
	if name == "" {
		name = p.Configuration.Type.DisplayName
	}
	return model.Policy{
		ID:          p.EvaluationID,
		DisplayName: name,
		IsEnabled:   p.Configuration.IsEnabled,
		IsBlocking:  p.Configuration.IsBlocking,
		Status:      model.PolicyStatus(p.Status),
	}
}
