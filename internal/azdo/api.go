package azdo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/cribeiro84/prhub/internal/model"
)

// SearchCriteria narrows a pull request list query.
type SearchCriteria struct {
	Status        model.PullRequestState
	CreatorID     string
	ReviewerID    string
	RepositoryID  string
	SourceRefName string
	TargetRefName string
	Top           int
}

// User is the identity the access token belongs to.
type User struct {
	ID          string
	DisplayName string
}

// ConnectionData returns the authenticated user.
func (c *Client) ConnectionData(ctx context.Context) (*User, error) {
	var out connectionData
	if err := c.getJSON(ctx, c.endpoint(nil, "_apis", "connectionData"), &out); err != nil {
		return nil, fmt.Errorf("getting connection data: %w", err)
	}
	return &User{ID: out.AuthenticatedUser.ID, DisplayName: out.AuthenticatedUser.ProviderDisplayName}, nil
}

// ListProjects returns the projects in the organization.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out listResponse[projectRef]
	if err := c.getJSON(ctx, c.endpoint(versionQuery(apiVersion), "_apis", "projects"), &out); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	projects := make([]model.Project, 0, len(out.Value))
	for _, p := range out.Value {
		projects = append(projects, p.toModel())
	}
	return projects, nil
}

// ListRepositories returns the git repositories of a project.
func (c *Client) ListRepositories(ctx context.Context, project string) ([]model.Repository, error) {
	var out listResponse[repositoryRef]
	u := c.endpoint(versionQuery(apiVersion), project, "_apis", "git", "repositories")
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("listing repositories of %s: %w", project, err)
	}
	repos := make([]model.Repository, 0, len(out.Value))
	for _, r := range out.Value {
		repos = append(repos, r.toModel())
	}
	return repos, nil
}

// ListPullRequests returns pull requests of a project matching criteria.
func (c *Client) ListPullRequests(ctx context.Context, project string, criteria SearchCriteria) ([]model.PullRequest, error) {
	q := versionQuery(apiVersion)
	status := criteria.Status
	if status == "" {
		status = model.StateActive
	}
	q.Set("searchCriteria.status", string(status))
	if criteria.CreatorID != "" {
		q.Set("searchCriteria.creatorId", criteria.CreatorID)
	}
	if criteria.ReviewerID != "" {
		q.Set("searchCriteria.reviewerId", criteria.ReviewerID)
	}
	if criteria.RepositoryID != "" {
		q.Set("searchCriteria.repositoryId", criteria.RepositoryID)
	}
	if criteria.SourceRefName != "" {
		q.Set("searchCriteria.sourceRefName", model.RefName(criteria.SourceRefName))
	}
	if criteria.TargetRefName != "" {
		q.Set("searchCriteria.targetRefName", model.RefName(criteria.TargetRefName))
	}
	if criteria.Top > 0 {
		q.Set("$top", strconv.Itoa(criteria.Top))
	}

	var out listResponse[pullRequest]
	if err := c.getJSON(ctx, c.endpoint(q, project, "_apis", "git", "pullrequests"), &out); err != nil {
		return nil, fmt.Errorf("listing pull requests of %s: %w", project, err)
	}
	prs := make([]model.PullRequest, 0, len(out.Value))
	for _, pr := range out.Value {
		prs = append(prs, pr.toModel())
	}
	return prs, nil
}

// GetPullRequestDetails returns the extended metadata of one pull request.
func (c *Client) GetPullRequestDetails(ctx context.Context, project, repoID string, prID int) (model.Details, error) {
	var out pullRequest
	u := c.endpoint(versionQuery(apiVersion), project, "_apis", "git", "repositories", repoID, "pullrequests", strconv.Itoa(prID))
	if err := c.getJSON(ctx, u, &out); err != nil {
		return model.Details{}, fmt.Errorf("getting pull request %d: %w", prID, err)
	}
	return out.toDetails(), nil
}

// ListThreads returns the comment threads of a pull request.
func (c *Client) ListThreads(ctx context.Context, project, repoID string, prID int) ([]model.Thread, error) {
	var out listResponse[thread]
	u := c.endpoint(versionQuery(apiVersion), project, "_apis", "git", "repositories", repoID, "pullRequests", strconv.Itoa(prID), "threads")
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("listing threads of %d: %w", prID, err)
	}
	threads := make([]model.Thread, 0, len(out.Value))
	for _, t := range out.Value {
		threads = append(threads, t.toModel())
	}
	return threads, nil
}

// CountWorkItems returns the number of work items linked to a pull request.
func (c *Client) CountWorkItems(ctx context.Context, project, repoID string, prID int) (int, error) {
	var out listResponse[resourceRef]
	u := c.endpoint(versionQuery(apiVersion), project, "_apis", "git", "repositories", repoID, "pullRequests", strconv.Itoa(prID), "workitems")
	if err := c.getJSON(ctx, u, &out); err != nil {
		return 0, fmt.Errorf("listing work items of %d: %w", prID, err)
	}
	return len(out.Value), nil
}

// ListLabels returns the labels attached to a pull request.
func (c *Client) ListLabels(ctx context.Context, project, repoID string, prID int) ([]model.Label, error) {
	var out listResponse[label]
	u := c.endpoint(versionQuery(apiVersionPreview), project, "_apis", "git", "repositories", repoID, "pullRequests", strconv.Itoa(prID), "labels")
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("listing labels of %d: %w", prID, err)
	}
	labels := make([]model.Label, 0, len(out.Value))
	for _, l := range out.Value {
		labels = append(labels, model.Label{ID: l.ID, Name: l.Name, Active: l.Active})
	}
	return labels, nil
}

// ListPolicyEvaluations returns the policy evaluations of a pull request.
func (c *Client) ListPolicyEvaluations(ctx context.Context, project, projectID string, prID int) ([]model.Policy, error) {
	artifactID, err := ArtifactID(projectID, prID)
	if err != nil {
		return nil, err
	}
	q := versionQuery(apiVersionPreview)
	q.Set("artifactId", artifactID)

	var out listResponse[policyEvaluation]
	if err := c.getJSON(ctx, c.endpoint(q, project, "_apis", "policy", "evaluations"), &out); err != nil {
		return nil, fmt.Errorf("listing policy evaluations of %d: %w", prID, err)
	}
	policies := make([]model.Policy, 0, len(out.Value))
	for _, p := range out.Value {
		policies = append(policies, p.toModel())
	}
	return policies, nil
}

// ArtifactID builds the code review artifact identifier used by the policy API.
func ArtifactID(projectID string, prID int) (string, error) {
	id, err := uuid.Parse(projectID)
	if err != nil {
		return "", fmt.Errorf("invalid project id %q: %w", projectID, err)
	}
	return fmt.Sprintf("vstfs:///CodeReview/CodeReviewId/%s/%d", id.String(), prID), nil
}
