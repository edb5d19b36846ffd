package azdo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribeiro84/prhub/internal/model"
)

const testProjectID = "6ce954b1-ce1f-45d1-b94d-e6bf2464ba2c"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/org", StaticToken("pat-token"), Options{})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", StaticToken("x"), Options{})
	assert.Error(t, err)

	_, err = NewClient("https://dev.azure.com/org", nil, Options{})
	assert.Error(t, err)

	c, err := NewClient("https://dev.azure.com/org/", StaticToken("x"), Options{RequestsPerSecond: 5})
	require.NoError(t, err)
	assert.Equal(t, "https://dev.azure.com/org", c.BaseURL())
	assert.NotNil(t, c.limiter)
}

func TestListPullRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/My Project/_apis/git/pullrequests", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "completed", q.Get("searchCriteria.status"))
		assert.Equal(t, "refs/heads/main", q.Get("searchCriteria.targetRefName"))
		assert.Equal(t, "user-1", q.Get("searchCriteria.creatorId"))
		assert.Equal(t, "25", q.Get("$top"))
		assert.Equal(t, apiVersion, q.Get("api-version"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "", user)
		assert.Equal(t, "pat-token", pass)

		_, _ = w.Write([]byte(`{"count":1,"value":[{
			"pullRequestId": 17,
			"title": "Add feature",
			"isDraft": true,
			"status": "completed",
			"mergeStatus": "conflicts",
			"creationDate": "2026-03-01T10:00:00Z",
			"closedDate": "2026-03-02T10:00:00Z",
			"createdBy": {"id": "user-1", "displayName": "Ana"},
			"repository": {"id": "repo-1", "name": "api", "project": {"id": "` + testProjectID + `", "name": "My Project"}},
			"sourceRefName": "refs/heads/feature/x",
			"targetRefName": "refs/heads/main",
			"reviewers": [
				{"id": "r1", "displayName": "Bo", "vote": 10, "isRequired": true},
				{"id": "r2", "displayName": "Team", "vote": -5, "isContainer": true}
			]
		}]}`))
	})

	prs, err := c.ListPullRequests(context.Background(), "My Project", SearchCriteria{
		Status:        model.StateCompleted,
		CreatorID:     "user-1",
		TargetRefName: "main",
		Top:           25,
	})
	require.NoError(t, err)
	require.Len(t, prs, 1)

	pr := prs[0]
	assert.Equal(t, 17, pr.ID)
	assert.True(t, pr.IsDraft)
	assert.Equal(t, model.StateCompleted, pr.State)
	assert.Equal(t, model.MergeConflicts, pr.MergeStatus)
	assert.Equal(t, "Ana", pr.CreatedBy.DisplayName)
	assert.Equal(t, testProjectID, pr.Repository.Project.ID)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), pr.ClosedAt)
	require.Len(t, pr.Reviewers, 2)
	assert.Equal(t, model.VoteApproved, pr.Reviewers[0].Vote)
	assert.True(t, pr.Reviewers[0].IsRequired)
	assert.Equal(t, model.VoteWaitingForAuthor, pr.Reviewers[1].Vote)
	assert.True(t, pr.Reviewers[1].IsContainer)
}

func TestListPullRequestsDefaultsToActive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("searchCriteria.status"))
		assert.Empty(t, r.URL.Query().Get("$top"))
		writeJSON(w, map[string]any{"value": []any{}})
	})
	prs, err := c.ListPullRequests(context.Background(), "p", SearchCriteria{})
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestGetPullRequestDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/p/_apis/git/repositories/repo-1/pullrequests/5", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"pullRequestId": 5,
			"autoCompleteSetBy": {"id": "u1"},
			"lastMergeSourceCommit": {"commitId": "abc123", "committer": {"date": "2026-04-01T08:00:00Z"}}
		}`))
	})
	d, err := c.GetPullRequestDetails(context.Background(), "p", "repo-1", 5)
	require.NoError(t, err)
	assert.True(t, d.AutoComplete)
	assert.Equal(t, "abc123", d.LastCommitID)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), d.LastCommitAt)
}

func TestListThreadsWorkItemsLabels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/threads"):
			_, _ = w.Write([]byte(`{"value":[
				{"id":1,"status":"fixed","comments":[{"id":1,"author":{"id":"a"},"commentType":"text","publishedDate":"2026-01-01T00:00:00Z"}]},
				{"id":2,"comments":[{"id":1,"author":{"id":"b"},"commentType":"system"}]}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/workitems"):
			_, _ = w.Write([]byte(`{"value":[{"id":"1"},{"id":"2"},{"id":"3"}]}`))
		case strings.HasSuffix(r.URL.Path, "/labels"):
			assert.Equal(t, apiVersionPreview, r.URL.Query().Get("api-version"))
			_, _ = w.Write([]byte(`{"value":[{"id":"l1","name":"hotfix","active":true},{"id":"l2","name":"old","active":false}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	threads, err := c.ListThreads(ctx, "p", "r", 1)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, model.ThreadFixed, threads[0].Status)
	assert.True(t, threads[0].Comments[0].IsText)
	assert.False(t, threads[1].Comments[0].IsText)

	n, err := c.CountWorkItems(ctx, "p", "r", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	labels, err := c.ListLabels(ctx, "p", "r", 1)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "hotfix", labels[0].Name)
	assert.False(t, labels[1].Active)
}

func TestListPolicyEvaluations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/p/_apis/policy/evaluations", r.URL.Path)
		assert.Equal(t, "vstfs:///CodeReview/CodeReviewId/"+testProjectID+"/9", r.URL.Query().Get("artifactId"))
		_, _ = w.Write([]byte(`{"value":[
			{"evaluationId":"e1","status":"approved","configuration":{"isEnabled":true,"isBlocking":true,"type":{"displayName":"Minimum number of reviewers"}}},
			{"evaluationId":"e2","status":"running","configuration":{"isEnabled":true,"isBlocking":true,"type":{"displayName":"Build"},"settings":{"displayName":"CI build"}}}
		]}`))
	})
	policies, err := c.ListPolicyEvaluations(context.Background(), "p", testProjectID, 9)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "Minimum number of reviewers", policies[0].DisplayName)
	assert.True(t, policies[0].IsApproved())
	assert.Equal(t, "CI build", policies[1].DisplayName)
	assert.False(t, model.AllPoliciesOK(policies))
}

func TestArtifactID(t *testing.T) {
	id, err := ArtifactID(strings.ToUpper(testProjectID), 42)
	require.NoError(t, err)
	assert.Equal(t, "vstfs:///CodeReview/CodeReviewId/"+testProjectID+"/42", id)

	_, err = ArtifactID("not-a-guid", 1)
	assert.Error(t, err)
}

func TestConnectionDataAndProjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/org/_apis/connectionData":
			writeJSON(w, map[string]any{"authenticatedUser": map[string]any{"id": "me", "providerDisplayName": "Me"}})
		case "/org/_apis/projects":
			writeJSON(w, map[string]any{"value": []any{map[string]any{"id": testProjectID, "name": "p"}}})
		case "/org/p/_apis/git/repositories":
			writeJSON(w, map[string]any{"value": []any{map[string]any{"id": "r1", "name": "api", "project": map[string]any{"id": testProjectID, "name": "p"}}}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	user, err := c.ConnectionData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "me", user.ID)
	assert.Equal(t, "Me", user.DisplayName)

	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p", projects[0].Name)

	repos, err := c.ListRepositories(ctx, "p")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "api", repos[0].Name)
}

func TestAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/org/_apis/projects":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"TF400813: not authorized"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("gone"))
		}
	})
	ctx := context.Background()

	_, err := c.ListProjects(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "TF400813")

	_, err = c.ListRepositories(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "gone", apiErr.Message)
}

func TestBearerTokenAuth(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	valid := signedToken(t, now.Add(time.Hour))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]any{"value": []any{}})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, StaticToken(valid), Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	_, err = c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+valid, gotAuth)

	expired := signedToken(t, now.Add(-time.Minute))
	c, err = NewClient(srv.URL, StaticToken(expired), Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	gotAuth = ""
	_, err = c.ListProjects(context.Background())
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.Empty(t, gotAuth, "expired token must not be sent")
}

func TestTokenSourceError(t *testing.T) {
	c, err := NewClient("https://example.invalid", TokenFunc(func(context.Context) (string, error) {
		return "", errors.New("no session")
	}), Options{})
	require.NoError(t, err)
	_, err = c.ListProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session")
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"value": []any{}})
	})
	c.limiter = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListProjects(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
