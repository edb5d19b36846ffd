// Package azdo is a small client for the Azure DevOps REST API covering
// projects, repositories, pull requests and their review metadata.
package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiVersion        = "7.1"
	apiVersionPreview = "7.1-preview.1"
	defaultTimeout    = 30 * time.Second
	maxErrorBody      = 4096
)

// Options configures a Client.
type Options struct {
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *zap.SugaredLogger
	// Now is used for token expiry checks; defaults to time.Now.
	Now func() time.Time
}

// Client is an HTTP client for one Azure DevOps organization.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.SugaredLogger
	now        func() time.Time
}

// NewClient creates a client for the organization at orgURL
// (for example https://dev.azure.com/contoso).
func NewClient(orgURL string, tokens TokenSource, opts Options) (*Client, error) {
	orgURL = strings.TrimRight(strings.TrimSpace(orgURL), "/")
	if _, err := url.ParseRequestURI(orgURL); err != nil || orgURL == "" {
		return nil, fmt.Errorf("invalid organization URL %q", orgURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	c := &Client{
		baseURL:    orgURL,
		tokens:     tokens,
		httpClient: opts.HTTPClient,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c, nil
}

// BaseURL returns the organization URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint builds an absolute API URL from escaped path segments and query values.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := authorize(req, token, c.now()); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debugw("azure devops request",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", req.URL.Path, err)
	}
	return nil
}

func newAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		apiErr.Message = eb.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func versionQuery(version string) url.Values {
	q := url.Values{}
	q.Set("api-version", version)
	return q
}
