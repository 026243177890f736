package change

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

const githubSource = "github"

// GitHubDetector reads the newest commit SHA of a repository through the
// GitHub commits API.
type GitHubDetector struct {
	baseURL    string
	repository string
	branch     string
	token      string
	httpClient *http.Client
}

// GitHubOption configures a GitHubDetector.
type GitHubOption func(*GitHubDetector)

// WithGitHubBaseURL overrides the API root, e.g. for GitHub Enterprise.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(d *GitHubDetector) {
		d.baseURL = strings.TrimRight(u, "/")
	}
}

// WithGitHubBranch limits the listing to commits reachable from branch.
func WithGitHubBranch(branch string) GitHubOption {
	return func(d *GitHubDetector) {
		d.branch = branch
	}
}

// WithGitHubHTTPClient sets the HTTP client used for API calls.
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(d *GitHubDetector) {
		d.httpClient = c
	}
}

// NewGitHubDetector creates a detector for repository ("owner/name").
// token may be empty for public repositories.
func NewGitHubDetector(repository, token string, opts ...GitHubOption) (*GitHubDetector, error) {
	if strings.Count(repository, "/") != 1 || strings.HasPrefix(repository, "/") || strings.HasSuffix(repository, "/") {
		return nil, fmt.Errorf("repository must be in owner/name form, got %q", repository)
	}

	d := &GitHubDetector{
		baseURL:    DefaultGitHubAPI,
		repository: repository,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type commitEntry struct {
	SHA string `json:"sha"`
}

// Detect returns the SHA of the most recent commit.
func (d *GitHubDetector) Detect(ctx context.Context) (Token, error) {
	q := url.Values{}
	q.Set("per_page", "1")
	if d.branch != "" {
		q.Set("sha", d.branch)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/commits?%s", d.baseURL, d.repository, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", transient(githubSource, "failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if d.token != "" {
		req.Header.Set("Authorization", "token "+d.token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", transient(githubSource, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", transient(githubSource, "unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var commits []commitEntry
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return "", transient(githubSource, "failed to decode commit list: %w", err)
	}
	if len(commits) == 0 || commits[0].SHA == "" {
		return "", transient(githubSource, "repository %s has no commits", d.repository)
	}

	return Token(commits[0].SHA), nil
}
