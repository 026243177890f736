package surf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imamik/surfspot/internal/workspace"
)

// DefaultBaseURL is the production workspace collection endpoint.
const DefaultBaseURL = "https://gw.live.surfresearchcloud.nl/v1/workspace/workspaces/"

// mediaType is the vendor media type the gateway routes Compute
// workspaces by.
const mediaType = "application/json;Compute"

const maxErrorBody = 4096

// maxPages bounds FindByName against a gateway that keeps returning the
// same next link.
const maxPages = 100

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the workspace collection URL. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is sent verbatim in the authorization header.
	APIKey string

	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the workspace API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ workspace.Provider = (*Client)(nil)

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("surf: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("surf: invalid base URL %q: %w", baseURL, err)
	}
	baseURL = strings.TrimRight(baseURL, "/") + "/"

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Create submits the workspace request. The gateway provisions
// asynchronously, so the returned record usually has no address.
func (c *Client) Create(ctx context.Context, req workspace.Request) (*workspace.Record, error) {
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, &workspace.ProviderError{Op: "create", Err: fmt.Errorf("encode request: %w", err)}
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return nil, &workspace.ProviderError{Op: "create", Err: err}
	}
	if !accepted(status, http.StatusOK, http.StatusCreated, http.StatusAccepted) {
		return nil, &workspace.ProviderError{Op: "create", StatusCode: status, Body: truncate(body)}
	}

	c.logger.Info("workspace creation accepted", "name", req.Name, "status_code", status)

	var created workspaceSchema
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			c.logger.Warn("could not decode creation response", "name", req.Name, "error", err)
		}
	}
	if created.ID != "" {
		rec := created.record()
		if rec.Name == "" {
			rec.Name = req.Name
		}
		return rec, nil
	}

	// Some gateway versions acknowledge without echoing the document.
	rec, err := c.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &workspace.ProviderError{
			Op:         "create",
			StatusCode: status,
			Err:        fmt.Errorf("workspace %s accepted but not listed: %w", req.Name, workspace.ErrNotFound),
		}
	}
	return rec, nil
}

// Get reads a single workspace.
func (c *Client) Get(ctx context.Context, id string) (*workspace.Record, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.itemURL(id), nil)
	if err != nil {
		return nil, &workspace.ProviderError{Op: "get", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &workspace.ProviderError{Op: "get", StatusCode: status, Err: fmt.Errorf("workspace %s: %w", id, workspace.ErrNotFound)}
	}
	if !accepted(status, http.StatusOK) {
		return nil, &workspace.ProviderError{Op: "get", StatusCode: status, Body: truncate(body)}
	}

	var ws workspaceSchema
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, &workspace.ProviderError{Op: "get", StatusCode: status, Err: fmt.Errorf("decode workspace: %w", err)}
	}
	if ws.ID == "" {
		ws.ID = id
	}
	return ws.record(), nil
}

// FindByName walks the non-deleted Compute workspaces and returns the
// first whose name matches exactly, or nil when none does.
func (c *Client) FindByName(ctx context.Context, name string) (*workspace.Record, error) {
	q := url.Values{}
	q.Set("application_type", "Compute")
	q.Set("deleted", "false")
	next := c.baseURL + "?" + q.Encode()

	for page := 0; next != "" && page < maxPages; page++ {
		status, body, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, &workspace.ProviderError{Op: "list", Err: err}
		}
		if !accepted(status, http.StatusOK) {
			return nil, &workspace.ProviderError{Op: "list", StatusCode: status, Body: truncate(body)}
		}

		var list listSchema
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, &workspace.ProviderError{Op: "list", StatusCode: status, Err: fmt.Errorf("decode listing: %w", err)}
		}

		for _, ws := range list.Results {
			if ws.Name == name {
				return ws.record(), nil
			}
		}

		next = ""
		if list.Next != nil {
			next = *list.Next
		}
	}

	return nil, nil
}

// Delete removes a workspace.
func (c *Client) Delete(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return &workspace.ProviderError{Op: "delete", Err: err}
	}
	if status == http.StatusNotFound {
		return &workspace.ProviderError{Op: "delete", StatusCode: status, Err: fmt.Errorf("workspace %s: %w", id, workspace.ErrNotFound)}
	}
	if !accepted(status, http.StatusOK, http.StatusAccepted, http.StatusNoContent) {
		return &workspace.ProviderError{Op: "delete", StatusCode: status, Body: truncate(body)}
	}

	c.logger.Info("workspace deletion accepted", "workspace_id", id, "status_code", status)
	return nil
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + url.PathEscape(id) + "/"
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("accept", mediaType)
	req.Header.Set("authorization", c.apiKey)
	if payload != nil {
		req.Header.Set("content-type", mediaType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func accepted(status int, codes ...int) bool {
	for _, code := range codes {
		if status == code {
			return true
		}
	}
	return false
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
