package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.github.com"

var (
	ErrNotFound    = errors.New("githubapi: not found")
	ErrRateLimited = errors.New("githubapi: rate limited or forbidden")
)

// UpstreamError reports a GitHub response that is neither success, 404 nor 403.
type UpstreamError struct {
	Status int
	Path   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("githubapi: unexpected status %d for %s", e.Status, e.Path)
}

// TreeEntry is one row of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// Client talks to the GitHub REST API. The underlying HTTP client is
// created lazily on first use and shared for the process lifetime;
// racing first callers collapse to a single creation.
type Client struct {
	Token   string
	BaseURL string

	mu   sync.Mutex
	http *http.Client
}

func NewClient(token string) *Client {
	return &Client{Token: token}
}

func (c *Client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	return c.http
}

// Close releases the shared connection. Safe to call before first use.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}
	return c.session().Do(req)
}

// FetchTree returns the full recursive tree of the repository's HEAD.
// An empty tree is a valid result; 404 and 403 map to the sentinel errors.
func (c *Client) FetchTree(ctx context.Context, owner, repo string) ([]TreeEntry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/git/trees/HEAD?recursive=1", c.baseURL(), owner, repo)
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("githubapi: fetch tree: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Tree []TreeEntry `json:"tree"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("githubapi: decode tree: %w", err)
		}
		return body.Tree, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: repository %s/%s", ErrNotFound, owner, repo)
	case http.StatusForbidden:
		return nil, fmt.Errorf("%w: repository %s/%s", ErrRateLimited, owner, repo)
	default:
		return nil, &UpstreamError{Status: resp.StatusCode, Path: owner + "/" + repo}
	}
}

// FetchFileContent returns the decoded content of one file. A missing file
// is not an error: 404 yields an empty string. The content field arrives
// base64-encoded and is charset-repaired so the result is always valid UTF-8.
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL(), owner, repo, escapePath(path))
	resp, err := c.get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("githubapi: fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("githubapi: decode %s: %w", path, err)
		}
		if body.Content == "" {
			return "", nil
		}
		raw, err := base64.StdEncoding.DecodeString(stripNewlines(body.Content))
		if err != nil {
			return "", fmt.Errorf("githubapi: base64 %s: %w", path, err)
		}
		return decodeText(raw), nil
	case http.StatusNotFound:
		return "", nil
	case http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", ErrRateLimited, path)
	default:
		return "", &UpstreamError{Status: resp.StatusCode, Path: path}
	}
}

// GitHub wraps base64 payloads at 60 columns.
func stripNewlines(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
