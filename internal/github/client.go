// Package github implements the repository collaborator: directory listing,
// file fetch/create/update/delete against the GitHub contents API.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"a2aclient/internal/logging"
	"a2aclient/internal/types"
)

// ErrNotConfigured is returned when the token or repository is missing;
// callers surface it before any network call is attempted.
var ErrNotConfigured = errors.New("GitHub token or repository not configured.")

// Client calls the GitHub v3 REST API for a single configured repository.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the public GitHub API.
func NewClient() *Client {
	return &Client{
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint
// (used by tests).
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// FileContent is a decoded file plus the revision marker required to update
// or delete it.
type FileContent struct {
	Content string
	SHA     string
}

// ListContents returns the entries at path, directories first, then
// lexicographic by name.
func (c *Client) ListContents(ctx context.Context, keys types.APIKeys, path string) ([]types.RepoEntry, error) {
	body, err := c.do(ctx, keys, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var entries []types.RepoEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type == entries[j].Type {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Type == types.RepoDir
	})
	return entries, nil
}

// GetFile fetches and decodes one file, returning its content and revision
// marker. Only base64-encoded responses are supported.
func (c *Client) GetFile(ctx context.Context, keys types.APIKeys, path string) (FileContent, error) {
	body, err := c.do(ctx, keys, "GET", path, nil)
	if err != nil {
		return FileContent{}, err
	}

	var file struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		SHA      string `json:"sha"`
	}
	if err := json.Unmarshal(body, &file); err != nil {
		return FileContent{}, fmt.Errorf("failed to parse file response: %w", err)
	}
	if file.Encoding != "base64" {
		return FileContent{}, fmt.Errorf("unsupported file encoding: %s", file.Encoding)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return FileContent{}, fmt.Errorf("failed to decode file content: %w", err)
	}
	return FileContent{Content: string(decoded), SHA: file.SHA}, nil
}

// PutFile creates or updates a file. SHA must be the current revision marker
// for updates and empty for new files.
func (c *Client) PutFile(ctx context.Context, keys types.APIKeys, path, content, commitMessage, sha string) error {
	payload := map[string]string{
		"message": commitMessage,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	_, err := c.do(ctx, keys, "PUT", path, payload)
	return err
}

// DeleteFile removes a file at its current revision marker.
func (c *Client) DeleteFile(ctx context.Context, keys types.APIKeys, path, commitMessage, sha string) error {
	payload := map[string]string{
		"message": commitMessage,
		"sha":     sha,
	}
	_, err := c.do(ctx, keys, "DELETE", path, payload)
	return err
}

// do issues one contents-API request. Failures carry the remote service's
// message text when the response includes one.
func (c *Client) do(ctx context.Context, keys types.APIKeys, method, path string, payload interface{}) ([]byte, error) {
	if keys.GitHubToken == "" || keys.GitHubRepo == "" {
		return nil, ErrNotConfigured
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, keys.GitHubRepo, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+keys.GitHubToken)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			logging.Get(logging.CategoryGitHub).Error("%s %s failed: %s", method, path, errResp.Message)
			return nil, errors.New(errResp.Message)
		}
		return nil, fmt.Errorf("GitHub API error: %d", resp.StatusCode)
	}
	return body, nil
}
