package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a2aclient/internal/types"
)

var testKeys = types.APIKeys{GitHubToken: "ghp_test", GitHubRepo: "owner/repo"}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL(srv.URL)
}

func TestNotConfigured(t *testing.T) {
	c := NewClient()

	_, err := c.ListContents(context.Background(), types.APIKeys{}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.GetFile(context.Background(), types.APIKeys{GitHubToken: "t"}, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = c.PutFile(context.Background(), types.APIKeys{GitHubRepo: "o/r"}, "x", "c", "m", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestListContentsSortsDirsFirst(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/contents/src", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		json.NewEncoder(w).Encode([]types.RepoEntry{
			{Name: "zeta.go", Type: types.RepoFile},
			{Name: "alpha", Type: types.RepoDir},
			{Name: "beta.go", Type: types.RepoFile},
			{Name: "vendor", Type: types.RepoDir},
		})
	})

	entries, err := c.ListContents(context.Background(), testKeys, "src")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "vendor", entries[1].Name)
	assert.Equal(t, "beta.go", entries[2].Name)
	assert.Equal(t, "zeta.go", entries[3].Name)
}

func TestGetFileDecodesBase64(t *testing.T) {
	// GitHub wraps base64 payloads with newlines.
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))
	wrapped := encoded[:4] + "\n" + encoded[4:]

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content":  wrapped,
			"encoding": "base64",
			"sha":      "abc123",
		})
	})

	file, err := c.GetFile(context.Background(), testKeys, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", file.Content)
	assert.Equal(t, "abc123", file.SHA)
}

func TestGetFileRejectsUnknownEncoding(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "x", "encoding": "none"})
	})

	_, err := c.GetFile(context.Background(), testKeys, "big.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file encoding")
}

func TestPutFileIncludesSHAOnlyForUpdates(t *testing.T) {
	var payloads []map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		var p map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.PutFile(context.Background(), testKeys, "new.txt", "hello", "add file", ""))
	require.NoError(t, c.PutFile(context.Background(), testKeys, "old.txt", "hello", "update file", "sha1"))

	require.Len(t, payloads, 2)
	_, hasSHA := payloads[0]["sha"]
	assert.False(t, hasSHA)
	assert.Equal(t, "add file", payloads[0]["message"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), payloads[0]["content"])
	assert.Equal(t, "sha1", payloads[1]["sha"])
}

func TestDeleteFile(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		var p map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "remove file", p["message"])
		assert.Equal(t, "sha9", p["sha"])
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.DeleteFile(context.Background(), testKeys, "gone.txt", "remove file", "sha9"))
}

func TestRemoteErrorMessageSurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.GetFile(context.Background(), testKeys, "missing.txt")
	require.Error(t, err)
	assert.Equal(t, "Not Found", err.Error())
}
