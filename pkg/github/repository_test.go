// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/scanbridge/pkg/importer"
)

// fakeGitHub serves a small repository through the contents API plus a raw
// download host on a separate server.
type fakeGitHub struct {
	api      *httptest.Server
	raw      *httptest.Server
	apiAuth  []string
	rawAuth  []string
	apiCalls int
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}

	f.raw = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.rawAuth = append(f.rawAuth, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, "raw:"+r.URL.Path)
	}))
	t.Cleanup(f.raw.Close)

	entry := func(typ, path string, size int) string {
		name := lastSegment(path)
		download := "null"
		if typ == "file" {
			download = strconv.Quote(f.raw.URL + "/acme/scans/main/" + path)
		}
		return fmt.Sprintf(`{"type":%q,"name":%q,"path":%q,"size":%d,"sha":"sha-%s","download_url":%s}`, typ, name, path, size, name, download)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/scans/contents/", func(w http.ResponseWriter, r *http.Request) {
		f.apiCalls++
		f.apiAuth = append(f.apiAuth, r.Header.Get("Authorization"))
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))

		switch r.URL.Path {
		case "/repos/acme/scans/contents/":
			_, _ = io.WriteString(w, "["+entry("file", "weekly.nessus", 2048)+","+entry("dir", "reports", 0)+","+entry("symlink", "link", 0)+","+entry("file", "README.md", 5)+"]")
		case "/repos/acme/scans/contents/reports":
			_, _ = io.WriteString(w, "["+entry("file", "reports/q1.csv", 300)+","+entry("dir", "reports/private", 0)+"]")
		case "/repos/acme/scans/contents/reports/private":
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"message":"Resource not accessible"}`)
		case "/repos/acme/scans/contents/reports/q1.csv":
			content := base64.StdEncoding.EncodeToString([]byte("host,severity\n"))
			_, _ = fmt.Fprintf(w, `{"type":"file","name":"q1.csv","path":"reports/q1.csv","encoding":"base64","content":%q}`, content)
		case "/repos/acme/scans/contents/big.nessus":
			_, _ = io.WriteString(w, `{"type":"file","name":"big.nessus","path":"big.nessus","encoding":"none","content":""}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
		}
	})
	f.api = httptest.NewServer(mux)
	t.Cleanup(f.api.Close)
	return f
}

func lastSegment(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

func (f *fakeGitHub) client(t *testing.T, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{BaseURL: f.api.URL, Token: token, RequestsPerSecond: 1000, Burst: 100, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestRepository_List(t *testing.T) {
	f := newFakeGitHub(t)
	repo := f.client(t, "").Repository("acme", "scans", "")

	entries, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, importer.DirectoryEntry{
		Name:            "weekly.nessus",
		Path:            "weekly.nessus",
		Type:            importer.EntryFile,
		Size:            2048,
		SHA:             "sha-weekly.nessus",
		DownloadLocator: f.raw.URL + "/acme/scans/main/weekly.nessus",
	}, entries[0])
	assert.Equal(t, importer.EntryDir, entries[1].Type)
	assert.Equal(t, "acme/scans@main", repo.String())

	_, err = repo.List(context.Background(), "missing")
	require.ErrorIs(t, err, importer.ErrNotFound)

	_, err = repo.List(context.Background(), "reports/private")
	require.ErrorIs(t, err, importer.ErrRejected)
}

func TestRepository_SearchSkipsForbiddenBranch(t *testing.T) {
	f := newFakeGitHub(t)
	repo := f.client(t, "").Repository("acme", "scans", "main")

	var suppressed []string
	found := slices.Collect(importer.Search(context.Background(), repo, "", importer.SearchOptions{
		Extensions:   []string{".nessus", ".csv"},
		Recursive:    true,
		OnSuppressed: func(dir string, _ error) { suppressed = append(suppressed, dir) },
	}))

	require.Len(t, found, 2)
	assert.Equal(t, "weekly.nessus", found[0].Path)
	assert.Equal(t, "reports/q1.csv", found[1].Path)
	assert.Equal(t, "csv", found[1].FileType)
	assert.Equal(t, []string{"reports/private"}, suppressed)
}

func TestRepository_FetchDirectDownload(t *testing.T) {
	f := newFakeGitHub(t)
	repo := f.client(t, "secret").Repository("acme", "scans", "main")

	data, err := repo.Fetch(context.Background(), f.raw.URL+"/acme/scans/main/weekly.nessus?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "raw:/acme/scans/main/weekly.nessus", string(data))

	// the raw server is neither the API host nor githubusercontent.com
	assert.Equal(t, []string{""}, f.rawAuth)
}

func TestRepository_FetchContentsAPI(t *testing.T) {
	f := newFakeGitHub(t)
	repo := f.client(t, "secret").Repository("acme", "scans", "main")

	data, err := repo.Fetch(context.Background(), "reports/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "host,severity\n", string(data))
	assert.Equal(t, []string{"Bearer secret"}, f.apiAuth)

	_, err = repo.Fetch(context.Background(), "big.nessus")
	require.ErrorIs(t, err, importer.ErrValidation)
	assert.Contains(t, err.Error(), `unsupported content encoding "none"`)

	_, err = repo.Fetch(context.Background(), "reports")
	require.ErrorIs(t, err, importer.ErrValidation)

	_, err = repo.Fetch(context.Background(), "nope.nessus")
	require.ErrorIs(t, err, importer.ErrNotFound)
}

func TestRepository_RateLimitFeedback(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t, "")

	_, err := c.Repository("acme", "scans", "main").List(context.Background(), "")
	require.NoError(t, err)
	assert.Less(t, c.rateLimiter.Limit(), 2.0)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "::not a url"})
	require.ErrorIs(t, err, importer.ErrValidation)
}

func TestListReleaseTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/vulntor/scanbridge/releases", r.URL.Path)
		_, _ = io.WriteString(w, `[{"tag_name":"v1.2.0"},{"tag_name":"v1.3.0-rc.1","draft":true},{"tag_name":"v1.1.0"}]`)
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	tags, err := c.ListReleaseTags(context.Background(), "vulntor", "scanbridge")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.2.0", "v1.1.0"}, tags)
}
