// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package github reads scan files out of GitHub repositories through the
// REST contents API.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v28/github"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulntor/scanbridge/pkg/httpx"
	"github.com/vulntor/scanbridge/pkg/importer"
)

const (
	// DefaultBaseURL is the public GitHub API.
	DefaultBaseURL = "https://api.github.com/"

	apiVersion = "2022-11-28"
	mediaType  = "application/vnd.github+json"
)

// GitHub allows 5000 authenticated requests per hour; start a little below
// that and let response headers retune the limiter.
const (
	DefaultRequestsPerSecond = 1.25
	DefaultBurst             = 5
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	RequestsPerSecond float64
	Burst             int

	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client wraps the go-github client with rate limiting, tracing and error
// classification.
type Client struct {
	gh          *gh.Client
	rateLimiter *httpx.RateLimiter
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewClient builds a Client. A token is optional for public repositories.
func NewClient(opts Options) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return nil, importer.ValidationError("github", "invalid base url %q", opts.BaseURL)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	hc := httpx.NewClient(httpx.ClientOptions{
		Timeout:   opts.Timeout,
		Component: "github",
		Transport: &authTransport{
			next:    baseTransport(opts.Transport),
			token:   opts.Token,
			apiHost: baseURL.Host,
		},
	})

	client := gh.NewClient(hc)
	client.BaseURL = baseURL

	return &Client{
		gh:          client,
		rateLimiter: httpx.NewRateLimiter(rps, burst),
		tracer:      otel.Tracer("github.com/vulntor/scanbridge/pkg/github"),
		logger:      log.With().Str("component", "github").Logger(),
	}, nil
}

func baseTransport(rt http.RoundTripper) http.RoundTripper {
	if rt != nil {
		return rt
	}
	return http.DefaultTransport
}

// authTransport sets the API version headers and, for the API host and raw
// content hosts only, the bearer token.
type authTransport struct {
	next    http.RoundTripper
	token   string
	apiHost string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if req.URL.Host == t.apiHost {
		req.Header.Set("Accept", mediaType)
	}
	if t.token != "" && t.trusted(req.URL.Host) {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.next.RoundTrip(req)
}

func (t *authTransport) trusted(host string) bool {
	return host == t.apiHost || strings.HasSuffix(host, ".githubusercontent.com")
}

// Repository returns a backend bound to one repository at ref.
func (c *Client) Repository(owner, repo, ref string) *Repository {
	if ref == "" {
		ref = DefaultRef
	}
	return &Repository{client: c, owner: owner, repo: repo, ref: ref}
}

// getContents calls the contents API for path at ref.
func (c *Client) getContents(ctx context.Context, owner, repo, path, ref string) (*gh.RepositoryContent, []*gh.RepositoryContent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	c.updateRateLimits(resp)
	if err != nil {
		return nil, nil, translateError("get contents "+owner+"/"+repo+"/"+path, err)
	}
	return file, dir, nil
}

// download fetches an absolute URL through the same client.
func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	req, err := c.gh.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, importer.ValidationError("download", "invalid download url %q: %v", rawURL, err)
	}
	var buf bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &buf)
	c.updateRateLimits(resp)
	if err != nil {
		return nil, translateError("download "+redact(rawURL), err)
	}
	return buf.Bytes(), nil
}

// updateRateLimits retunes the limiter from the quota GitHub reports.
func (c *Client) updateRateLimits(resp *gh.Response) {
	if resp == nil {
		return
	}
	c.rateLimiter.UpdateFromQuota(resp.Rate.Remaining, resp.Rate.Limit, resp.Rate.Reset.Time)
}

// translateError maps go-github errors onto importer error kinds.
func translateError(op string, err error) error {
	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
		urlErr   *url.Error
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.As(err, &rateErr):
		return importer.NewError(op, importer.ErrRejected, statusOf(rateErr.Response), fmt.Errorf("rate limit exceeded, resets at %s", rateErr.Rate.Reset.Time.Format(time.RFC3339)))
	case errors.As(err, &abuseErr):
		return importer.NewError(op, importer.ErrRejected, statusOf(abuseErr.Response), errors.New(abuseErr.Message))
	case errors.As(err, &respErr):
		status := statusOf(respErr.Response)
		return importer.NewError(op, httpx.StatusKind(status), status, errors.New(respErr.Message))
	case errors.As(err, &urlErr):
		return importer.TransportError(op, urlErr.Err)
	default:
		return importer.TransportError(op, err)
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// redact strips query parameters, which carry tokens on private raw URLs.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func repoAttrs(owner, repo, ref string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("owner", owner),
		attribute.String("repo", repo),
		attribute.String("ref", ref),
	)
}

// ListReleaseTags returns the tag names of the most recent releases of
// owner/repo, newest first.
func (c *Client) ListReleaseTags(ctx context.Context, owner, repo string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "github.list_release_tags", repoAttrs(owner, repo, ""))
	defer span.End()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fail(span, fmt.Errorf("rate limiter wait: %w", err))
	}
	releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, &gh.ListOptions{PerPage: 30})
	c.updateRateLimits(resp)
	if err != nil {
		return nil, fail(span, translateError("list releases "+owner+"/"+repo, err))
	}

	tags := make([]string, 0, len(releases))
	for _, r := range releases {
		if r.GetDraft() {
			continue
		}
		tags = append(tags, r.GetTagName())
	}
	return tags, nil
}
