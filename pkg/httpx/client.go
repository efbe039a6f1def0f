// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package httpx holds the outbound HTTP plumbing shared by the scanner,
// repository and assessment platform clients.
package httpx

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ClientOptions configures NewClient.
type ClientOptions struct {
	// Timeout bounds a whole request including the body read. Zero means none.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Scanners
	// commonly run with self-signed certificates.
	InsecureSkipVerify bool

	// Component names the client in logs and spans.
	Component string

	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// NewClient builds an *http.Client that traces every request with
// OpenTelemetry and logs method, URL, status and duration at debug level.
func NewClient(opts ClientOptions) *http.Client {
	base := opts.Transport
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed scanners
		}
		base = t
	}

	component := opts.Component
	if component == "" {
		component = "http"
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: otelhttp.NewTransport(
			&loggingTransport{next: base, component: component},
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return component + " " + r.Method
			}),
		),
	}
}

// loggingTransport logs each outbound request once it completes.
type loggingTransport struct {
	next      http.RoundTripper
	component string
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	evt := log.Debug().
		Str("component", t.component).
		Str("method", req.Method).
		Str("url", redactedURL(req)).
		Dur("duration", time.Since(start))
	if err != nil {
		evt.Err(err).Msg("HTTP request failed")
		return nil, err
	}
	evt.Int("status", resp.StatusCode).Msg("HTTP request")
	return resp, nil
}

// redactedURL drops the query string, which may carry filter values or refs
// but never needs to reach the logs.
func redactedURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
