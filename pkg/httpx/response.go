// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vulntor/scanbridge/pkg/importer"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// Do sends req with client and classifies the outcome. A network failure is
// a transport error; a non-2xx status is converted by CheckResponse. On
// success the caller owns resp.Body.
func Do(client *http.Client, op string, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, importer.TransportError(op, err)
	}
	if err := CheckResponse(op, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckResponse returns nil for 2xx responses. Otherwise it drains and closes
// the body and returns an error of the matching kind: 404 is not found, other
// 4xx statuses are rejections and everything else is a transport failure.
func CheckResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := fmt.Errorf("%s", strings.TrimSpace(string(snippet)))
	if len(snippet) == 0 {
		detail = fmt.Errorf("%s", http.StatusText(resp.StatusCode))
	}
	return importer.NewError(op, StatusKind(resp.StatusCode), resp.StatusCode, detail)
}

// StatusKind maps an HTTP status to an importer error kind.
func StatusKind(status int) error {
	switch {
	case status == http.StatusNotFound:
		return importer.ErrNotFound
	case status >= 400 && status < 500:
		return importer.ErrRejected
	default:
		return importer.ErrTransport
	}
}

// DecodeJSON decodes the body of resp into v and closes it. A malformed body
// is a transport error.
func DecodeJSON(op string, resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return importer.NewError(op, importer.ErrTransport, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// ReadBody reads and closes the body of resp.
func ReadBody(op string, resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, importer.TransportError(op, fmt.Errorf("read body: %w", err))
	}
	return data, nil
}
