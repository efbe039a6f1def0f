// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package nessus is a client for the scan and export endpoints of a Nessus
// scanner.
package nessus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulntor/scanbridge/pkg/httpx"
	"github.com/vulntor/scanbridge/pkg/importer"
)

// DefaultURL is the address of a scanner installed on the local host.
const DefaultURL = "https://localhost:8834"

// Options configures a Client.
type Options struct {
	URL       string
	AccessKey string
	SecretKey string

	// InsecureSkipVerify disables certificate checks; scanners usually ship
	// with a self-signed certificate.
	InsecureSkipVerify bool
	Timeout            time.Duration

	// HTTPClient overrides the client built from the options above.
	HTTPClient *http.Client
}

// Client talks to the scanner REST API. It implements importer.ScannerBackend.
type Client struct {
	baseURL    string
	apiKeys    string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     zerolog.Logger
}

var _ importer.ScannerBackend = (*Client)(nil)

// NewClient builds a Client. Both API keys are required.
func NewClient(opts Options) (*Client, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, importer.ValidationError("nessus", "access key and secret key are required")
	}
	base := strings.TrimRight(opts.URL, "/")
	if base == "" {
		base = DefaultURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.ClientOptions{
			Timeout:            opts.Timeout,
			InsecureSkipVerify: opts.InsecureSkipVerify,
			Component:          "nessus",
		})
	}

	return &Client{
		baseURL:    base,
		apiKeys:    fmt.Sprintf("accessKey=%s; secretKey=%s", opts.AccessKey, opts.SecretKey),
		httpClient: hc,
		tracer:     otel.Tracer("github.com/vulntor/scanbridge/pkg/nessus"),
		logger:     log.With().Str("component", "nessus").Logger(),
	}, nil
}

// Scan is one entry of the scan listing.
type Scan struct {
	ID                   int64  `json:"id" yaml:"id"`
	UUID                 string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name                 string `json:"name" yaml:"name"`
	Status               string `json:"status" yaml:"status"`
	FolderID             int64  `json:"folder_id,omitempty" yaml:"folder_id,omitempty"`
	Owner                string `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreationDate         int64  `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	LastModificationDate int64  `json:"last_modification_date,omitempty" yaml:"last_modification_date,omitempty"`
}

// Completed reports whether the scan finished.
func (s Scan) Completed() bool {
	return s.Status == "completed"
}

// ScanDetails is the decoded body of GET /scans/{id}.
type ScanDetails struct {
	Info  ScanDetailsInfo `json:"info" yaml:"info"`
	Hosts []Host          `json:"hosts,omitempty" yaml:"hosts,omitempty"`
}

// ScanDetailsInfo is the "info" block of a scan.
type ScanDetailsInfo struct {
	Name         string `json:"name" yaml:"name"`
	Status       string `json:"status" yaml:"status"`
	Targets      string `json:"targets,omitempty" yaml:"targets,omitempty"`
	PolicyName   string `json:"policy,omitempty" yaml:"policy,omitempty"`
	ScannerName  string `json:"scanner_name,omitempty" yaml:"scanner_name,omitempty"`
	HostCount    int    `json:"hostcount,omitempty" yaml:"hostcount,omitempty"`
	ScannerStart int64  `json:"scanner_start,omitempty" yaml:"scanner_start,omitempty"`
	ScannerEnd   int64  `json:"scanner_end,omitempty" yaml:"scanner_end,omitempty"`
}

// Host summarizes findings for one scanned host.
type Host struct {
	HostID   int64  `json:"host_id" yaml:"host_id"`
	Hostname string `json:"hostname" yaml:"hostname"`
	Critical int    `json:"critical" yaml:"critical"`
	High     int    `json:"high" yaml:"high"`
	Medium   int    `json:"medium" yaml:"medium"`
	Low      int    `json:"low" yaml:"low"`
	Info     int    `json:"info" yaml:"info"`
}

// ListScans returns every scan visible to the API keys.
func (c *Client) ListScans(ctx context.Context) ([]Scan, error) {
	ctx, span := c.tracer.Start(ctx, "nessus.list_scans")
	defer span.End()

	var body struct {
		Scans []Scan `json:"scans"`
	}
	if err := c.getJSON(ctx, "list scans", "/scans", &body); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("scan_count", len(body.Scans)))
	c.logger.Debug().Int("count", len(body.Scans)).Msg("scans listed")
	return body.Scans, nil
}

// GetScanDetails returns the full details of scanID.
func (c *Client) GetScanDetails(ctx context.Context, scanID int64) (*ScanDetails, error) {
	ctx, span := c.tracer.Start(ctx, "nessus.get_scan_details",
		trace.WithAttributes(attribute.Int64("scan_id", scanID)))
	defer span.End()

	var details ScanDetails
	if err := c.getJSON(ctx, "describe scan", fmt.Sprintf("/scans/%d", scanID), &details); err != nil {
		return nil, fail(span, err)
	}
	return &details, nil
}

// DescribeScan returns the name and status of scanID.
func (c *Client) DescribeScan(ctx context.Context, scanID int64) (importer.ScanInfo, error) {
	details, err := c.GetScanDetails(ctx, scanID)
	if err != nil {
		return importer.ScanInfo{}, err
	}
	return importer.ScanInfo{
		ID:     scanID,
		Name:   details.Info.Name,
		Status: details.Info.Status,
	}, nil
}

// RequestExport asks the scanner to prepare an export of scanID and returns
// the export file id.
func (c *Client) RequestExport(ctx context.Context, scanID int64, format string) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "nessus.request_export",
		trace.WithAttributes(
			attribute.Int64("scan_id", scanID),
			attribute.String("format", format),
		))
	defer span.End()

	payload, err := json.Marshal(map[string]string{"format": format})
	if err != nil {
		return 0, fail(span, importer.ValidationError("request export", "encode payload: %v", err))
	}

	var body struct {
		File any `json:"file"`
	}
	path := fmt.Sprintf("/scans/%d/export", scanID)
	if err := c.doJSON(ctx, "request export", http.MethodPost, path, bytes.NewReader(payload), &body); err != nil {
		return 0, fail(span, err)
	}

	fileID, err := cast.ToInt64E(body.File)
	if err != nil || fileID == 0 {
		return 0, fail(span, importer.TransportError("request export", fmt.Errorf("response has no usable file id: %v", body.File)))
	}
	span.SetAttributes(attribute.Int64("export_id", fileID))
	return fileID, nil
}

// ExportStatus returns the raw status string of an export, typically
// "loading" or "ready".
func (c *Client) ExportStatus(ctx context.Context, scanID, exportID int64) (string, error) {
	ctx, span := c.tracer.Start(ctx, "nessus.export_status",
		trace.WithAttributes(
			attribute.Int64("scan_id", scanID),
			attribute.Int64("export_id", exportID),
		))
	defer span.End()

	var body struct {
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/scans/%d/export/%d/status", scanID, exportID)
	if err := c.getJSON(ctx, "export status", path, &body); err != nil {
		return "", fail(span, err)
	}
	span.SetAttributes(attribute.String("status", body.Status))
	return body.Status, nil
}

// DownloadExport returns the bytes of a ready export.
func (c *Client) DownloadExport(ctx context.Context, scanID, exportID int64) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "nessus.download_export",
		trace.WithAttributes(
			attribute.Int64("scan_id", scanID),
			attribute.Int64("export_id", exportID),
		))
	defer span.End()

	path := fmt.Sprintf("/scans/%d/export/%d/download", scanID, exportID)
	resp, err := c.do(ctx, "download export", http.MethodGet, path, nil)
	if err != nil {
		return nil, fail(span, err)
	}
	data, err := httpx.ReadBody("download export", resp)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	return c.doJSON(ctx, op, http.MethodGet, path, nil, v)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body io.Reader, v any) error {
	resp, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	return httpx.DecodeJSON(op, resp, v)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, importer.ValidationError(op, "build request: %v", err)
	}
	req.Header.Set("X-ApiKeys", c.apiKeys)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return httpx.Do(c.httpClient, op, req)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
