// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package paramify is a client for the assessment and intake endpoints of the
// Paramify platform.
package paramify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulntor/scanbridge/pkg/httpx"
	"github.com/vulntor/scanbridge/pkg/importer"
)

// DefaultBaseURL is the staging API.
const DefaultBaseURL = "https://stage.paramify.com/api/v0"

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the client built from the options above.
	HTTPClient *http.Client
}

// Client talks to the platform API. It implements importer.ArtifactUploader.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     zerolog.Logger
}

var _ importer.ArtifactUploader = (*Client)(nil)

// NewClient builds a Client. The API key is required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, importer.ValidationError("paramify", "api key is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.ClientOptions{
			Timeout:   opts.Timeout,
			Component: "paramify",
		})
	}

	return &Client{
		baseURL:    base,
		apiKey:     opts.APIKey,
		httpClient: hc,
		tracer:     otel.Tracer("github.com/vulntor/scanbridge/pkg/paramify"),
		logger:     log.With().Str("component", "paramify").Logger(),
	}, nil
}

// Assessment is one assessment as returned by the API.
type Assessment struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// TypeDisplay renders the assessment type for humans:
// VULNERABILITY_SCAN becomes "Vulnerability Scan".
func (a Assessment) TypeDisplay() string {
	if a.Type == "" {
		return "Unknown"
	}
	words := strings.Fields(strings.ReplaceAll(a.Type, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// ListAssessments returns the assessments matching filter. Keys and values
// are passed through as query parameters.
func (c *Client) ListAssessments(ctx context.Context, filter map[string]string) ([]Assessment, error) {
	ctx, span := c.tracer.Start(ctx, "paramify.list_assessments",
		trace.WithAttributes(attribute.Int("filter_count", len(filter))))
	defer span.End()

	query := url.Values{}
	for k, v := range filter {
		query.Set(k, v)
	}
	path := "/assessment"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body struct {
		Assessments []Assessment `json:"assessments"`
	}
	if err := c.getJSON(ctx, "list assessments", path, &body); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("assessment_count", len(body.Assessments)))
	return body.Assessments, nil
}

// GetAssessment returns a single assessment.
func (c *Client) GetAssessment(ctx context.Context, assessmentID string) (*Assessment, error) {
	ctx, span := c.tracer.Start(ctx, "paramify.get_assessment",
		trace.WithAttributes(attribute.String("assessment_id", assessmentID)))
	defer span.End()

	id, err := ParseAssessmentID(assessmentID)
	if err != nil {
		return nil, fail(span, err)
	}

	var a Assessment
	if err := c.getJSON(ctx, "get assessment", "/assessment/"+id, &a); err != nil {
		return nil, fail(span, err)
	}
	return &a, nil
}

// ParseAssessmentID checks that id is a UUID and returns its canonical form.
func ParseAssessmentID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", importer.ValidationError("assessment", "%q is not a valid assessment id: %v", id, err)
	}
	return parsed.String(), nil
}

// ContentTypeFor picks the intake content type from the file suffix.
func ContentTypeFor(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return "text/csv"
	case strings.HasSuffix(lower, ".json"):
		return "application/json"
	case strings.HasSuffix(lower, ".xml"), strings.HasSuffix(lower, ".nessus"):
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// UploadIntake attaches req.Content to the intake of an assessment. The
// request is sent exactly once and is never retried: the platform creates a
// new artifact per call.
func (c *Client) UploadIntake(ctx context.Context, req importer.UploadRequest) (importer.UploadResult, error) {
	ctx, span := c.tracer.Start(ctx, "paramify.upload_intake",
		trace.WithAttributes(
			attribute.String("assessment_id", req.AssessmentID),
			attribute.String("filename", req.Filename),
			attribute.Int("bytes", len(req.Content)),
		))
	defer span.End()

	id, err := ParseAssessmentID(req.AssessmentID)
	if err != nil {
		return importer.UploadResult{}, fail(span, err)
	}
	if req.Filename == "" {
		return importer.UploadResult{}, fail(span, importer.ValidationError("upload intake", "filename is required"))
	}

	body, contentType, err := encodeIntake(req)
	if err != nil {
		return importer.UploadResult{}, fail(span, err)
	}

	c.logger.Info().Str("assessment_id", id).Str("file", req.Filename).Msg("uploading intake")

	resp, err := c.do(ctx, "upload intake", http.MethodPost, "/assessment/"+id+"/intake", body, contentType)
	if err != nil {
		return importer.UploadResult{}, fail(span, err)
	}

	var out struct {
		Artifacts []struct {
			ID               string `json:"id"`
			OriginalFileName string `json:"originalFileName"`
			EffectiveDate    string `json:"effectiveDate"`
		} `json:"artifacts"`
	}
	if err := httpx.DecodeJSON("upload intake", resp, &out); err != nil {
		return importer.UploadResult{}, fail(span, err)
	}

	if len(out.Artifacts) == 0 {
		c.logger.Warn().Str("assessment_id", id).Msg("intake accepted but no artifact returned")
		return importer.UploadResult{}, nil
	}
	a := out.Artifacts[0]
	span.SetAttributes(attribute.String("artifact_id", a.ID))
	return importer.UploadResult{
		ArtifactID:       a.ID,
		OriginalFileName: a.OriginalFileName,
		EffectiveDate:    a.EffectiveDate,
	}, nil
}

// ArtifactMetadata returns the metadata sent with an upload: a copy of
// metadata with effectiveDate set when given.
func ArtifactMetadata(metadata map[string]any, effectiveDate string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	maps.Copy(out, metadata)
	if effectiveDate != "" {
		out["effectiveDate"] = effectiveDate
	}
	return out
}

// encodeIntake builds the two-part multipart body: the scan bytes as "file"
// and the artifact metadata as an "artifact" JSON file part.
func encodeIntake(req importer.UploadRequest) (io.Reader, string, error) {
	artifact, err := json.Marshal(ArtifactMetadata(req.Metadata, req.EffectiveDate))
	if err != nil {
		return nil, "", importer.ValidationError("upload intake", "encode artifact metadata: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := writeFilePart(mw, "file", req.Filename, ContentTypeFor(req.Filename), req.Content); err != nil {
		return nil, "", err
	}
	if err := writeFilePart(mw, "artifact", "artifact.json", "application/json", artifact); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", importer.ValidationError("upload intake", "close multipart body: %v", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	w, err := mw.CreatePart(h)
	if err != nil {
		return importer.ValidationError("upload intake", "create %s part: %v", field, err)
	}
	if _, err := w.Write(data); err != nil {
		return importer.ValidationError("upload intake", "write %s part: %v", field, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return httpx.DecodeJSON(op, resp, v)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, importer.ValidationError(op, "build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return httpx.Do(c.httpClient, op, req)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
