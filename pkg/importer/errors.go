// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by a backend or by the engine matches
// exactly one of these through errors.Is.
var (
	// ErrTransport covers network failures, 5xx responses and malformed bodies.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout means the export poll loop exhausted its attempt budget.
	ErrTimeout = errors.New("export timed out")

	// ErrValidation covers malformed identifiers, unsupported content
	// encodings and invalid repository locators.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the backend reported an unknown scan, assessment or path.
	ErrNotFound = errors.New("not found")

	// ErrRejected means the backend refused the request (4xx other than 404).
	ErrRejected = errors.New("request rejected")
)

// Error annotates an error kind with the operation that produced it and,
// for HTTP failures, the response status.
type Error struct {
	Op         string
	Kind       error
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error. A nil kind defaults to ErrTransport.
func NewError(op string, kind error, status int, err error) error {
	if kind == nil {
		kind = ErrTransport
	}
	return &Error{Op: op, Kind: kind, StatusCode: status, Err: err}
}

// TransportError wraps err as a transport failure of op.
func TransportError(op string, err error) error {
	return NewError(op, ErrTransport, 0, err)
}

// ValidationError reports invalid input for op.
func ValidationError(op, format string, args ...any) error {
	return NewError(op, ErrValidation, 0, fmt.Errorf(format, args...))
}

// NotFoundError reports an unknown resource for op.
func NotFoundError(op, format string, args ...any) error {
	return NewError(op, ErrNotFound, 0, fmt.Errorf(format, args...))
}

// ExportTimeoutError is returned when an export never reports "ready"
// within the attempt budget. The export is abandoned, not cancelled.
type ExportTimeoutError struct {
	ScanID   int64
	ExportID int64
	Attempts int
}

func (e *ExportTimeoutError) Error() string {
	return fmt.Sprintf("export %d of scan %d not ready after %d status checks", e.ExportID, e.ScanID, e.Attempts)
}

func (e *ExportTimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// StepError names the orchestrator step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the orchestrator step recorded in err, if any.
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}

// Error codes used by the CLI suggestion system.
const (
	errorCodeValidation = "VALIDATION_FAILED"
	errorCodeNotFound   = "NOT_FOUND"
	errorCodeTransport  = "TRANSPORT_FAILURE"
	errorCodeTimeout    = "EXPORT_TIMEOUT"
	errorCodeRejected   = "REQUEST_REJECTED"
	errorCodeImport     = "IMPORT_FAILURE"
)

// codedError wraps an error with an explicit error code.
type codedError struct {
	error
	code string
}

func (e *codedError) Unwrap() error {
	return e.error
}

func (e *codedError) Code() string {
	return e.code
}

// WithErrorCode wraps err with a specific CLI error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

// ErrorCode resolves an import error into a CLI error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrValidation):
		return errorCodeValidation
	case errors.Is(err, ErrNotFound):
		return errorCodeNotFound
	case errors.Is(err, ErrTimeout):
		return errorCodeTimeout
	case errors.Is(err, ErrRejected):
		return errorCodeRejected
	case errors.Is(err, ErrTransport):
		return errorCodeTransport
	}
	return errorCodeImport
}

// ExitCode maps import errors to CLI exit codes:
//   - 0: success
//   - 1: general failure (rejected upload, export timeout, unknown)
//   - 2: invalid input
//   - 4: not found
//   - 7: backend unreachable
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeValidation:
		return 2
	case errorCodeNotFound:
		return 4
	case errorCodeTransport:
		return 7
	default:
		return 1
	}
}

// Suggestions provides CLI hints for import errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeValidation:
		return []string{
			"Assessment IDs are UUIDs:   scanbridge list-assessments",
			"Dates use YYYY-MM-DD:       --effective-date 2025-01-15",
		}
	case errorCodeNotFound:
		return []string{
			"List available scans:       scanbridge list-scans",
			"List assessments:           scanbridge list-assessments",
		}
	case errorCodeTimeout:
		return []string{
			"Allow more status checks:   --export.max_attempts 60",
			"Poll less often:            --export.poll_interval 5s",
		}
	case errorCodeRejected:
		return []string{
			"Check API credentials:      SCANBRIDGE_PARAMIFY_API_KEY, SCANBRIDGE_NESSUS_ACCESS_KEY",
			"Inspect the request:        scanbridge <command> --log.level debug",
		}
	case errorCodeTransport:
		return []string{
			"Check backend URLs:         --nessus.url, --paramify.base_url",
			"Retry with verbose logs:    scanbridge <command> --log.level debug",
		}
	default:
		return []string{
			"Retry with verbose logs:    scanbridge <command> --log.level debug",
		}
	}
}
