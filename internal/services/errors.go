package services

import (
	"errors"
	"fmt"
)

// ErrorKind names the failure modes of the analysis pipeline. The first six
// are converted into a degraded analysis at the orchestrator boundary; the
// last two are logged and swallowed.
type ErrorKind string

const (
	ErrKindDownload         ErrorKind = "download_failed"
	ErrKindUploadStart      ErrorKind = "upload_start_failed"
	ErrKindUploadTransfer   ErrorKind = "upload_transfer_failed"
	ErrKindRemoteProcessing ErrorKind = "remote_processing_failed"
	ErrKindUploadTimeout    ErrorKind = "upload_timeout"
	ErrKindAnalysisParse    ErrorKind = "analysis_parse_failed"
	ErrKindPersistence      ErrorKind = "persistence_failed"
	ErrKindCleanup          ErrorKind = "cleanup_failed"
)

// PipelineError wraps a stage failure with its kind and, for HTTP failures,
// the upstream status code.
type PipelineError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *PipelineError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func pipelineErr(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

func pipelineStatusErr(kind ErrorKind, status int, err error) *PipelineError {
	return &PipelineError{Kind: kind, StatusCode: status, Err: err}
}

// KindOf extracts the pipeline error kind, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
