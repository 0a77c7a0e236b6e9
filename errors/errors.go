package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clearsight-video/inspect-api/log"
	"github.com/xeipuuv/gojsonschema"
)

type APIError struct {
	Msg    string `json:"message"`
	Status int    `json:"status"`
	Err    error  `json:"-"`
}

func writeHttpError(w http.ResponseWriter, msg string, status int, err error) APIError {
	w.WriteHeader(status)

	var errorDetail string
	if err != nil {
		errorDetail = err.Error()
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg, "error_detail": errorDetail}); err != nil {
		log.LogNoRequestID("error writing HTTP error", "http_error_msg", msg, "error", err)
	}
	return APIError{msg, status, err}
}

// HTTP Errors
func WriteHTTPUnauthorized(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusUnauthorized, err)
}

func WriteHTTPBadRequest(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusBadRequest, err)
}

func WriteHTTPUnsupportedMediaType(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusUnsupportedMediaType, err)
}

func WriteHTTPNotFound(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusNotFound, err)
}

func WriteHTTPTooManyRequests(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusTooManyRequests, err)
}

func WriteHTTPConflict(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusConflict, err)
}

func WriteHTTPInternalServerError(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusInternalServerError, err)
}

func WriteHTTPBadBodySchema(where string, w http.ResponseWriter, errors []gojsonschema.ResultError) APIError {
	sb := strings.Builder{}
	sb.WriteString("Body validation error in ")
	sb.WriteString(where)
	sb.WriteString(" ")
	for i := 0; i < len(errors); i++ {
		sb.WriteString(errors[i].String())
		sb.WriteString(" ")
	}
	return writeHttpError(w, sb.String(), http.StatusBadRequest, nil)
}

// ErrorKind is the job-terminal error taxonomy a JobRecord's errorKind field
// is drawn from. Only these kinds, plus the synchronous submission/observation
// errors below, are surfaced to callers.
type ErrorKind string

const (
	SamplingError   ErrorKind = "SamplingError"
	InspectorFatal  ErrorKind = "InspectorFatal"
	FusionError     ErrorKind = "FusionError"
	WorkspaceError  ErrorKind = "WorkspaceError"
	Cancelled       ErrorKind = "Cancelled"
)

// PipelineError is a job-terminal error: it carries the kind recorded on the
// JobRecord plus an operator-facing detail string. The Orchestrator is the
// only writer of these onto a job record.
type PipelineError struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

func (e PipelineError) Unwrap() error {
	return e.cause
}

func NewPipelineError(kind ErrorKind, detail string, cause error) PipelineError {
	return PipelineError{Kind: kind, Detail: detail, cause: cause}
}

// IsPipelineError reports whether err is a PipelineError of the given kind.
func IsPipelineError(err error, kind ErrorKind) bool {
	var pe PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// RejectionReason enumerates why a submission was refused before any
// JobRecord was created.
type RejectionReason string

const (
	TooLarge     RejectionReason = "TooLarge"
	BadMIME      RejectionReason = "BadMIME"
	Overloaded   RejectionReason = "Overloaded"
	BadSubmission RejectionReason = "BadSubmission"
)

// RejectedError is returned synchronously to a submitter; no JobRecord
// exists for it.
type RejectedError struct {
	Reason RejectionReason
	Detail string
}

func (e RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("submission rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("submission rejected (%s)", e.Reason)
}

func NewRejectedError(reason RejectionReason, detail string) RejectedError {
	return RejectedError{Reason: reason, Detail: detail}
}

// NotFoundError means the JobId is unknown to the Job Store.
type NotFoundError struct {
	JobId string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobId)
}

// NotReadyError means the job exists but hasn't reached a terminal status.
type NotReadyError struct {
	JobId  string
	Status string
}

func (e NotReadyError) Error() string {
	return fmt.Sprintf("job %s not ready (status=%s)", e.JobId, e.Status)
}

// DuplicateJobError means insert was called with an already-known JobId.
type DuplicateJobError struct {
	JobId string
}

func (e DuplicateJobError) Error() string {
	return fmt.Sprintf("job already exists: %s", e.JobId)
}

// FailedError is returned from resultOf for a job that reached FAILED.
type FailedError struct {
	JobId  string
	Kind   ErrorKind
	Detail string
}

func (e FailedError) Error() string {
	return fmt.Sprintf("job %s failed (%s): %s", e.JobId, e.Kind, e.Detail)
}
