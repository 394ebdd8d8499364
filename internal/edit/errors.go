// Package edit implements the edit operation set: pure, validated transforms
// over a timeline.Project working copy. Operations fail closed: on error the
// model is unchanged and callers never need compensating logic.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avharness/cutline/internal/timeline"
)

// Code classifies an edit failure. Codes are stable and part of the dispatch
// contract; only IO_ERROR is retryable without changed input.
type Code string

// Error codes.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAmbiguousReference Code = "AMBIGUOUS_REFERENCE"
	CodeOverlap            Code = "OVERLAP"
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeLocked             Code = "LOCKED"
	CodeTxnInProgress      Code = "TRANSACTION_IN_PROGRESS"
	CodeIO                 Code = "IO_ERROR"
)

// Error is the structured failure returned by every resolver, operation, and
// transaction call. Candidates is populated for AMBIGUOUS_REFERENCE so
// callers can present every match instead of silently picking one.
type Error struct {
	Code       Code
	Message    string
	Candidates []string
	cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("%s: %s (candidates: %s)", e.Code, e.Message, strings.Join(e.Candidates, ", "))
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether retrying the same call can succeed. Only
// collaborator-originated transient failures qualify; logical errors never
// do without changed input.
func (e *Error) Retryable() bool {
	return e.Code == CodeIO
}

// Errorf builds a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a coded error around a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Ambiguous builds an AMBIGUOUS_REFERENCE error listing every candidate.
func Ambiguous(selector string, candidates []string) *Error {
	return &Error{
		Code:       CodeAmbiguousReference,
		Message:    fmt.Sprintf("selector %q matches multiple targets", selector),
		Candidates: candidates,
	}
}

// CodeOf extracts the code from an error chain, defaulting to INVALID_INPUT
// for untyped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInvalidInput
}

// FromModel maps the model package's sentinel errors onto coded errors.
func FromModel(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, timeline.ErrNotFound):
		return Wrap(CodeNotFound, err, "%v", err)
	case errors.Is(err, timeline.ErrOverlap):
		return Wrap(CodeOverlap, err, "%v", err)
	case errors.Is(err, timeline.ErrLocked):
		return Wrap(CodeLocked, err, "%v", err)
	default:
		return Wrap(CodeInvalidInput, err, "%v", err)
	}
}
