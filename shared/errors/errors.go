package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AlreadySubmitted is the fixed message returned for duplicate submissions.
const AlreadySubmitted = "Already submitted"

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Headers    map[string]string // extra response headers, e.g. an auth challenge
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func Validation(format string, args ...any) error {
	return &ErrorWithStatusCode{Message: fmt.Sprintf(format, args...), StatusCode: http.StatusBadRequest}
}

func Conflict() error {
	return &ErrorWithStatusCode{Message: AlreadySubmitted, StatusCode: http.StatusConflict}
}

func NotFound(what string) error {
	return &ErrorWithStatusCode{Message: what + " not found", StatusCode: http.StatusNotFound}
}

// Unauthorized carries the challenge header the caller should retry with.
func Unauthorized(challenge string) error {
	e := &ErrorWithStatusCode{Message: "Unauthorized", StatusCode: http.StatusUnauthorized}
	if challenge != "" {
		e.Headers = map[string]string{"WWW-Authenticate": challenge}
	}
	return e
}

func Forbidden() error {
	return &ErrorWithStatusCode{Message: "Forbidden", StatusCode: http.StatusForbidden}
}

// IngestionError reports avatar frames that could not be fetched or decoded.
// It is surfaced to clients as a 400 naming the original URIs.
type IngestionError struct {
	URIs []string
}

func (e *IngestionError) Error() string {
	return "Could not process avatar frames: " + strings.Join(e.URIs, ", ")
}

func (e *IngestionError) StatusCode() int {
	return http.StatusBadRequest
}

// PageNotFound is returned by listings when the requested page is empty.
// PageCount is still reported so clients can tell an out-of-range page from an
// empty board.
type PageNotFound struct {
	PageCount int
}

func (e *PageNotFound) Error() string {
	return "Page does not exist"
}
