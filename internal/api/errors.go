package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// SessionExpiredMessage is the message carried by the error returned when a 401 could not be
// recovered through a token refresh.
const SessionExpiredMessage = "Session expired"

// Kind classifies every error returned by the client. The set is closed: callers can switch
// over it exhaustively.
type Kind int

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	// KindTransport covers failures that never produced an HTTP status: network errors,
	// cancelled contexts, malformed response bodies and token store I/O.
	KindTransport
	// KindUnauthorized is the expired-session outcome after the refresh path was exhausted.
	KindUnauthorized
	// KindApplication covers every other non-2xx response, including a 401 returned by the
	// retried request or by an endpoint that does not require authentication.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindApplication:
		return "application"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a non-2xx HTTP outcome. Message holds the raw response body, or
// SessionExpiredMessage for an unrecoverable 401.
type Error struct {
	Status  int
	Message string

	sessionExpired bool
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Kind reports KindUnauthorized for an expired session and KindApplication otherwise.
func (e *Error) Kind() Kind {
	if e.sessionExpired {
		return KindUnauthorized
	}
	return KindApplication
}

// Detail extracts a human readable message from the backend's JSON error bodies
// ({"error": "..."}, {"message": "..."} or {"errors": {"field": "..."}}), falling back to
// the raw body.
func (e *Error) Detail() string {
	var body struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(e.Message), &body); err != nil {
		return strings.TrimSpace(e.Message)
	}

	if len(body.Errors) > 0 {
		fields := make([]string, 0, len(body.Errors))
		for field := range body.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, field+": "+body.Errors[field])
		}
		return strings.Join(parts, "; ")
	}
	if body.Error != "" {
		return body.Error
	}
	if body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(e.Message)
}

func newSessionExpired() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: SessionExpiredMessage, sessionExpired: true}
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return KindTransport
}

// IsSessionExpired reports whether err is the expired-session outcome.
func IsSessionExpired(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
