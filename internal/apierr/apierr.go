// Package apierr classifies failures from external calls and decides
// retry behavior. Classification is content-based: it happens once, at
// the boundary where the call failed, from the error text and any HTTP
// status embedded in it.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the error taxonomy for external-call failures.
type Kind string

const (
	KindAuth              Kind = "auth"
	KindPermission        Kind = "permission"
	KindConnection        Kind = "connection"
	KindDataFormat        Kind = "data_format"
	KindState             Kind = "state"
	KindIncompleteData    Kind = "incomplete_data"
	KindRateLimit         Kind = "rate_limit"
	KindPublisherNotFound Kind = "publisher_not_found"
	KindUnknown           Kind = "unknown"
)

// Error is a classified external failure: a short user-facing title and
// message, with the technical cause kept for logs only.
type Error struct {
	Kind    Kind
	Title   string
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a classified error with an explicit kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Title: titleFor(kind), Message: message, cause: cause}
}

// Classify wraps err with the kind inferred from its text and the HTTP
// status, if any. Already-classified errors pass through unchanged.
func Classify(err error, status int) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	kind := kindFor(err.Error(), status)
	return &Error{
		Kind:    kind,
		Title:   titleFor(kind),
		Message: err.Error(),
		Status:  status,
		cause:   err,
	}
}

// KindOf returns the classified kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

func kindFor(msg string, status int) Kind {
	lower := strings.ToLower(msg)

	switch {
	case status == 401 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "api key") || strings.Contains(lower, "authentication"):
		return KindAuth
	case status == 403 || strings.Contains(lower, "forbidden") ||
		strings.Contains(lower, "permission"):
		return KindPermission
	case status == 429 || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests"):
		return KindRateLimit
	case status == 404 && strings.Contains(lower, "publisher"):
		return KindPublisherNotFound
	case strings.Contains(lower, "publisher not found"):
		return KindPublisherNotFound
	case strings.Contains(lower, "connection") || strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "network") || strings.Contains(lower, "temporary failure") ||
		(status >= 500 && status < 600):
		return KindConnection
	case strings.Contains(lower, "unmarshal") || strings.Contains(lower, "parse") ||
		strings.Contains(lower, "invalid json") || strings.Contains(lower, "unexpected end"):
		return KindDataFormat
	default:
		return KindUnknown
	}
}

func titleFor(kind Kind) string {
	switch kind {
	case KindAuth:
		return "Authentication Error"
	case KindPermission:
		return "Permission Denied"
	case KindConnection:
		return "Connection Error"
	case KindDataFormat:
		return "Data Format Error"
	case KindState:
		return "State Error"
	case KindIncompleteData:
		return "Incomplete Data"
	case KindRateLimit:
		return "Rate Limit Exceeded"
	case KindPublisherNotFound:
		return "Publisher Not Found"
	default:
		return "Unexpected Error"
	}
}
