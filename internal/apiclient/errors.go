package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP Kind = iota + 1
	// KindTransport means no usable response arrived.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "HTTP request failed"
	case KindTransport:
		return "network error"
	default:
		return "request failed"
	}
}

var (
	// ErrUnauthorized matches any 401 response via errors.Is.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotSignedIn is returned before sending a request that needs a token.
	ErrNotSignedIn = errors.New("sign in required")
)

// Error is the single failure type returned by Client.
type Error struct {
	Kind      Kind
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Message != "" {
			return fmt.Sprintf("%s: %d: %s", e.Kind, e.Status, e.Message)
		}
		return fmt.Sprintf("%s: %d", e.Kind, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Method, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Method, e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Kind == KindHTTP && e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns a human-readable string for err, suitable for inline error
// text or a toast.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindHTTP && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// detailMessage pulls a server supplied message out of an error body.
// Bodies look like {"detail": "..."} or {"detail": [{"msg": "..."}]} or {"error": "..."}.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	if len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
