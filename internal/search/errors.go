package search

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify an error returned by this package.
var (
	// ErrNoBackends means no backend could be selected at all.
	ErrNoBackends = errors.New("no search backends available")
	// ErrNotConfigured means a backend is missing its credentials.
	ErrNotConfigured = errors.New("not configured")
	// ErrTransport covers network failures, timeouts and non-success HTTP status.
	ErrTransport = errors.New("transport failure")
	// ErrParse means a provider response could not be interpreted.
	ErrParse = errors.New("parse failure")
	// ErrUpstreamData means the provider answered but without usable data.
	ErrUpstreamData = errors.New("upstream data error")
	// ErrInvalidInput means the request itself was rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited is the retryable subset of provider errors.
	ErrRateLimited = errors.New("rate limited")
)

// Error is the error type returned by backends and the registry.
type Error struct {
	Backend string
	Kind    error
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Backend != "" {
		msg = e.Backend + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error kind so callers can test errors.Is(err, ErrTransport).
func (e *Error) Is(target error) bool { return e.Kind != nil && target == e.Kind }

func newError(backend string, kind error, err error, format string, args ...any) *Error {
	return &Error{Backend: backend, Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// withoutBackend strips the backend prefix from err so it can be wrapped by
// another error that already names the backend.
func withoutBackend(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	c.Backend = ""
	return &c
}

func notConfigured(backend string) error {
	switch backend {
	case SerpAPIName:
		return newError(backend, ErrNotConfigured, nil, "api key not configured (set SERPAPI_API_KEY)")
	case YouComName:
		return newError(backend, ErrNotConfigured, nil, "api key not configured (set YDC_API_KEY)")
	case FileName:
		return newError(backend, ErrNotConfigured, nil, "results file not configured (set WEB_SEARCH_FILE)")
	}
	return newError(backend, ErrNotConfigured, nil, "backend not configured")
}
