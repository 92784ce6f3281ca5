package search

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Backend names as they appear in configuration, selection and status output.
const (
	DuckDuckGoName = "duckduckgo"
	SerpAPIName    = "serpapi"
	YouComName     = "youcom"
	FileName       = "file"
)

const (
	// DefaultMaxResults is used by callers that do not specify a result count.
	DefaultMaxResults = 10
	// DefaultRegion is the DuckDuckGo "no region" code.
	DefaultRegion = "wt-wt"
)

// Result represents a single search hit from any backend.
// Body is nil when snippets are disabled so that it is omitted on the wire.
type Result struct {
	Title string  `json:"title"`
	Href  string  `json:"href"`
	Body  *string `json:"body,omitempty"`
}

// Query is one search request as seen by a backend.
type Query struct {
	Keywords   string
	MaxResults int
	Region     string
	// UseProxy asks the backend to route through the configured proxy.
	// Backends without proxy support ignore it.
	UseProxy bool
}

// region returns the region code to send, defaulting to DefaultRegion.
func (q Query) region() string {
	r := strings.TrimSpace(q.Region)
	if r == "" {
		return DefaultRegion
	}
	return r
}

// Backend is a named source of web search results.
type Backend interface {
	Name() string
	// Available reports whether the backend has what it needs (credentials)
	// to serve requests. It never touches the network.
	Available() bool
	Search(ctx context.Context, q Query) ([]Result, error)
}

// ContentRetriever is implemented by backends that can return page contents
// for a list of URLs.
type ContentRetriever interface {
	Contents(ctx context.Context, urls []string) (json.RawMessage, error)
}

// precheck runs the gates shared by all backends. It returns done=true when
// the caller should return immediately with (results, err).
func precheck(b Backend, q Query) (done bool, results []Result, err error) {
	if !b.Available() {
		return true, nil, notConfigured(b.Name())
	}
	if q.MaxResults <= 0 {
		return true, []Result{}, nil
	}
	return false, nil, nil
}

func newResult(title, href, body string, withBody bool) Result {
	r := Result{Title: cleanText(title), Href: strings.TrimSpace(href)}
	if withBody {
		b := cleanText(body)
		r.Body = &b
	}
	return r
}

// cleanText trims, collapses internal whitespace runs and NFC-normalizes s.
func cleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// StringPtr is a small helper for building results in tests and fixtures.
func StringPtr(s string) *string { return &s }
