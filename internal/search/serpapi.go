package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SerpAPIURL is the JSON search endpoint.
const SerpAPIURL = "https://serpapi.com/search.json"

// SerpAPI queries the SerpAPI aggregation service using its DuckDuckGo engine.
type SerpAPI struct {
	// BaseURL overrides SerpAPIURL.
	BaseURL string
	// Retry overrides SerpAPIRateLimitRetry.
	Retry *RetryPolicy
	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	apiKey      string
	showSnippet bool
}

// NewSerpAPI returns a backend that is available only when apiKey is non-empty.
func NewSerpAPI(apiKey string, showSnippet bool) *SerpAPI {
	return &SerpAPI{
		HTTPClient:  newHTTPClient(DefaultTimeout, nil),
		apiKey:      strings.TrimSpace(apiKey),
		showSnippet: showSnippet,
	}
}

func (s *SerpAPI) Name() string { return SerpAPIName }

func (s *SerpAPI) Available() bool { return s.apiKey != "" }

type serpAPIResponse struct {
	Error          string           `json:"error"`
	OrganicResults *[]serpAPIResult `json:"organic_results"`
}

type serpAPIResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search issues one request. Rate limits are retried until ctx is done;
// every other failure is returned immediately.
func (s *SerpAPI) Search(ctx context.Context, q Query) ([]Result, error) {
	if done, res, err := precheck(s, q); done {
		return res, err
	}
	policy := SerpAPIRateLimitRetry
	if s.Retry != nil {
		policy = *s.Retry
	}
	isRateLimited := func(err error) bool { return errors.Is(err, ErrRateLimited) }

	resp, attempts, err := retry(ctx, policy, s.Name(), isRateLimited, func() (serpAPIResponse, error) {
		return s.fetch(ctx, q)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(s.Name(), ErrTransport, ctxErr, "search canceled after %d attempts", attempts)
		}
		if errors.Is(err, ErrRateLimited) {
			return nil, newError(s.Name(), ErrTransport, withoutBackend(err), "rate limited after %d attempts", attempts)
		}
		return nil, err
	}

	if resp.OrganicResults == nil {
		if resp.Error != "" {
			return nil, newError(s.Name(), ErrUpstreamData, errors.New(resp.Error), "failed to retrieve the search results from server")
		}
		return nil, newError(s.Name(), ErrUpstreamData, nil, "failed to retrieve the search results from server, please try again later")
	}

	items := *resp.OrganicResults
	out := make([]Result, 0, min(len(items), q.MaxResults))
	for _, it := range items {
		if len(out) >= q.MaxResults {
			break
		}
		if strings.TrimSpace(it.Link) == "" {
			continue
		}
		out = append(out, newResult(it.Title, it.Link, it.Snippet, s.showSnippet))
	}
	return out, nil
}

func (s *SerpAPI) fetch(ctx context.Context, q Query) (serpAPIResponse, error) {
	var out serpAPIResponse
	base := s.BaseURL
	if base == "" {
		base = SerpAPIURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return out, newError(s.Name(), ErrInvalidInput, err, "parse base url")
	}
	params := u.Query()
	params.Set("engine", "duckduckgo")
	params.Set("q", q.Keywords)
	params.Set("kl", q.region())
	params.Set("api_key", s.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return out, newError(s.Name(), ErrInvalidInput, err, "new request")
	}
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if mentionsRateLimit(err) {
			return out, newError(s.Name(), ErrRateLimited, redactKey(err, s.apiKey), "request")
		}
		return out, newError(s.Name(), ErrTransport, redactKey(err, s.apiKey), "request failed")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, newError(s.Name(), ErrTransport, err, "read body")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return out, newError(s.Name(), ErrRateLimited, nil, "status 429")
	}
	decodeErr := json.Unmarshal(b, &out)
	if decodeErr == nil && strings.Contains(out.Error, "429") {
		return out, newError(s.Name(), ErrRateLimited, errors.New(out.Error), "provider error")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return out, newError(s.Name(), ErrTransport, errors.New(out.Error), "unexpected status: %d", resp.StatusCode)
		}
		return out, newError(s.Name(), ErrTransport, nil, "unexpected status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return out, newError(s.Name(), ErrParse, decodeErr, "decode response")
	}
	return out, nil
}

// mentionsRateLimit looks for a 429 in the cause of a transport error,
// ignoring the request URL.
func mentionsRateLimit(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return err != nil && strings.Contains(err.Error(), "429")
}

// redactKey removes the API key from URL-bearing transport errors.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
