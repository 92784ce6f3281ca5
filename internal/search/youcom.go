package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// YouComURL is the base of the You.com index API.
	YouComURL = "https://api.ydc-index.io"
	// youComMaxCount is the largest count the search endpoint accepts.
	youComMaxCount = 10
	// ContentsTimeout bounds a page contents request.
	ContentsTimeout = 30 * time.Second
)

// YouCom queries the You.com search API and merges web and news results.
type YouCom struct {
	// BaseURL overrides YouComURL.
	BaseURL string
	// HTTPClient overrides the default client for searches.
	HTTPClient *http.Client
	// ContentsClient overrides the default client for contents requests.
	ContentsClient *http.Client

	apiKey      string
	showSnippet bool
}

// NewYouCom returns a backend that is available only when apiKey is non-empty.
func NewYouCom(apiKey string, showSnippet bool) *YouCom {
	return &YouCom{
		HTTPClient:     newHTTPClient(DefaultTimeout, nil),
		ContentsClient: newHTTPClient(ContentsTimeout, nil),
		apiKey:         strings.TrimSpace(apiKey),
		showSnippet:    showSnippet,
	}
}

func (y *YouCom) Name() string { return YouComName }

func (y *YouCom) Available() bool { return y.apiKey != "" }

type youComItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
}

type youComResponse struct {
	Results struct {
		Web  []youComItem `json:"web"`
		News []youComItem `json:"news"`
	} `json:"results"`
}

// Search returns web results followed by news results. Unlike the other
// backends an empty combined list is reported as an error.
func (y *YouCom) Search(ctx context.Context, q Query) ([]Result, error) {
	if done, res, err := precheck(y, q); done {
		return res, err
	}
	u, err := y.endpoint("/v1/search")
	if err != nil {
		return nil, err
	}
	params := u.Query()
	params.Set("query", q.Keywords)
	params.Set("count", strconv.Itoa(min(q.MaxResults, youComMaxCount)))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(y.Name(), ErrInvalidInput, err, "new request")
	}
	req.Header.Set("X-API-Key", y.apiKey)
	req.Header.Set("Accept", "application/json")

	b, err := y.do(y.HTTPClient, req)
	if err != nil {
		return nil, err
	}
	var resp youComResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, newError(y.Name(), ErrParse, err, "unexpected error while processing you.com results")
	}

	items := append(append([]youComItem{}, resp.Results.Web...), resp.Results.News...)
	out := make([]Result, 0, min(len(items), q.MaxResults))
	for _, it := range items {
		if len(out) >= q.MaxResults {
			break
		}
		if strings.TrimSpace(it.URL) == "" {
			continue
		}
		snippet := it.Snippet
		if strings.TrimSpace(snippet) == "" {
			snippet = it.Description
		}
		out = append(out, newResult(it.Title, it.URL, snippet, y.showSnippet))
	}
	if len(out) == 0 {
		return nil, newError(y.Name(), ErrUpstreamData, nil, "no search results found")
	}
	return out, nil
}

// Contents asks You.com to crawl urls and returns the provider payload as is.
func (y *YouCom) Contents(ctx context.Context, urls []string) (json.RawMessage, error) {
	if !y.Available() {
		return nil, notConfigured(y.Name())
	}
	if len(urls) == 0 {
		return nil, newError(y.Name(), ErrInvalidInput, nil, "no urls given")
	}
	u, err := y.endpoint("/v1/contents")
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]any{"urls": urls, "livecrawl_formats": "html"})
	if err != nil {
		return nil, newError(y.Name(), ErrInvalidInput, err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, newError(y.Name(), ErrInvalidInput, err, "new request")
	}
	req.Header.Set("X-API-Key", y.apiKey)
	req.Header.Set("Content-Type", "application/json")

	b, err := y.do(y.ContentsClient, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, newError(y.Name(), ErrParse, nil, "contents response is not valid JSON")
	}
	return json.RawMessage(b), nil
}

func (y *YouCom) endpoint(path string) (*url.URL, error) {
	base := y.BaseURL
	if base == "" {
		base = YouComURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return nil, newError(y.Name(), ErrInvalidInput, err, "parse base url")
	}
	return u, nil
}

func (y *YouCom) do(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(y.Name(), ErrTransport, err, "failed to fetch you.com results")
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(y.Name(), ErrTransport, err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(y.Name(), ErrTransport, nil, "failed to fetch you.com results: %s", statusText(resp.StatusCode, b))
	}
	return b, nil
}

func statusText(code int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	if msg == "" {
		return fmt.Sprintf("unexpected status: %d", code)
	}
	return fmt.Sprintf("unexpected status: %d: %s", code, msg)
}
