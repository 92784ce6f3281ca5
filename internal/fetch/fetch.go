package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/websearch/internal/extract"
	"github.com/hyperifyio/websearch/internal/search"
)

// Mode selects how a fetched page is rendered.
type Mode string

const (
	ModeRaw      Mode = "raw"
	ModeMarkdown Mode = "markdown"
	ModeTruncate Mode = "truncate"
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

// ParseMode validates a mode name. Empty means raw.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRaw, nil
	case ModeRaw, ModeMarkdown, ModeTruncate:
		return m, nil
	}
	return "", &search.Error{Kind: search.ErrInvalidInput, Msg: fmt.Sprintf("unsupported mode: %s", s)}
}

// Client fetches single pages with browser-like headers. It does not retry.
type Client struct {
	HTTPClient *http.Client
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxBodyBytes caps the body read. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// Fetch retrieves rawURL and renders it in the given mode. The URL and mode
// are validated before any request is made.
func (c *Client) Fetch(ctx context.Context, rawURL string, mode Mode) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !isHTTPScheme(u) || u.Host == "" {
		return "", &search.Error{Kind: search.ErrInvalidInput, Msg: fmt.Sprintf("invalid url: %q, must start with http:// or https://", rawURL)}
	}
	mode, err = ParseMode(string(mode))
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return "", &search.Error{Kind: search.ErrTransport, Msg: fmt.Sprintf("an error occurred while fetching %s", rawURL), Err: err}
	}

	switch mode {
	case ModeMarkdown:
		converter := md.NewConverter(u.Host, true, nil)
		out, err := converter.ConvertString(string(body))
		if err != nil {
			return "", &search.Error{Kind: search.ErrParse, Msg: fmt.Sprintf("an error occurred while fetching %s", rawURL), Err: err}
		}
		return out, nil
	case ModeTruncate:
		return extract.VisibleText(body), nil
	default:
		return string(body), nil
	}
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	c.acquire()
	defer c.release()

	timeout := c.PerRequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	search.SetBrowserHeaders(req)

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	var r io.Reader = io.LimitReader(resp.Body, limit)
	if decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type")); err == nil {
		r = decoded
	} else {
		log.Debug().Err(err).Str("url", u.String()).Msg("charset detection failed, reading body as is")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
