package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DuckDuckGoURL is the HTML-only results page.
const DuckDuckGoURL = "https://duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML results page. It needs no
// credentials and is always available.
type DuckDuckGo struct {
	// BaseURL overrides DuckDuckGoURL.
	BaseURL string
	// Retry overrides DuckDuckGoRetry.
	Retry *RetryPolicy
	// Limiter paces requests to the results page. Nil, the default,
	// disables pacing.
	Limiter *rate.Limiter

	showSnippet bool
	proxy       ProxyConfig
	direct      *http.Client
	proxied     *http.Client
}

// NewDuckDuckGo builds the scraping backend. The proxied client is only
// created when proxy credentials are present.
func NewDuckDuckGo(proxy ProxyConfig, showSnippet bool) *DuckDuckGo {
	d := &DuckDuckGo{
		showSnippet: showSnippet,
		proxy:       proxy,
		direct:      newHTTPClient(DefaultTimeout, nil),
	}
	if proxy.HasCredentials() {
		d.proxied = newHTTPClient(DefaultTimeout, proxy.URL())
	}
	return d
}

func (d *DuckDuckGo) Name() string { return DuckDuckGoName }

func (d *DuckDuckGo) Available() bool { return true }

// Search fetches and parses one results page. Transport failures are
// retried with backoff; parse failures are not.
func (d *DuckDuckGo) Search(ctx context.Context, q Query) ([]Result, error) {
	if done, res, err := precheck(d, q); done {
		return res, err
	}
	client := d.client(q.UseProxy)
	policy := DuckDuckGoRetry
	if d.Retry != nil {
		policy = *d.Retry
	}

	body, attempts, err := retry(ctx, policy, d.Name(), isTransport, func() ([]byte, error) {
		return d.fetch(ctx, client, q)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(d.Name(), ErrTransport, ctxErr, "search canceled after %d attempts", attempts)
		}
		return nil, newError(d.Name(), ErrTransport, err, "failed to fetch duckduckgo results after %d attempts", attempts)
	}

	results, err := d.parse(body, q.MaxResults)
	if err != nil {
		return nil, newError(d.Name(), ErrParse, err, "unexpected error while processing duckduckgo results")
	}
	return results, nil
}

func (d *DuckDuckGo) client(useProxy bool) *http.Client {
	if !useProxy {
		return d.direct
	}
	if d.proxied == nil {
		log.Warn().Str("backend", d.Name()).Msg("proxy requested but credentials are not configured, using direct connection")
		return d.direct
	}
	log.Debug().Str("backend", d.Name()).Str("proxy", d.proxy.Host).Msg("routing search through proxy")
	return d.proxied
}

func (d *DuckDuckGo) fetch(ctx context.Context, client *http.Client, q Query) ([]byte, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return nil, newError(d.Name(), ErrTransport, err, "request pacing")
		}
	}
	base := d.BaseURL
	if base == "" {
		base = DuckDuckGoURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	params := u.Query()
	params.Set("q", q.Keywords)
	params.Set("kl", duckDuckGoRegion(q.region()))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	SetBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Msg: "request", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: ErrTransport, Msg: fmt.Sprintf("unexpected status: %d", resp.StatusCode)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Msg: "read body", Err: err}
	}
	return b, nil
}

func (d *DuckDuckGo) parse(body []byte, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, limit)
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		title := link.Text()
		if link.Length() == 0 || !ok || strings.TrimSpace(href) == "" || strings.TrimSpace(title) == "" {
			log.Debug().Str("backend", d.Name()).Int("index", i).Msg("skipping result without title link")
			return true
		}
		snippet := s.Find(".result__snippet").First().Text()
		out = append(out, newResult(title, unwrapRedirect(href), snippet, d.showSnippet))
		return len(out) < limit
	})
	return out, nil
}

// duckDuckGoRegion maps the global code to the value the HTML endpoint expects.
func duckDuckGoRegion(region string) string {
	if region == DefaultRegion {
		return "us-en"
	}
	return region
}

// unwrapRedirect turns //duckduckgo.com/l/?uddg=<target> links into the target URL.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	target := u.Query().Get("uddg")
	if target == "" {
		return href
	}
	return target
}

func isTransport(err error) bool { return errors.Is(err, ErrTransport) }
