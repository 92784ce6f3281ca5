// Package websearch is the entry point used by the benchmark tools: backend
// selection, a single fallback hop, explicit fallback chains and page fetching.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/fetch"
	"github.com/hyperifyio/websearch/internal/search"
)

// SearchRequest is one search call as issued by a caller.
type SearchRequest struct {
	Keywords   string
	MaxResults int
	Region     string
	// UseProxy nil means decide automatically.
	UseProxy *bool
	// Backend pins the request to one backend and disables fallback.
	Backend string
}

// BackendFactory builds the backends for a resolved configuration.
type BackendFactory func(cfg config.SearchConfig) []search.Backend

type state struct {
	cfg      config.SearchConfig
	registry *search.Registry
}

// API holds the current configuration and backends. The pair is replaced
// atomically by LoadScenario; in-flight calls finish on the state they began with.
type API struct {
	state    atomic.Pointer[state]
	lookuper envconfig.Lookuper
	factory  BackendFactory
	fetcher  *fetch.Client
}

// Option configures New.
type Option func(*API)

// WithLookuper reads environment variables from l instead of the process environment.
func WithLookuper(l envconfig.Lookuper) Option { return func(a *API) { a.lookuper = l } }

// WithBackendFactory replaces config.SearchConfig.CreateBackends.
func WithBackendFactory(f BackendFactory) Option { return func(a *API) { a.factory = f } }

// WithFetcher replaces the default content fetcher.
func WithFetcher(c *fetch.Client) Option { return func(a *API) { a.fetcher = c } }

// New resolves configuration and registers backends.
func New(ctx context.Context, ov config.Overrides, opts ...Option) (*API, error) {
	a := &API{
		lookuper: envconfig.OsLookuper(),
		factory:  func(cfg config.SearchConfig) []search.Backend { return cfg.CreateBackends() },
		fetcher:  &fetch.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.LoadScenario(ctx, ov); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadScenario rebuilds configuration and backends from ov and swaps them in.
func (a *API) LoadScenario(ctx context.Context, ov config.Overrides) error {
	cfg := config.ResolveWith(ctx, ov, a.lookuper)
	reg, err := search.NewRegistry(a.factory(cfg)...)
	if err != nil {
		return fmt.Errorf("register backends: %w", err)
	}
	a.state.Store(&state{cfg: cfg, registry: reg})
	log.Debug().Strs("backends", reg.Names()).Strs("available", reg.Available()).Str("preferred", cfg.PreferredBackend).Bool("fallback", cfg.EnableFallback).Msg("search backends configured")
	return nil
}

// Config returns the resolved configuration currently in use.
func (a *API) Config() config.SearchConfig { return a.state.Load().cfg }

// AvailableBackends lists backends that can serve requests now.
func (a *API) AvailableBackends() []string { return a.state.Load().registry.Available() }

// Search runs one search on the selected backend and, when allowed, retries
// once on the first other available backend. It never panics.
func (a *API) Search(ctx context.Context, req SearchRequest) (results []search.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("search execution panicked")
			results, err = nil, fmt.Errorf("search execution failed: %v", r)
		}
	}()
	st := a.state.Load()

	explicit := strings.TrimSpace(req.Backend)
	if explicit != "" {
		b, ok := st.registry.Get(explicit)
		if !ok {
			return nil, &search.Error{Kind: search.ErrInvalidInput, Msg: fmt.Sprintf("backend %q is not registered", explicit)}
		}
		if !b.Available() {
			return nil, &search.Error{Kind: search.ErrNotConfigured, Msg: fmt.Sprintf("backend %q is not configured, check API key configuration", explicit)}
		}
		return a.run(ctx, st, b, req)
	}

	b, err := st.registry.Select("", st.cfg.PreferredBackend)
	if err != nil {
		return nil, fmt.Errorf("search execution failed: %w", err)
	}
	log.Debug().Str("backend", b.Name()).Str("keywords", req.Keywords).Msg("selected search backend")
	results, err = a.run(ctx, st, b, req)
	if err == nil || !st.cfg.EnableFallback || ctx.Err() != nil {
		return results, err
	}

	fallbacks := st.registry.Fallbacks(b.Name())
	if len(fallbacks) == 0 {
		return nil, err
	}
	next := fallbacks[0]
	log.Info().Err(err).Str("backend", b.Name()).Str("fallback", next.Name()).Msg("search failed, trying fallback backend")
	return a.run(ctx, st, next, req)
}

// SearchWithFallback tries names in order and returns the first success.
// Nil names means all currently available backends. Unknown and unavailable
// names are skipped.
func (a *API) SearchWithFallback(ctx context.Context, req SearchRequest, names []string) ([]search.Result, error) {
	st := a.state.Load()
	if names == nil {
		names = st.registry.Available()
	}
	var lastErr error
	for _, name := range names {
		b, ok := st.registry.Get(name)
		if !ok || !b.Available() {
			log.Debug().Str("backend", name).Msg("skipping unknown or unavailable backend")
			continue
		}
		results, err := a.run(ctx, st, b, req)
		if err == nil {
			return results, nil
		}
		log.Info().Err(err).Str("backend", name).Msg("backend failed, trying next")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("all backends failed: none of %v is available", names)
	}
	return nil, fmt.Errorf("all backends failed, last error: %w", lastErr)
}

// Fetch retrieves a page in the given mode ("raw", "markdown" or "truncate").
func (a *API) Fetch(ctx context.Context, rawURL, mode string) (string, error) {
	return a.fetcher.Fetch(ctx, rawURL, fetch.Mode(mode))
}

// Contents returns crawled page contents from the first available backend
// that supports it.
func (a *API) Contents(ctx context.Context, urls []string) (json.RawMessage, error) {
	st := a.state.Load()
	for _, name := range st.registry.Available() {
		b, _ := st.registry.Get(name)
		if cr, ok := b.(search.ContentRetriever); ok {
			return cr.Contents(ctx, urls)
		}
	}
	return nil, &search.Error{Kind: search.ErrNotConfigured, Msg: "no available backend supports page contents (set YDC_API_KEY)"}
}

// run calls one backend, turning panics into errors and guaranteeing that
// exactly one of results and err is set.
func (a *API) run(ctx context.Context, st *state, b search.Backend, req SearchRequest) (results []search.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("backend", b.Name()).Msg("search backend panicked")
			results, err = nil, fmt.Errorf("search execution failed: %s: %v", b.Name(), r)
		}
	}()
	results, err = b.Search(ctx, a.query(st, b, req))
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []search.Result{}
	}
	return results, nil
}

func (a *API) query(st *state, b search.Backend, req SearchRequest) search.Query {
	useProxy := b.Name() == search.DuckDuckGoName && st.cfg.Proxy.HasCredentials()
	if req.UseProxy != nil {
		useProxy = *req.UseProxy
	}
	return search.Query{
		Keywords:   req.Keywords,
		MaxResults: req.MaxResults,
		Region:     req.Region,
		UseProxy:   useProxy,
	}
}
