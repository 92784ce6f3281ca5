// Package config resolves search configuration from defaults, the process
// environment and caller overrides.
package config

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/websearch/internal/search"
)

const (
	DefaultProxyHost = "brd.superproxy.io"
	DefaultProxyPort = 22225
)

// environment mirrors the variables read at resolve time.
type environment struct {
	ProxyHost     string `env:"BRIGHTDATA_HOST,default=brd.superproxy.io"`
	ProxyPort     string `env:"BRIGHTDATA_PORT"`
	ProxyUsername string `env:"BRIGHTDATA_USERNAME"`
	ProxyPassword string `env:"BRIGHTDATA_PASSWORD"`
	SerpAPIKey    string `env:"SERPAPI_API_KEY"`
	YouComKey     string `env:"YDC_API_KEY"`
	ResultsFile   string `env:"WEB_SEARCH_FILE"`
	DuckDuckGoRPS string `env:"WEB_SEARCH_DDG_RPS"`
	// Backend forces the preferred backend over caller overrides.
	Backend string `env:"WEB_SEARCH_BACKEND"`
}

// Overrides are caller-supplied values. Nil fields leave the default or
// environment value in place.
type Overrides struct {
	ShowSnippet      *bool           `yaml:"show_snippet" json:"show_snippet"`
	PreferredBackend *string         `yaml:"preferred_backend" json:"preferred_backend"`
	EnableFallback   *bool           `yaml:"enable_fallback" json:"enable_fallback"`
	Proxy            *ProxyOverrides `yaml:"proxy_config" json:"proxy_config"`
}

// ProxyOverrides replace proxy settings key by key.
type ProxyOverrides struct {
	Host     *string `yaml:"host" json:"host"`
	Port     *int    `yaml:"port" json:"port"`
	Username *string `yaml:"username" json:"username"`
	Password *string `yaml:"password" json:"password"`
}

// SearchConfig is the resolved, read-only configuration.
type SearchConfig struct {
	ShowSnippet      bool
	PreferredBackend string
	EnableFallback   bool
	Proxy            search.ProxyConfig
	FilePath         string
	// DuckDuckGoRPS caps scrape requests per second. Zero disables pacing.
	DuckDuckGoRPS float64

	lookuper envconfig.Lookuper
}

// Resolve builds a SearchConfig from the process environment.
func Resolve(ctx context.Context, ov Overrides) SearchConfig {
	return ResolveWith(ctx, ov, envconfig.OsLookuper())
}

// ResolveWith builds a SearchConfig reading variables from l. It never fails:
// malformed values fall back to defaults. ov is only read.
func ResolveWith(ctx context.Context, ov Overrides, l envconfig.Lookuper) SearchConfig {
	if l == nil {
		l = envconfig.OsLookuper()
	}
	env := loadEnvironment(ctx, l)

	cfg := SearchConfig{
		ShowSnippet:    true,
		EnableFallback: true,
		Proxy: search.ProxyConfig{
			Host:     env.ProxyHost,
			Port:     parsePort(env.ProxyPort),
			Username: env.ProxyUsername,
			Password: env.ProxyPassword,
		},
		FilePath:      strings.TrimSpace(env.ResultsFile),
		DuckDuckGoRPS: parseRate(env.DuckDuckGoRPS),
		lookuper:      l,
	}

	if ov.ShowSnippet != nil {
		cfg.ShowSnippet = *ov.ShowSnippet
	}
	if ov.PreferredBackend != nil {
		cfg.PreferredBackend = strings.TrimSpace(*ov.PreferredBackend)
	}
	if ov.EnableFallback != nil {
		cfg.EnableFallback = *ov.EnableFallback
	}
	if p := ov.Proxy; p != nil {
		if p.Host != nil {
			cfg.Proxy.Host = *p.Host
		}
		if p.Port != nil {
			cfg.Proxy.Port = *p.Port
		}
		if p.Username != nil {
			cfg.Proxy.Username = *p.Username
		}
		if p.Password != nil {
			cfg.Proxy.Password = *p.Password
		}
	}
	if b := strings.TrimSpace(env.Backend); b != "" {
		cfg.PreferredBackend = b
	}
	return cfg
}

func loadEnvironment(ctx context.Context, l envconfig.Lookuper) environment {
	var env environment
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		log.Warn().Err(err).Msg("reading search environment failed, using defaults")
		env = environment{ProxyHost: DefaultProxyHost}
	}
	return env
}

func parsePort(s string) int {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return DefaultProxyPort
	}
	return port
}

func parseRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	rps, err := strconv.ParseFloat(s, 64)
	if err != nil || rps <= 0 {
		log.Warn().Str("value", s).Msg("ignoring invalid WEB_SEARCH_DDG_RPS")
		return 0
	}
	return rps
}

// AvailableBackends returns the names of backends usable right now, in
// registration order. Credentials are re-read on every call.
func (c SearchConfig) AvailableBackends() []string {
	env := c.env()
	names := []string{search.DuckDuckGoName}
	if strings.TrimSpace(env.SerpAPIKey) != "" {
		names = append(names, search.SerpAPIName)
	}
	if strings.TrimSpace(env.YouComKey) != "" {
		names = append(names, search.YouComName)
	}
	if c.FilePath != "" {
		names = append(names, search.FileName)
	}
	return names
}

// CreateBackends instantiates every backend with credentials read now.
// The three web backends are always returned so that explicit requests for
// an unconfigured one report it as such.
func (c SearchConfig) CreateBackends() []search.Backend {
	env := c.env()
	ddg := search.NewDuckDuckGo(c.Proxy, c.ShowSnippet)
	if c.DuckDuckGoRPS > 0 {
		ddg.Limiter = rate.NewLimiter(rate.Limit(c.DuckDuckGoRPS), 1)
	}
	backends := []search.Backend{
		ddg,
		search.NewSerpAPI(env.SerpAPIKey, c.ShowSnippet),
		search.NewYouCom(env.YouComKey, c.ShowSnippet),
	}
	if c.FilePath != "" {
		backends = append(backends, search.NewFile(c.FilePath, c.ShowSnippet))
	}
	return backends
}

func (c SearchConfig) env() environment {
	l := c.lookuper
	if l == nil {
		l = envconfig.OsLookuper()
	}
	return loadEnvironment(context.Background(), l)
}
