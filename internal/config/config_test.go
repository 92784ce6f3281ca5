package config

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"

	"github.com/hyperifyio/websearch/internal/search"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestResolve_Defaults(t *testing.T) {
	cfg := ResolveWith(context.Background(), Overrides{}, envconfig.MapLookuper(nil))
	if !cfg.ShowSnippet || !cfg.EnableFallback || cfg.PreferredBackend != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	want := search.ProxyConfig{Host: DefaultProxyHost, Port: DefaultProxyPort}
	if diff := cmp.Diff(want, cfg.Proxy); diff != "" {
		t.Fatalf("proxy mismatch (-want +got):\n%s", diff)
	}
	if cfg.Proxy.HasCredentials() {
		t.Fatalf("defaults must not carry credentials")
	}
}

func TestResolve_EnvThenOverridesKeyByKey(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{
		"BRIGHTDATA_HOST":     "proxy.example",
		"BRIGHTDATA_PORT":     "9000",
		"BRIGHTDATA_USERNAME": "env-user",
		"BRIGHTDATA_PASSWORD": "env-pass",
	})
	ov := Overrides{
		ShowSnippet: boolPtr(false),
		Proxy:       &ProxyOverrides{Username: strPtr("ov-user")},
	}
	cfg := ResolveWith(context.Background(), ov, l)
	want := search.ProxyConfig{Host: "proxy.example", Port: 9000, Username: "ov-user", Password: "env-pass"}
	if diff := cmp.Diff(want, cfg.Proxy); diff != "" {
		t.Fatalf("proxy mismatch (-want +got):\n%s", diff)
	}
	if cfg.ShowSnippet {
		t.Fatalf("override must disable snippets")
	}
	if !cfg.EnableFallback {
		t.Fatalf("unset override must keep default fallback")
	}
}

func TestResolve_InvalidPortFallsBack(t *testing.T) {
	for _, v := range []string{"abc", "", "-1", "70000"} {
		l := envconfig.MapLookuper(map[string]string{"BRIGHTDATA_PORT": v})
		if got := ResolveWith(context.Background(), Overrides{}, l).Proxy.Port; got != DefaultProxyPort {
			t.Fatalf("port %q: got %d, want %d", v, got, DefaultProxyPort)
		}
	}
}

func TestResolve_BackendEnvBeatsOverride(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{"WEB_SEARCH_BACKEND": "youcom"})
	cfg := ResolveWith(context.Background(), Overrides{PreferredBackend: strPtr("serpapi")}, l)
	if cfg.PreferredBackend != "youcom" {
		t.Fatalf("expected env to force youcom, got %q", cfg.PreferredBackend)
	}
	cfg = ResolveWith(context.Background(), Overrides{PreferredBackend: strPtr("serpapi")}, envconfig.MapLookuper(nil))
	if cfg.PreferredBackend != "serpapi" {
		t.Fatalf("expected override serpapi, got %q", cfg.PreferredBackend)
	}
}

func TestResolve_DoesNotMutateOverrides(t *testing.T) {
	ov := Overrides{
		PreferredBackend: strPtr("duckduckgo"),
		Proxy:            &ProxyOverrides{Port: intPtr(1234)},
	}
	l := envconfig.MapLookuper(map[string]string{"WEB_SEARCH_BACKEND": "serpapi", "BRIGHTDATA_PORT": "1"})
	_ = ResolveWith(context.Background(), ov, l)
	if *ov.PreferredBackend != "duckduckgo" || *ov.Proxy.Port != 1234 || ov.Proxy.Host != nil || ov.ShowSnippet != nil {
		t.Fatalf("overrides were mutated: %+v %+v", ov, *ov.Proxy)
	}
}

func TestSearchConfig_AvailableBackendsReadsEnvAtCallTime(t *testing.T) {
	t.Setenv("SERPAPI_API_KEY", "")
	t.Setenv("YDC_API_KEY", "")
	t.Setenv("WEB_SEARCH_FILE", "")
	cfg := Resolve(context.Background(), Overrides{})
	if diff := cmp.Diff([]string{search.DuckDuckGoName}, cfg.AvailableBackends()); diff != "" {
		t.Fatalf("available mismatch (-want +got):\n%s", diff)
	}
	t.Setenv("SERPAPI_API_KEY", "k1")
	t.Setenv("YDC_API_KEY", "k2")
	if diff := cmp.Diff([]string{search.DuckDuckGoName, search.SerpAPIName, search.YouComName}, cfg.AvailableBackends()); diff != "" {
		t.Fatalf("available mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchConfig_CreateBackends(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{"YDC_API_KEY": "k", "WEB_SEARCH_FILE": "/tmp/results.json"})
	cfg := ResolveWith(context.Background(), Overrides{}, l)
	backends := cfg.CreateBackends()
	var names []string
	var avail []bool
	for _, b := range backends {
		names = append(names, b.Name())
		avail = append(avail, b.Available())
	}
	if diff := cmp.Diff([]string{"duckduckgo", "serpapi", "youcom", "file"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, false, true, true}, avail); diff != "" {
		t.Fatalf("availability mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchConfig_DuckDuckGoPacingIsOptIn(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		limited bool
	}{
		{name: "unset", env: map[string]string{}},
		{name: "invalid", env: map[string]string{"WEB_SEARCH_DDG_RPS": "fast"}},
		{name: "negative", env: map[string]string{"WEB_SEARCH_DDG_RPS": "-1"}},
		{name: "set", env: map[string]string{"WEB_SEARCH_DDG_RPS": "0.5"}, limited: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ResolveWith(context.Background(), Overrides{}, envconfig.MapLookuper(tc.env))
			ddg, ok := cfg.CreateBackends()[0].(*search.DuckDuckGo)
			if !ok {
				t.Fatalf("first backend is not duckduckgo")
			}
			if got := ddg.Limiter != nil; got != tc.limited {
				t.Fatalf("limiter set = %v, want %v", got, tc.limited)
			}
			if tc.limited && float64(ddg.Limiter.Limit()) != 0.5 {
				t.Fatalf("unexpected limit %v", ddg.Limiter.Limit())
			}
		})
	}
}
