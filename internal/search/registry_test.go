package search

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubBackend struct {
	name      string
	available bool
}

func (s stubBackend) Name() string    { return s.name }
func (s stubBackend) Available() bool { return s.available }
func (s stubBackend) Search(context.Context, Query) ([]Result, error) {
	return []Result{}, nil
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(stubBackend{name: "a"}, stubBackend{name: "a"})
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewRegistry(stubBackend{name: ""}); err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestRegistry_OrderAndAvailability(t *testing.T) {
	r, err := NewRegistry(
		stubBackend{name: DuckDuckGoName, available: true},
		stubBackend{name: SerpAPIName},
		stubBackend{name: YouComName, available: true},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if diff := cmp.Diff([]string{DuckDuckGoName, SerpAPIName, YouComName}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{DuckDuckGoName, YouComName}, r.Available()); diff != "" {
		t.Fatalf("available mismatch (-want +got):\n%s", diff)
	}
	var fallbacks []string
	for _, b := range r.Fallbacks(DuckDuckGoName) {
		fallbacks = append(fallbacks, b.Name())
	}
	if diff := cmp.Diff([]string{YouComName}, fallbacks); diff != "" {
		t.Fatalf("fallbacks mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Select(t *testing.T) {
	all := func(serp, you bool) *Registry {
		r, err := NewRegistry(
			stubBackend{name: DuckDuckGoName, available: true},
			stubBackend{name: SerpAPIName, available: serp},
			stubBackend{name: YouComName, available: you},
		)
		if err != nil {
			t.Fatalf("new registry: %v", err)
		}
		return r
	}
	cases := []struct {
		name      string
		reg       *Registry
		explicit  string
		preferred string
		want      string
	}{
		{"explicit wins even if unavailable", all(true, true), YouComName, SerpAPIName, YouComName},
		{"explicit unknown falls to preferred", all(true, true), "bing", YouComName, YouComName},
		{"preferred", all(true, true), "", DuckDuckGoName, DuckDuckGoName},
		{"auto prefers serpapi", all(true, true), "", "", SerpAPIName},
		{"auto then youcom", all(false, true), "", "", YouComName},
		{"auto then duckduckgo", all(false, false), "", "", DuckDuckGoName},
		{"unknown preferred uses auto", all(false, true), "", "bing", YouComName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.reg.Select(tc.explicit, tc.preferred)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if b.Name() != tc.want {
				t.Fatalf("got %q, want %q", b.Name(), tc.want)
			}
		})
	}
}

func TestRegistry_SelectFallsBackToFirstRegistered(t *testing.T) {
	r, _ := NewRegistry(stubBackend{name: "custom"}, stubBackend{name: "other"})
	b, err := r.Select("", "")
	if err != nil || b.Name() != "custom" {
		t.Fatalf("expected first registered backend, got %v, %v", b, err)
	}
}

func TestRegistry_SelectEmpty(t *testing.T) {
	r, _ := NewRegistry()
	if _, err := r.Select("", ""); !errors.Is(err, ErrNoBackends) {
		t.Fatalf("expected no backends error, got %v", err)
	}
}
