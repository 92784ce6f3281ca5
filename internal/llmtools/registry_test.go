package llmtools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func noop(context.Context, json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func TestRegister_Validation(t *testing.T) {
	schema := json.RawMessage(`{"type":"object"}`)
	cases := []struct {
		name string
		def  ToolDefinition
	}{
		{"bad name", ToolDefinition{StableName: "Bad-Name", SemVer: "v1.0.0", JSONSchema: schema, Handler: noop}},
		{"bad semver", ToolDefinition{StableName: "ok", SemVer: "1.0", JSONSchema: schema, Handler: noop}},
		{"schema not object", ToolDefinition{StableName: "ok", SemVer: "v1.0.0", JSONSchema: json.RawMessage(`[]`), Handler: noop}},
		{"nil handler", ToolDefinition{StableName: "ok", SemVer: "v1.0.0", JSONSchema: schema}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := NewRegistry().Register(tc.def); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	r := NewRegistry()
	def := ToolDefinition{StableName: "ok", SemVer: "1.2.3", JSONSchema: schema, Handler: noop}
	if err := r.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(def); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestRegistry_SpecsAndCatalogSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha"} {
		if err := r.Register(ToolDefinition{StableName: name, SemVer: "v0.1.0", Description: name, JSONSchema: json.RawMessage(`{}`), Capabilities: []string{" a ", ""}, Handler: noop}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "alpha" || specs[1].Name != "zeta" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
	want := []ToolMeta{
		{StableName: "alpha", SemVer: "v0.1.0", Capabilities: []string{"a"}},
		{StableName: "zeta", SemVer: "v0.1.0", Capabilities: []string{"a"}},
	}
	if diff := cmp.Diff(want, r.Catalog()); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}
