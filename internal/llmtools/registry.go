package llmtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ToolHandler executes a tool with raw JSON arguments. Handlers report tool
// failures in-band in the returned JSON; a non-nil error means the call
// itself could not be carried out.
type ToolHandler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// ToolDefinition describes a callable tool with stable identity and metadata.
// StableName must be lowercase snake_case and never change across versions.
type ToolDefinition struct {
	StableName   string
	SemVer       string
	Description  string
	JSONSchema   json.RawMessage
	Capabilities []string
	Handler      ToolHandler
}

// ToolMeta is a serializable view for manifests and logs.
type ToolMeta struct {
	StableName   string   `json:"stable_name"`
	SemVer       string   `json:"semver"`
	Capabilities []string `json:"capabilities"`
}

// Registry holds tools keyed by stable name.
type Registry struct {
	nameToDef map[string]ToolDefinition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{nameToDef: make(map[string]ToolDefinition)}
}

var (
	nameRe   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	semverRe = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

// Register validates and adds a tool. Registering a name twice is an error.
func (r *Registry) Register(def ToolDefinition) error {
	if !nameRe.MatchString(def.StableName) {
		return fmt.Errorf("invalid stable name %q: must be lowercase snake_case starting with a letter", def.StableName)
	}
	if !semverRe.MatchString(def.SemVer) {
		return fmt.Errorf("invalid semver %q: must follow semantic versioning", def.SemVer)
	}
	var schema map[string]any
	if err := json.Unmarshal(def.JSONSchema, &schema); err != nil || schema == nil {
		return errors.New("json schema must be a non-empty JSON object")
	}
	if def.Handler == nil {
		return errors.New("handler must not be nil")
	}
	if _, dup := r.nameToDef[def.StableName]; dup {
		return fmt.Errorf("tool already registered: %s", def.StableName)
	}
	caps := make([]string, 0, len(def.Capabilities))
	for _, c := range def.Capabilities {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}
	def.Capabilities = caps
	r.nameToDef[def.StableName] = def
	return nil
}

// Get returns a tool definition by stable name if present.
func (r *Registry) Get(stableName string) (ToolDefinition, bool) {
	def, ok := r.nameToDef[stableName]
	return def, ok
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.nameToDef))
	for name := range r.nameToDef {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns tool specs sorted by stable name.
func (r *Registry) Specs() []ToolSpec {
	names := r.sortedNames()
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		specs = append(specs, ToolSpec{Name: def.StableName, Description: def.Description, JSONSchema: def.JSONSchema})
	}
	return specs
}

// Catalog returns tool metadata sorted by stable name.
func (r *Registry) Catalog() []ToolMeta {
	names := r.sortedNames()
	out := make([]ToolMeta, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		out = append(out, ToolMeta{
			StableName:   def.StableName,
			SemVer:       def.SemVer,
			Capabilities: append([]string(nil), def.Capabilities...),
		})
	}
	return out
}
