package llmtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/websearch"
)

// Searcher is the subset of websearch.API the built-in tools call.
type Searcher interface {
	Search(ctx context.Context, req websearch.SearchRequest) ([]search.Result, error)
	Fetch(ctx context.Context, rawURL, mode string) (string, error)
}

const (
	SearchToolName = "search_engine_query"
	FetchToolName  = "fetch_url_content"
)

const searchSchema = `{
  "type": "object",
  "properties": {
    "keywords": {"type": "string", "description": "The keywords to search for."},
    "max_results": {"type": "integer", "description": "Maximum number of results to return. Defaults to 10."},
    "region": {"type": "string", "description": "Region code such as wt-wt (no region), us-en, uk-en, de-de, jp-jp. Defaults to wt-wt."},
    "use_proxy": {"type": "boolean", "description": "Route the request through the configured proxy. Defaults to automatic detection."},
    "backend": {"type": "string", "enum": ["duckduckgo", "serpapi", "youcom", "file"], "description": "Pin the search to one backend. Defaults to automatic selection."}
  },
  "required": ["keywords"],
  "additionalProperties": false
}`

const fetchSchema = `{
  "type": "object",
  "properties": {
    "url": {"type": "string", "description": "The http or https URL to fetch."},
    "mode": {"type": "string", "enum": ["raw", "markdown", "truncate"], "description": "raw returns the HTML, markdown converts it, truncate returns visible text only. Defaults to raw."}
  },
  "required": ["url"],
  "additionalProperties": false
}`

type searchArgs struct {
	Keywords   string  `json:"keywords"`
	MaxResults *int    `json:"max_results"`
	Region     *string `json:"region"`
	UseProxy   *bool   `json:"use_proxy"`
	Backend    string  `json:"backend"`
}

type fetchArgs struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

// NewWebSearchRegistry registers search_engine_query and fetch_url_content
// backed by s.
func NewWebSearchRegistry(s Searcher) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(ToolDefinition{
		StableName:   SearchToolName,
		SemVer:       "v1.0.0",
		Description:  "Search the web for the given keywords and return a list of results with title, href and body.",
		JSONSchema:   json.RawMessage(searchSchema),
		Capabilities: []string{"search", "network"},
		Handler: func(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
			var args searchArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
			req := websearch.SearchRequest{
				Keywords:   args.Keywords,
				MaxResults: search.DefaultMaxResults,
				Region:     search.DefaultRegion,
				UseProxy:   args.UseProxy,
				Backend:    args.Backend,
			}
			if args.MaxResults != nil {
				req.MaxResults = *args.MaxResults
			}
			if args.Region != nil && strings.TrimSpace(*args.Region) != "" {
				req.Region = *args.Region
			}
			return json.Marshal(websearch.NewOutcome(s.Search(ctx, req)))
		},
	}); err != nil {
		return nil, err
	}
	if err := r.Register(ToolDefinition{
		StableName:   FetchToolName,
		SemVer:       "v1.0.0",
		Description:  "Fetch the content of a web page by URL.",
		JSONSchema:   json.RawMessage(fetchSchema),
		Capabilities: []string{"fetch", "network"},
		Handler: func(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
			var args fetchArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
			return json.Marshal(websearch.NewContentOutcome(s.Fetch(ctx, args.URL, args.Mode)))
		},
	}); err != nil {
		return nil, err
	}
	return r, nil
}
