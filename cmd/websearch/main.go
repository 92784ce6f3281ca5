package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/llmtools"
	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/websearch"
)

// errFailed marks runs whose outcome was an in-band error. The JSON has
// already been written; main only turns it into a nonzero exit.
var errFailed = errors.New("outcome reported an error")

type options struct {
	query      string
	maxResults int
	region     string
	backend    string
	proxy      string
	fallback   string
	fetchURL   string
	mode       string
	contents   string
	status     bool
	tools      bool
	call       string
	list       bool
	configPath string
	envFiles   string
	verbose    bool
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var opts options
	flag.StringVar(&opts.query, "q", "", "Search keywords")
	flag.IntVar(&opts.maxResults, "n", search.DefaultMaxResults, "Maximum number of results")
	flag.StringVar(&opts.region, "region", search.DefaultRegion, "Region code, e.g. wt-wt, us-en, de-de")
	flag.StringVar(&opts.backend, "backend", "", "Pin the search to one backend (duckduckgo, serpapi, youcom, file)")
	flag.StringVar(&opts.proxy, "proxy", "auto", "Proxy use: auto, on or off")
	flag.StringVar(&opts.fallback, "fallback", "", "Comma-separated backend chain to try in order; 'all' uses every available backend")
	flag.StringVar(&opts.fetchURL, "fetch", "", "Fetch this URL instead of searching")
	flag.StringVar(&opts.mode, "mode", "raw", "Fetch mode: raw, markdown or truncate")
	flag.StringVar(&opts.contents, "contents", "", "Comma-separated URLs to retrieve through the contents API")
	flag.BoolVar(&opts.status, "status", false, "Print backend status and exit")
	flag.BoolVar(&opts.tools, "tools", false, "Print the OpenAI tool definitions and exit")
	flag.StringVar(&opts.call, "call", "", `Execute a tool call given as JSON: {"name": "...", "arguments": {...}}`)
	flag.BoolVar(&opts.list, "list", false, "Print available backends as JSON and exit")
	flag.StringVar(&opts.configPath, "config", os.Getenv("WEB_SEARCH_CONFIG"), "Path to a YAML or JSON scenario file")
	flag.StringVar(&opts.envFiles, "env-file", ".env", "Comma-separated dotenv files to load before reading the environment")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if opts.query == "" && flag.NArg() > 0 {
		opts.query = strings.Join(flag.Args(), " ")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		if !errors.Is(err, errFailed) {
			log.Error().Err(err).Msg("websearch failed")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if err := config.LoadEnvFiles(splitList(opts.envFiles)...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	var ov config.Overrides
	if strings.TrimSpace(opts.configPath) != "" {
		var err error
		if ov, err = config.LoadOverridesFile(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	api, err := websearch.New(ctx, ov)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	switch {
	case opts.tools || opts.call != "":
		return runTools(ctx, api, opts, enc)
	case opts.status:
		return api.WriteStatus(stdout)
	case opts.list:
		return enc.Encode(api.AvailableBackends())
	case opts.fetchURL != "":
		content, err := api.Fetch(ctx, opts.fetchURL, opts.mode)
		if encErr := enc.Encode(websearch.NewContentOutcome(content, err)); encErr != nil {
			return encErr
		}
		return failed(err)
	case opts.contents != "":
		payload, err := api.Contents(ctx, splitList(opts.contents))
		if encErr := enc.Encode(websearch.NewContentsOutcome(payload, err)); encErr != nil {
			return encErr
		}
		return failed(err)
	}

	if strings.TrimSpace(opts.query) == "" {
		return errors.New("no query given: use -q or pass keywords as arguments")
	}
	useProxy, err := parseProxy(opts.proxy)
	if err != nil {
		return err
	}
	req := websearch.SearchRequest{
		Keywords:   opts.query,
		MaxResults: opts.maxResults,
		Region:     opts.region,
		UseProxy:   useProxy,
		Backend:    opts.backend,
	}

	var results []search.Result
	switch chain := strings.TrimSpace(opts.fallback); chain {
	case "":
		results, err = api.Search(ctx, req)
	case "all":
		results, err = api.SearchWithFallback(ctx, req, nil)
	default:
		results, err = api.SearchWithFallback(ctx, req, splitList(chain))
	}
	if encErr := enc.Encode(websearch.NewOutcome(results, err)); encErr != nil {
		return encErr
	}
	return failed(err)
}

func runTools(ctx context.Context, api *websearch.API, opts options, enc *json.Encoder) error {
	tools, err := llmtools.NewWebSearchRegistry(api)
	if err != nil {
		return err
	}
	if opts.tools {
		return enc.Encode(llmtools.EncodeTools(tools.Specs()))
	}
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(opts.call), &call); err != nil {
		return fmt.Errorf("parse -call: %w", err)
	}
	out := tools.Execute(ctx, llmtools.ToolCall{ID: "cli", Name: call.Name, Arguments: call.Arguments})
	return enc.Encode(out)
}

func failed(err error) error {
	if err != nil {
		log.Debug().Err(err).Msg("outcome error")
		return errFailed
	}
	return nil
}

func parseProxy(s string) (*bool, error) {
	on, off := true, false
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return nil, nil
	case "on", "true", "yes":
		return &on, nil
	case "off", "false", "no":
		return &off, nil
	}
	return nil, fmt.Errorf("invalid -proxy value %q: want auto, on or off", s)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
