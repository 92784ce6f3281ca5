package llmtools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/websearch"
)

type fakeSearcher struct {
	lastReq   websearch.SearchRequest
	lastURL   string
	lastMode  string
	searchErr error
}

func (f *fakeSearcher) Search(_ context.Context, req websearch.SearchRequest) ([]search.Result, error) {
	f.lastReq = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []search.Result{{Title: "Go", Href: "https://go.dev", Body: search.StringPtr("The Go language")}}, nil
}

func (f *fakeSearcher) Fetch(_ context.Context, rawURL, mode string) (string, error) {
	f.lastURL, f.lastMode = rawURL, mode
	if !strings.HasPrefix(rawURL, "http") {
		return "", errors.New("invalid url")
	}
	return "page text", nil
}

func newTools(t *testing.T) (*Registry, *fakeSearcher) {
	t.Helper()
	fs := &fakeSearcher{}
	r, err := NewWebSearchRegistry(fs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r, fs
}

func TestSearchTool_DefaultsAndOutcome(t *testing.T) {
	r, fs := newTools(t)
	out := r.Execute(context.Background(), ToolCall{ID: "1", Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"golang"}`)})
	if fs.lastReq.MaxResults != 10 || fs.lastReq.Region != "wt-wt" || fs.lastReq.Keywords != "golang" {
		t.Fatalf("unexpected request: %+v", fs.lastReq)
	}
	want := `[{"title":"Go","href":"https://go.dev","body":"The Go language"}]`
	if string(out) != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}

	_ = r.Execute(context.Background(), ToolCall{Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"x","max_results":3,"region":"de-de"}`)})
	if fs.lastReq.MaxResults != 3 || fs.lastReq.Region != "de-de" {
		t.Fatalf("unexpected request: %+v", fs.lastReq)
	}
}

func TestSearchTool_BackendAndProxyReachSearcher(t *testing.T) {
	r, fs := newTools(t)
	out := r.Execute(context.Background(), ToolCall{Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"go","max_results":3,"backend":"serpapi","use_proxy":true}`)})
	if strings.Contains(string(out), "error") {
		t.Fatalf("unexpected outcome: %s", out)
	}
	if fs.lastReq.Backend != "serpapi" || fs.lastReq.UseProxy == nil || !*fs.lastReq.UseProxy {
		t.Fatalf("backend and proxy not forwarded: %+v", fs.lastReq)
	}

	fs.lastReq = websearch.SearchRequest{}
	out = r.Execute(context.Background(), ToolCall{Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"go","backend":"bing"}`)})
	if !strings.Contains(string(out), "invalid arguments") || fs.lastReq.Keywords != "" {
		t.Fatalf("expected unknown backend to be rejected before searching, got %s", out)
	}
}

func TestSearchTool_ErrorIsInBand(t *testing.T) {
	r, fs := newTools(t)
	fs.searchErr = errors.New("all backends failed, last error: boom")
	out := r.Execute(context.Background(), ToolCall{Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"x"}`)})
	if string(out) != `{"error":"all backends failed, last error: boom"}` {
		t.Fatalf("unexpected outcome: %s", out)
	}
}

func TestFetchTool(t *testing.T) {
	r, fs := newTools(t)
	out := r.Execute(context.Background(), ToolCall{Name: FetchToolName, Arguments: json.RawMessage(`{"url":"https://go.dev","mode":"truncate"}`)})
	if string(out) != `{"content":"page text"}` || fs.lastMode != "truncate" {
		t.Fatalf("unexpected outcome: %s mode=%q", out, fs.lastMode)
	}
	out = r.Execute(context.Background(), ToolCall{Name: FetchToolName, Arguments: json.RawMessage(`{"url":"ftp://x"}`)})
	if string(out) != `{"error":"invalid url"}` {
		t.Fatalf("unexpected outcome: %s", out)
	}
	out = r.Execute(context.Background(), ToolCall{Name: FetchToolName, Arguments: json.RawMessage(`{"url":"https://go.dev","mode":"pdf"}`)})
	if !strings.Contains(string(out), "invalid arguments") {
		t.Fatalf("expected schema rejection, got %s", out)
	}
}

func TestExecute_Failures(t *testing.T) {
	r, _ := newTools(t)
	cases := map[string]ToolCall{
		"unknown tool":     {Name: "nope"},
		"invalid json":     {Name: SearchToolName, Arguments: json.RawMessage(`{`)},
		"missing keywords": {Name: SearchToolName},
		"wrong type":       {Name: SearchToolName, Arguments: json.RawMessage(`{"keywords": 3}`)},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			var body map[string]string
			if err := json.Unmarshal(r.Execute(context.Background(), call), &body); err != nil {
				t.Fatalf("result must be JSON: %v", err)
			}
			if body["error"] == "" {
				t.Fatalf("expected in-band error, got %v", body)
			}
		})
	}
}

func TestToolMessages(t *testing.T) {
	r, _ := newTools(t)
	msgs := r.ToolMessages(context.Background(), []ToolCall{
		{ID: "a", Name: SearchToolName, Arguments: json.RawMessage(`{"keywords":"go"}`)},
		{ID: "b", Name: "nope"},
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleTool || msgs[0].ToolCallID != "a" || !strings.HasPrefix(msgs[0].Content, "[") {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if !strings.Contains(msgs[1].Content, "unknown tool") {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
}
