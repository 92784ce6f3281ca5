package search

import (
	"context"
	"encoding/json"
	"os"
	"strings"
)

// File serves results from a local JSON file for offline runs. The file is
// an array of {"title", "href" or "url", "body" or "snippet"} objects and is
// re-read on every search.
type File struct {
	path        string
	showSnippet bool
}

// NewFile returns a backend that is available only when path is non-empty.
func NewFile(path string, showSnippet bool) *File {
	return &File{path: strings.TrimSpace(path), showSnippet: showSnippet}
}

func (f *File) Name() string { return FileName }

func (f *File) Available() bool { return f.path != "" }

type fileEntry struct {
	Title   string `json:"title"`
	Href    string `json:"href"`
	URL     string `json:"url"`
	Body    string `json:"body"`
	Snippet string `json:"snippet"`
}

// Search returns entries whose title or body contains the keywords,
// case-insensitively. Empty keywords match everything.
func (f *File) Search(_ context.Context, q Query) ([]Result, error) {
	if done, res, err := precheck(f, q); done {
		return res, err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, newError(f.Name(), ErrTransport, err, "read results file")
	}
	var raw []fileEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, newError(f.Name(), ErrParse, err, "decode results file")
	}
	needle := strings.ToLower(strings.TrimSpace(q.Keywords))
	out := make([]Result, 0, min(len(raw), q.MaxResults))
	for _, e := range raw {
		href := e.Href
		if href == "" {
			href = e.URL
		}
		body := e.Body
		if body == "" {
			body = e.Snippet
		}
		if href == "" || e.Title == "" {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Title), needle) && !strings.Contains(strings.ToLower(body), needle) {
			continue
		}
		out = append(out, newResult(e.Title, href, body, f.showSnippet))
		if len(out) >= q.MaxResults {
			break
		}
	}
	return out, nil
}
