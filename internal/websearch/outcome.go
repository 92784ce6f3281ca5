package websearch

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/hyperifyio/websearch/internal/search"
)

// Outcome is the wire form of a search call: a JSON array of results on
// success, {"error": "..."} on failure.
type Outcome struct {
	Results []search.Result
	Err     string
}

// NewOutcome wraps the return values of Search.
func NewOutcome(results []search.Result, err error) Outcome {
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	if results == nil {
		results = []search.Result{}
	}
	return Outcome{Results: results}
}

// Failed reports whether the outcome carries an error.
func (o Outcome) Failed() bool { return o.Err != "" }

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(errorBody{Error: o.Err})
	}
	results := o.Results
	if results == nil {
		results = []search.Result{}
	}
	return json.Marshal(results)
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var results []search.Result
		if err := json.Unmarshal(b, &results); err != nil {
			return err
		}
		*o = Outcome{Results: results}
		return nil
	}
	var e errorBody
	if err := json.Unmarshal(b, &e); err != nil {
		return err
	}
	if e.Error == "" {
		return errors.New("outcome is neither a result list nor an error object")
	}
	*o = Outcome{Err: e.Error}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// ContentOutcome is the wire form of a fetch call.
type ContentOutcome struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewContentOutcome wraps the return values of Fetch.
func NewContentOutcome(content string, err error) ContentOutcome {
	if err != nil {
		return ContentOutcome{Error: err.Error()}
	}
	return ContentOutcome{Content: content}
}

// MarshalJSON always emits the content key on success, even when empty.
func (c ContentOutcome) MarshalJSON() ([]byte, error) {
	if c.Error != "" {
		return json.Marshal(errorBody{Error: c.Error})
	}
	return json.Marshal(struct {
		Content string `json:"content"`
	}{c.Content})
}

// ContentsOutcome is the wire form of a contents call: the provider payload
// under "results", or {"error": "..."}.
type ContentsOutcome struct {
	Results json.RawMessage
	Err     string
}

// NewContentsOutcome wraps the return values of Contents.
func NewContentsOutcome(payload json.RawMessage, err error) ContentsOutcome {
	if err != nil {
		return ContentsOutcome{Err: err.Error()}
	}
	return ContentsOutcome{Results: payload}
}

func (c ContentsOutcome) MarshalJSON() ([]byte, error) {
	if c.Err != "" {
		return json.Marshal(errorBody{Error: c.Err})
	}
	results := c.Results
	if len(bytes.TrimSpace(results)) == 0 {
		results = json.RawMessage("[]")
	}
	return json.Marshal(struct {
		Results json.RawMessage `json:"results"`
	}{results})
}
