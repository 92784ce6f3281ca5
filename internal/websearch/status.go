package websearch

import (
	"bytes"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// BackendStatus describes one registered backend.
type BackendStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Preferred bool   `json:"preferred"`
}

// Status is a snapshot of the current configuration.
type Status struct {
	Backends         []BackendStatus `json:"backends"`
	PreferredBackend string          `json:"preferred_backend"`
	EnableFallback   bool            `json:"enable_fallback"`
	ShowSnippet      bool            `json:"show_snippet"`
	ProxyConfigured  bool            `json:"proxy_configured"`
}

// Status reports availability of every registered backend.
func (a *API) Status() Status {
	st := a.state.Load()
	s := Status{
		PreferredBackend: st.cfg.PreferredBackend,
		EnableFallback:   st.cfg.EnableFallback,
		ShowSnippet:      st.cfg.ShowSnippet,
		ProxyConfigured:  st.cfg.Proxy.HasCredentials(),
	}
	for _, name := range st.registry.Names() {
		b, _ := st.registry.Get(name)
		s.Backends = append(s.Backends, BackendStatus{
			Name:      name,
			Available: b.Available(),
			Preferred: name == st.cfg.PreferredBackend,
		})
	}
	return s
}

// WriteStatus renders Status as a markdown table followed by the global settings.
func (a *API) WriteStatus(w io.Writer) error {
	s := a.Status()
	if err := s.writeBackends(w); err != nil {
		return err
	}

	preferred := s.PreferredBackend
	if preferred == "" {
		preferred = "auto"
	}
	settings := newTable(w, []string{"Setting", "Value"})
	_ = settings.Append([]string{"preferred backend", preferred})
	_ = settings.Append([]string{"fallback", strconv.FormatBool(s.EnableFallback)})
	_ = settings.Append([]string{"snippets", strconv.FormatBool(s.ShowSnippet)})
	_ = settings.Append([]string{"proxy", strconv.FormatBool(s.ProxyConfigured)})
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return settings.Render()
}

// String renders the status table.
func (s Status) String() string {
	var buf bytes.Buffer
	_ = s.writeBackends(&buf)
	return buf.String()
}

func (s Status) writeBackends(w io.Writer) error {
	table := newTable(w, []string{"Backend", "Available", "Preferred"})
	for _, b := range s.Backends {
		_ = table.Append([]string{b.Name, mark(b.Available), mark(b.Preferred)})
	}
	return table.Render()
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
	)
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
