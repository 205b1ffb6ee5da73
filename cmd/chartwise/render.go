package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/casualjim/chartwise/analysis"
	"github.com/casualjim/chartwise/events"
	"github.com/casualjim/chartwise/prompt"
	"github.com/casualjim/chartwise/provider"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
)

func writeProviders(ctx context.Context, w io.Writer, all []provider.Provider) {
	for _, p := range all {
		status := color.GreenString("configured")
		if !p.HasSecret(ctx) {
			status = color.RedString("missing %s", p.SecretKeyName())
		}
		fmt.Fprintf(w, "%-10s %-10s %-22s %s\n", p.ID(), p.DisplayName(), p.DefaultModel(), status)
	}
}

func writeTemplates(w io.Writer, all []prompt.Template) {
	for _, t := range all {
		fmt.Fprintf(w, "%s %s", color.CyanString(t.ID), t.Name)
		if t.Version != "" {
			fmt.Fprintf(w, " (v%s)", t.Version)
		}
		fmt.Fprintln(w)
		if t.Description != "" {
			fmt.Fprintf(w, "  %s\n", t.Description)
		}
		for _, key := range t.CategoryKeys() {
			cfg, _ := t.Category(key)
			schema := "<no schema>"
			if cfg.OutputSchema != nil {
				schema = cfg.OutputSchema.Name
			}
			fmt.Fprintf(w, "  - %s -> %s\n", key, schema)
		}
	}
}

// reportMarkdown renders results as a markdown document, one section per category.
func reportMarkdown(title string, items []analysis.BatchItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, item := range items {
		fmt.Fprintf(&b, "\n## %s\n\n", item.CategoryKey)
		r := item.Result
		if !r.Success {
			fmt.Fprintf(&b, "**Failed:** %s\n", r.Error)
			continue
		}

		resp := r.Data
		fmt.Fprintf(&b, "_%s · %s · %d tokens · %dms", resp.Provider, resp.Model, resp.Usage.TotalTokens, resp.DurationMS)
		if resp.KeyUsed > 0 {
			fmt.Fprintf(&b, " · key %d", resp.KeyUsed)
		}
		if resp.IsReasoning {
			b.WriteString(" · reasoning output")
		}
		b.WriteString("_\n\n")
		fmt.Fprintf(&b, "```json\n%s\n```\n", prettyJSON(resp.Content()))
	}
	return b.String()
}

func prettyJSON(content string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(content)), "", "  "); err != nil {
		return content
	}
	return buf.String()
}

func renderMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// progressHook prints one line per lifecycle event.
type progressHook struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *progressHook) OnStarted(_ context.Context, e events.Started) {
	p.printf("%s %s via %s\n", color.YellowString("…"), e.CategoryKey, e.ProviderID)
}

func (p *progressHook) OnCompleted(_ context.Context, e events.Completed) {
	p.printf("%s %s in %dms (%s, %d tokens)\n", color.GreenString("✓"), e.CategoryKey, e.DurationMS, e.Model, e.Usage.TotalTokens)
}

func (p *progressHook) OnFailed(_ context.Context, e events.Failed) {
	p.printf("%s %s: %s\n", color.RedString("✗"), e.CategoryKey, e.Error)
}

func (p *progressHook) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// sortedKeys returns the keys of a credential map in a stable order.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
