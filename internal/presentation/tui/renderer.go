package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/keyseq/pkg/registry"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// SequenceMarkdown describes a catalog entry as markdown.
func SequenceMarkdown(e registry.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Name)
	if e.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", e.Description)
	}
	origin := "stored"
	if e.Builtin {
		origin = "built-in"
	}
	fmt.Fprintf(&b, "*%s, %d keys*\n\n", origin, len(e.Keys))
	b.WriteString("| # | Key |\n|---|-----|\n")
	for i, k := range e.Keys {
		fmt.Fprintf(&b, "| %d | `%s` |\n", i+1, k)
	}
	if !e.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "\nRecorded %s\n", e.CreatedAt.Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}
