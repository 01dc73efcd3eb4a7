// Package graph renders sequences as Mermaid diagrams.
package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
)

// Overlay contains the live matcher state to visualize on the graph.
type Overlay struct {
	// Position is the number of keys already matched.
	Position int
}

// Options tune the rendered diagram.
type Options struct {
	// Timeout annotates the reset edges when positive.
	Timeout time.Duration
	// ResetOnMismatch draws the wrong-key reset edges.
	ResetOnMismatch bool
}

// GenerateMermaid produces a Mermaid flowchart of the matcher for def.
// Each state is the number of keys matched so far:
// - Start: ((Circle))
// - Intermediate: [Rectangle]
// - Match: (((Double circle)))
// Dotted edges lead back to the start on a wrong key or a timeout.
// Overlay styles (visited/current) are applied when overlay is not nil.
func GenerateMermaid(def domain.Definition, opts Options, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	total := len(def.Keys)
	for i := 0; i <= total; i++ {
		switch {
		case i == 0:
			fmt.Fprintf(&sb, "    %s((\"start\"))\n", stateID(i))
		case i == total:
			fmt.Fprintf(&sb, "    %s(((\"%s\")))\n", stateID(i), escape(def.Name))
		default:
			fmt.Fprintf(&sb, "    %s[\"%d/%d\"]\n", stateID(i), i, total)
		}
	}

	for i, key := range def.Keys {
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", stateID(i), escape(key), stateID(i+1))
	}

	// The start state has no progress to lose.
	var reasons []string
	if opts.ResetOnMismatch {
		reasons = append(reasons, "wrong key")
	}
	if opts.Timeout > 0 {
		reasons = append(reasons, "⏱️ "+opts.Timeout.String())
	}
	if len(reasons) > 0 {
		label := strings.Join(reasons, " / ")
		for i := 1; i < total; i++ {
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", stateID(i), label, stateID(0))
		}
	}
	if total > 0 {
		fmt.Fprintf(&sb, "    %s -.-> %s\n", stateID(total), stateID(0))
	}

	if overlay != nil {
		pos := overlay.Position
		if pos < 0 {
			pos = 0
		}
		if pos > total {
			pos = total
		}
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for i := 0; i < pos; i++ {
			fmt.Fprintf(&sb, "    class %s visited;\n", stateID(i))
		}
		fmt.Fprintf(&sb, "    class %s current;\n", stateID(pos))
	}

	return sb.String()
}

func stateID(i int) string {
	return fmt.Sprintf("s%d", i)
}

// escape keeps labels inside their double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
