package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the keyseq banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`  _                             `, "#34d399"},
		{` | | _____ _   _ ___  ___  __ _ `, "#2dd4bf"},
		{` | |/ / _ \ | | / __|/ _ \/ _` + "`" + ` |`, "#22d3ee"},
		{` |   <  __/ |_| \__ \  __/ (_| |`, "#38bdf8"},
		{` |_|\_\___|\__, |___/\___|\__, |`, "#60a5fa"},
		{`           |___/             |_|`, "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
