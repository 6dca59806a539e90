package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the bngenvs banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" _                                   ", "#f97316"},
		{"| |__  _ __   __ _  ___ _ ____   _____", "#fb923c"},
		{"| '_ \\| '_ \\ / _` |/ _ \\ '_ \\ \\ / / __|", "#fbbf24"},
		{"| |_) | | | | (_| |  __/ | | \\ V /\\__ \\", "#facc15"},
		{"|_.__/|_| |_|\\__, |\\___|_| |_|\\_/ |___/", "#a3e635"},
		{"             |___/                     ", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colours a run outcome for terminal tables.
func Status(w io.Writer, complete, finished bool) string {
	out := termenv.NewOutput(w)
	switch {
	case !complete:
		return out.String("incomplete").Foreground(out.Color("#f87171")).String()
	case finished:
		return out.String("finished").Foreground(out.Color("#4ade80")).String()
	default:
		return out.String("unfinished").Foreground(out.Color("#facc15")).String()
	}
}
