package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Conduit banner with the release version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct{ text, color string }{
		{"   ___                _       _ _   ", "#818cf8"},
		{"  / __\\___  _ __   __| |_   _(_) |_ ", "#a78bfa"},
		{" / /  / _ \\| '_ \\ / _` | | | | | __|", "#c084fc"},
		{"/ /__| (_) | | | | (_| | |_| | | |_ ", "#e879f9"},
		{"\\____/\\___/|_| |_|\\__,_|\\__,_|_|\\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  symbolic stack executor "+version).Faint())
	fmt.Fprintln(w)
}

// Outcome colours a path outcome label for terminal output.
func Outcome(w io.Writer, failed bool) string {
	out := termenv.NewOutput(w)
	if failed {
		return out.String("FAILED").Foreground(out.ColorProfile().Color("#fb7185")).Bold().String()
	}
	return out.String("OK").Foreground(out.ColorProfile().Color("#34d399")).Bold().String()
}
