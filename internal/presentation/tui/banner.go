package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___ ___   __ _  ___| |__  `, "#34d399"},
	{`  / __/ _ \ / _' |/ __| '_ \ `, "#2dd4bf"},
	{` | (_| (_) | (_| | (__| | | |`, "#22d3ee"},
	{`  \___\___/ \__,_|\___|_| |_|`, "#38bdf8"},
}

// PrintBanner writes the coach banner and a subtitle line to w.
// Colors degrade to whatever the terminal supports (none when piped).
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
