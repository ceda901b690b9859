package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/ui"
)

// renderGraph renders info for the terminal, detecting color support
// from stdout rather than stderr, since the graph itself (unlike log
// messages) is the command's primary output.
func renderGraph(info *scan.RepoInfo) string {
	return ui.Render(info, isatty.IsTerminal(os.Stdout.Fd()))
}
