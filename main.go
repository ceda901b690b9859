// Command loom manages a woven integration branch: a single branch
// whose history interleaves the commits of many logical lines of work,
// each addressable as its own lightweight branch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"go.abhg.dev/komplete"
	"go.abhg.dev/loom/internal/cli/shorthand"
	"go.abhg.dev/loom/internal/config"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/silog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	log := silog.New(os.Stderr, &silog.Options{Level: silog.LevelInfo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		select {
		case <-sigc:
			log.Warn("Interrupted. Press Ctrl-C again to exit immediately.")
			cancel()
		case <-ctx.Done():
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("loom"),
		kong.Description("loom weaves many lightweight branches into a single integration branch."),
		kong.UsageOnError(),
		kong.Bind(log),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loom:", err)
		return 1
	}

	komplete.Run(parser,
		komplete.WithPredictor("branches", predictBranches),
		komplete.WithPredictor("remotes", predictRemotes),
	)

	kctx, err := parser.Parse(expandShorthands(parser, args))
	if err != nil {
		fmt.Fprintln(os.Stderr, "loom:", err)
		return 1
	}

	if err := kctx.Run(); err != nil {
		reportError(os.Stderr, useColor, err)
		return 1
	}

	return 0
}

// expandShorthands expands the leading argument of args against both
// the built-in, kong-alias-derived shorthand source and whatever
// project/user shorthands loom.shorthand.* and .loom.yml define, per
// SPEC_FULL.md's shorthand expansion feature. Builtin shorthands are
// tried first, so a project shorthand can never silently shadow one
// derived from a command's own alias.
//
// A repository-backed [config.Config] is built with a bare
// [git.Config] rather than a full [git.Open], since shorthand
// expansion must run before subcommand parsing -- and therefore before
// CLI.AfterApply would otherwise open the repository. Any failure
// here (no repository, no config) just means no project shorthands
// apply; the built-in source still works everywhere.
func expandShorthands(parser *kong.Kong, args []string) []string {
	sources := shorthand.Sources{}

	if builtin, err := shorthand.NewBuiltin(parser.Model); err == nil {
		sources = append(sources, builtin)
	}

	if cwd, err := os.Getwd(); err == nil {
		gitCfg := git.NewConfig(git.ConfigOptions{Dir: cwd})
		if cfg, err := config.Load(context.Background(), gitCfg, cwd, nil); err == nil {
			sources = append(sources, cfg)
		}
	}

	return shorthand.Expand(sources, args)
}
