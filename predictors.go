package main

import (
	"context"
	"time"

	"go.abhg.dev/komplete"
	"go.abhg.dev/loom/internal/git"
)

// predictBranches completes branch names for commands' predictor:"branches"
// tags, per SPEC_FULL.md's supplemented shell-completion feature. It
// opens its own short-lived repository handle rather than reusing
// CLI.AfterApply's, since completion runs before any command is
// selected.
func predictBranches(_ komplete.Args) []string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	repo, err := git.Open(ctx, ".", git.OpenOptions{})
	if err != nil {
		return nil
	}

	var names []string
	for b, err := range repo.LocalBranches(ctx, nil) {
		if err != nil {
			return names
		}
		names = append(names, b.Name)
	}
	return names
}

func predictRemotes(_ komplete.Args) []string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	repo, err := git.Open(ctx, ".", git.OpenOptions{})
	if err != nil {
		return nil
	}

	remotes, err := repo.ListRemotes(ctx)
	if err != nil {
		return nil
	}
	return remotes
}
