package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/ops"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/sliceutil"
)

type splitCmd struct {
	Target   string   `arg:"" predictor:"branches" help:"Commit or branch to split."`
	Files    []string `help:"Files to place in the first commit. Prompted for interactively when omitted."`
	MessageA string   `name:"message-a" short:"1" help:"Message for the first commit."`
	MessageB string   `name:"message-b" short:"2" help:"Message for the second commit."`
}

func (cmd *splitCmd) Run(ctx context.Context, session *ops.Session, repo *git.Repository, scanner *scan.Scanner) error {
	filesA := cmd.Files
	if len(filesA) == 0 {
		info, err := scanner.Scan(ctx)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		target, err := ops.ResolveTarget(ctx, repo, info, cmd.Target)
		if err != nil {
			return err
		}
		if target.Kind != ops.TargetCommit {
			return fmt.Errorf("split: %s is not a commit", cmd.Target)
		}

		files, err := sliceutil.CollectErr(repo.DiffTree(ctx, target.Commit.String()+"^", target.Commit.String()))
		if err != nil {
			return fmt.Errorf("diff-tree: %w", err)
		}

		options := make([]huh.Option[string], len(files))
		for i, f := range files {
			options[i] = huh.NewOption(f.Path, f.Path)
		}
		var selected []string
		if err := huh.NewMultiSelect[string]().
			Title(fmt.Sprintf("Select the files for the first commit split from %s", cmd.Target)).
			Options(options...).
			Value(&selected).
			Run(); err != nil {
			return fmt.Errorf("select files: %w", err)
		}
		filesA = selected
	}

	handler := &ops.SplitHandler{Session: session}
	return handler.Split(ctx, &ops.SplitRequest{
		Target:   cmd.Target,
		FilesA:   filesA,
		MessageA: cmd.MessageA,
		MessageB: cmd.MessageB,
	})
}
