package main

import (
	"context"

	"go.abhg.dev/loom/internal/ops"
)

type commitCmd struct {
	Branch  string   `arg:"" predictor:"branches" help:"Branch whose section the new commit lands on."`
	Message string   `short:"m" help:"Commit message."`
	Files   []string `arg:"" optional:"" type:"path" help:"Restrict staging to these files. Defaults to every pending change."`
}

func (cmd *commitCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.CommitHandler{Session: session}
	return handler.Commit(ctx, &ops.CommitRequest{
		Branch:  cmd.Branch,
		Message: cmd.Message,
		Files:   cmd.Files,
	})
}
