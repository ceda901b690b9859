package main

import (
	"context"

	"go.abhg.dev/loom/internal/ops"
)

type branchCreateCmd struct {
	Name   string `arg:"" help:"Name of the branch to create."`
	Target string `arg:"" optional:"" predictor:"branches" help:"Commit or branch to create it at. Defaults to the merge-base."`
}

func (cmd *branchCreateCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.BranchCreateHandler{Session: session}
	return handler.Create(ctx, &ops.BranchCreateRequest{Name: cmd.Name, Target: cmd.Target})
}
