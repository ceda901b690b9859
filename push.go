package main

import (
	"context"

	"go.abhg.dev/loom/internal/config"
	"go.abhg.dev/loom/internal/ops"
)

type pushCmd struct {
	Branch string `arg:"" optional:"" predictor:"branches" help:"Branch to push. Defaults to the integration branch."`
}

func (cmd *pushCmd) Run(ctx context.Context, session *ops.Session, cfg *config.Config) error {
	handler := &ops.PushHandler{Session: session, Config: cfg}
	return handler.Push(ctx, &ops.PushRequest{Branch: cmd.Branch})
}
