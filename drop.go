package main

import (
	"context"

	"go.abhg.dev/loom/internal/ops"
)

type dropCmd struct {
	Target string `arg:"" predictor:"branches" help:"Commit or branch to drop from the weave."`
}

func (cmd *dropCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.DropHandler{Session: session}
	return handler.Drop(ctx, cmd.Target)
}
