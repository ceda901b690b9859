package main

import (
	"context"

	"go.abhg.dev/loom/internal/ops"
)

type rewordCmd struct {
	Target  string `arg:"" predictor:"branches" help:"Commit to reword."`
	Message string `short:"m" required:"" help:"New commit message."`
}

func (cmd *rewordCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.RewordHandler{Session: session}
	return handler.Reword(ctx, &ops.RewordRequest{Target: cmd.Target, Message: cmd.Message})
}
