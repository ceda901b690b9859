package main

import (
	"context"

	"go.abhg.dev/loom/internal/ops"
)

type updateCmd struct{}

func (*updateCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.UpdateHandler{Session: session}
	return handler.Update(ctx)
}
