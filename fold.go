package main

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/ops"
)

// foldCmd takes its sources and target as one trailing positional list,
// since kong only allows a single greedy positional argument: the last
// element is the target, and everything before it is a source, matching
// the 'fold <source>... <target>' CLI surface.
type foldCmd struct {
	Args []string `arg:"" name:"source-or-target" help:"Sources to fold, followed by the target they fold into."`
}

func (cmd *foldCmd) Run(ctx context.Context, session *ops.Session) error {
	if len(cmd.Args) < 2 {
		return fmt.Errorf("fold: expected one or more sources followed by a target")
	}
	target := cmd.Args[len(cmd.Args)-1]
	sources := cmd.Args[:len(cmd.Args)-1]

	handler := &ops.FoldHandler{Session: session}
	return handler.Fold(ctx, &ops.FoldRequest{Sources: sources, Target: target})
}
