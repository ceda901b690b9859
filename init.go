package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"go.abhg.dev/loom/internal/ops"
)

type initCmd struct {
	Name     string `arg:"" optional:"" default:"loom" help:"Name of the integration branch to create."`
	Upstream string `help:"Branch to track. Auto-detected when omitted."`
}

func (cmd *initCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.InitHandler{Session: session}

	upstream := cmd.Upstream
	if upstream == "" {
		detected, candidates, err := handler.DetectUpstream(ctx)
		if err != nil {
			return err
		}
		upstream = detected
		if upstream == "" {
			if err := huh.NewSelect[string]().
				Title("Which branch should loom track?").
				Options(stringOptions(candidates)...).
				Value(&upstream).
				Run(); err != nil {
				return fmt.Errorf("select upstream: %w", err)
			}
		}
	}

	return handler.Init(ctx, &ops.InitRequest{Name: cmd.Name, Upstream: upstream})
}

func stringOptions(values []string) []huh.Option[string] {
	opts := make([]huh.Option[string], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(v, v)
	}
	return opts
}
