package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"go.abhg.dev/loom/internal/ops"
)

type absorbCmd struct {
	DryRun bool     `help:"Report the plan without committing or rebasing."`
	Files  []string `arg:"" optional:"" type:"path" help:"Restrict absorption to these files. Defaults to every pending change."`
}

func (cmd *absorbCmd) Run(ctx context.Context, session *ops.Session) error {
	handler := &ops.AbsorbHandler{Session: session}
	plan, err := handler.Absorb(ctx, &ops.AbsorbRequest{Files: cmd.Files, DryRun: cmd.DryRun})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, fixup := range plan.Fixups {
		verb := "Absorbed"
		if cmd.DryRun {
			verb = "Would absorb"
		}
		fmt.Fprintf(tw, "%s\t%s\t-> %s\n", verb, fmt.Sprint(fixup.Files), fixup.Target.Short())
	}
	for _, skip := range plan.Skipped {
		fmt.Fprintf(tw, "Skipped\t%s\t%s\n", skip.File, skip.Reason)
	}

	return nil
}
