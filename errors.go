package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.abhg.dev/loom/internal/loomerr"
)

var (
	_redCross  = color.New(color.FgRed, color.Bold).SprintFunc()
	_blueArrow = color.New(color.FgBlue).SprintFunc()
)

// reportError renders err at the CLI boundary per the error table in
// spec §7: a red cross and the failure, followed by blue hint arrows
// for any remediation loom can suggest for the error's kind.
func reportError(w io.Writer, useColor bool, err error) {
	cross, arrow := "x", "->"
	if useColor {
		cross, arrow = _redCross("x"), _blueArrow("->")
	}

	fmt.Fprintf(w, "%s %v\n", cross, err)

	for _, hint := range hintsFor(err) {
		fmt.Fprintf(w, "  %s %s\n", arrow, hint)
	}
}

// hintsFor maps a loomerr typed error to the remediation hints spec
// §7's error table assigns its kind: InputResolution errors suggest
// how to disambiguate; Precondition errors say what state loom needs;
// RebaseFailed errors point at the conflict markers git already left
// behind.
func hintsFor(err error) []string {
	var (
		conflict  *loomerr.ConflictError
		dirty     *loomerr.DirtyWorkingTreeError
		ambiguous *loomerr.AmbiguousTargetError
		notWoven  *loomerr.NotWovenError
		detached  *loomerr.DetachedHeadError
		noUp      *loomerr.NoUpstreamError
	)

	switch {
	case errors.As(err, &conflict):
		return []string{
			"resolve the conflict markers in the affected files",
			"run 'git add' on resolved files, then re-run the failed command",
			"or abort with 'git rebase --abort' to return to the previous state",
		}
	case errors.As(err, &dirty):
		return []string{"commit, stash, or discard the changes above, then retry"}
	case errors.As(err, &ambiguous):
		hints := make([]string, 0, len(ambiguous.Candidates)+1)
		hints = append(hints, "the target could refer to any of:")
		for _, c := range ambiguous.Candidates {
			hints = append(hints, "  "+c)
		}
		return hints
	case errors.As(err, &notWoven):
		return []string{fmt.Sprintf("create it with 'loom branch %s' first", notWoven.Branch)}
	case errors.As(err, &detached):
		return []string{"check out the integration branch before running loom commands"}
	case errors.As(err, &noUp):
		return []string{fmt.Sprintf("set an upstream with 'git branch --set-upstream-to=<remote>/<branch> %s'", noUp.Branch)}
	default:
		return nil
	}
}
