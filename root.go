package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.abhg.dev/komplete"
	"go.abhg.dev/loom/internal/config"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/ops"
	"go.abhg.dev/loom/internal/rebase"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/silog"
)

// CLI is loom's root command. Every subcommand field is wired up here;
// AfterApply opens the repository and worktree once, and binds the
// collaborators every subcommand's Run method needs.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Status statusCmd `cmd:"" default:"1" aliases:"st" help:"Show the woven integration branch as a graph."`
	Log    logCmd    `cmd:"" aliases:"l" help:"Show the integration branch's commit history."`
	Init   initCmd   `cmd:"" aliases:"i" help:"Create a new integration branch."`

	Branch branchCreateCmd `cmd:"" name:"branch" aliases:"b" help:"Create a lightweight branch."`
	Commit commitCmd       `cmd:"" aliases:"c" help:"Commit staged changes onto a branch's section."`
	Absorb absorbCmd       `cmd:"" aliases:"ab" help:"Fold pending changes back into the commits that introduced them."`
	Split  splitCmd        `cmd:"" aliases:"sp" help:"Partition a commit's changes into two commits."`
	Drop   dropCmd         `cmd:"" aliases:"d" help:"Remove a commit or branch from the weave."`
	Fold   foldCmd         `cmd:"" aliases:"f" help:"Fold a commit, or pending changes, into another commit."`
	Reword rewordCmd       `cmd:"" aliases:"r" help:"Change a commit's message."`

	Push   pushCmd   `cmd:"" aliases:"p" help:"Push the integration branch to its upstream remote."`
	Update updateCmd `cmd:"" aliases:"u" help:"Pull the latest upstream changes, rebasing the weave onto them."`

	Completions completionsCmd `cmd:"" help:"Generate shell completion scripts."`

	InternalWriteTodo internalWriteTodoCmd `cmd:"" hidden:"" name:"internal-write-todo"`
}

// AfterApply opens the repository and its worktree at the current
// directory, loads configuration, and binds every collaborator the
// chosen subcommand's Run method might ask for. It runs once, after
// flags are parsed but before the selected command's own Run.
func (cli *CLI) AfterApply(kctx *kong.Context, log *silog.Logger) error {
	if cli.Verbose {
		log.SetLevel(silog.LevelDebug)
	}

	// The hidden write-todo subcommand, and shell completion
	// generation, run outside any repository.
	switch kctx.Selected().Name {
	case "internal-write-todo", "completions":
		return nil
	}

	ctx := context.Background()
	repo, err := git.Open(ctx, ".", git.OpenOptions{Log: log})
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.OpenWorktree(ctx, ".")
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	gitCfg := git.NewConfig(git.ConfigOptions{Dir: wt.RootDir(), Log: log})
	cfg, err := config.Load(ctx, gitCfg, wt.RootDir(), log)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	scanner := scan.New(repo, wt, log)
	driver := rebase.New(wt, log)

	session := &ops.Session{
		Log:        log,
		Repository: repo,
		Worktree:   wt,
		Scanner:    scanner,
		Driver:     driver,
	}

	kctx.Bind(repo)
	kctx.Bind(wt)
	kctx.Bind(cfg)
	kctx.Bind(session)
	kctx.Bind(scanner)
	return nil
}

type statusCmd struct{}

func (*statusCmd) Run(ctx context.Context, scanner *scan.Scanner) error {
	info, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderGraph(info))
	return nil
}

type logCmd struct{}

func (*logCmd) Run(ctx context.Context, scanner *scan.Scanner) error {
	info, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderGraph(info))
	return nil
}

// completionsCmd wraps the shared shell-completion generator, per
// SPEC_FULL.md's supplemented shell-completion feature.
type completionsCmd struct {
	*komplete.Command `embed:""`
}

func (c *completionsCmd) Help() string {
	return "Generates a shell completion script for bash, zsh, or fish.\n\n" +
		"To install it, add the generated script to your shell's rc file:\n\n" +
		"\tloom completions bash >> ~/.bashrc\n" +
		"\tloom completions zsh >> ~/.zshrc\n" +
		"\tloom completions fish >> ~/.config/fish/config.fish"
}

// internalWriteTodoCmd is invoked by git itself, as GIT_SEQUENCE_EDITOR,
// while a [rebase.Driver] drives an interactive rebase: it copies the
// prepared todo file at --source over the path git passes as its sole
// positional argument.
type internalWriteTodoCmd struct {
	Source string   `name:"source" required:"" help:"Path to the prepared todo file."`
	Path   []string `arg:"" optional:"" help:"Path git wants the todo script written to."`
}

func (cmd *internalWriteTodoCmd) Run() error {
	if len(cmd.Path) != 1 {
		return fmt.Errorf("internal-write-todo: expected exactly one path argument, got %d", len(cmd.Path))
	}

	data, err := os.ReadFile(cmd.Source)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.Source, err)
	}
	if err := os.WriteFile(cmd.Path[0], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Path[0], err)
	}
	return nil
}
