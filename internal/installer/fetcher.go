package installer

import (
	"context"
	"os/exec"

	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/shell"
)

// Fetcher retrieves remote package sources.
type Fetcher interface {
	// Clone copies the repository at url into dir, which must be missing
	// or empty.
	Clone(ctx context.Context, url, dir string) error
	// Checkout switches the working tree in dir to branch.
	Checkout(ctx context.Context, dir, branch string) error
}

// GitFetcher fetches sources with the git command line.
type GitFetcher struct {
	runner   *shell.Runner
	lookPath func(string) (string, error)
}

// NewGitFetcher returns a Fetcher that runs git through runner.
func NewGitFetcher(runner *shell.Runner) *GitFetcher {
	return &GitFetcher{runner: runner, lookPath: exec.LookPath}
}

// Clone runs `git clone --verbose url dir`.
func (g *GitFetcher) Clone(ctx context.Context, url, dir string) error {
	if err := g.ensureGit(); err != nil {
		return err
	}
	_, err := g.runner.Spawn(ctx, shell.Command{
		Name:  "git",
		Args:  []string{"clone", "--verbose", url, dir},
		Check: true,
	})
	if err != nil {
		return errs.ExternalCommand("clone", "cloning %s: %w", url, err)
	}
	return nil
}

// Checkout runs `git checkout branch` inside dir.
func (g *GitFetcher) Checkout(ctx context.Context, dir, branch string) error {
	if err := g.ensureGit(); err != nil {
		return err
	}
	_, err := g.runner.Spawn(ctx, shell.Command{
		Name:  "git",
		Args:  []string{"checkout", branch},
		Dir:   dir,
		Check: true,
	})
	if err != nil {
		return errs.ExternalCommand("checkout", "checking out %s: %w", branch, err)
	}
	return nil
}

func (g *GitFetcher) ensureGit() error {
	if _, err := g.lookPath("git"); err != nil {
		return errs.ExternalCommand("git", "git is not installed or not on PATH: %w", err)
	}
	return nil
}
