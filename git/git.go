package git

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pushci/receiver/execute"
)

type Client interface {
	// Clone clones url into dir, fetches every branch and checks out sha.
	Clone(ctx context.Context, url, dir, sha string) error
	// Pull updates the checkout at dir from its upstream.
	Pull(ctx context.Context, dir string) error
}

func New() Client {
	return &client{log: zap.L().With(zap.String("facility", "git"))}
}

type client struct {
	log *zap.Logger
}

// CommandError carries the output of a failed git invocation.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e CommandError) Error() string {
	return fmt.Sprintf("git %s: %s: %s", strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Output))
}

func (e CommandError) Unwrap() error { return e.Err }

func (c *client) run(ctx context.Context, args ...string) error {
	stdout, stderr, err := execute.Exec2(ctx, append([]string{"git"}, args...), &execute.Opts{
		Envs: map[string]string{"GIT_TERMINAL_PROMPT": "0"},
	})
	if err != nil {
		out := ""
		if stderr != nil {
			out = stderr.String()
		}
		if out == "" && stdout != nil {
			out = stdout.String()
		}
		return CommandError{Args: args, Output: out, Err: err}
	}
	return nil
}

func (c *client) Clone(ctx context.Context, url, dir, sha string) error {
	c.log.Info("Cloning repository", zap.String("url", url), zap.String("dir", dir))
	// "--" keeps a hostile URL from being read as an option.
	if err := c.run(ctx, "clone", "--depth=1", "--no-single-branch", "--", url, dir); err != nil {
		return err
	}

	// The commit may live on any branch, and may be deeper than the shallow
	// clone reached.
	if err := c.run(ctx, "-C", dir, "fetch", "--all", "--quiet"); err != nil {
		return err
	}
	if err := c.run(ctx, "-C", dir, "checkout", "--quiet", "--force", sha); err != nil {
		c.log.Info("Commit not reachable from shallow clone, deepening", zap.String("sha", sha))
		if err := c.run(ctx, "-C", dir, "fetch", "--quiet", "origin", sha); err != nil {
			return err
		}
		return c.run(ctx, "-C", dir, "checkout", "--quiet", "--force", sha)
	}
	return nil
}

func (c *client) Pull(ctx context.Context, dir string) error {
	c.log.Info("Pulling repository", zap.String("dir", dir))
	return c.run(ctx, "-C", dir, "pull", "--ff-only")
}
