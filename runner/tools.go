package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pushci/receiver/execute"
)

// Tools runs the analyzer and the test runner against a checkout. An error
// means the tool could not run to completion (missing binary, timeout); a
// tool that ran and reported problems returns its output and a nil error.
type Tools interface {
	Lint(ctx context.Context, dir string) (string, error)
	Test(ctx context.Context, dir string) (string, error)
}

type CommandToolsOpts struct {
	LintCommand []string
	TestCommand []string
	LintTimeout time.Duration
	TestTimeout time.Duration
}

// CommandTools runs configured argv vectors. The lint command receives the
// checkout path as its last argument; the test command runs inside it.
type CommandTools struct {
	log  *zap.Logger
	opts CommandToolsOpts
}

// SplitCommand splits a command line on whitespace. No shell is involved, so
// quoting is not interpreted.
func SplitCommand(line string) ([]string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

func NewCommandTools(opts CommandToolsOpts) (*CommandTools, error) {
	if len(opts.LintCommand) == 0 || len(opts.TestCommand) == 0 {
		return nil, errors.New("lint and test commands are required")
	}
	return &CommandTools{
		log:  zap.L().With(zap.String("facility", "tools")),
		opts: opts,
	}, nil
}

func (c *CommandTools) run(ctx context.Context, name string, timeout time.Duration, args []string, cwd string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout, stderr, err := execute.Exec2(ctx, args, &execute.Opts{Cwd: cwd})
	out := ""
	if stdout != nil {
		out = stdout.String()
	}
	if err == nil {
		return out, nil
	}

	var startErr execute.StartError
	if errors.As(err, &startErr) || errors.Is(err, execute.ErrTimeout) || ctx.Err() != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}

	// Non-zero exit statuses are how these tools report findings.
	errOut := ""
	if stderr != nil {
		errOut = strings.TrimSpace(stderr.String())
	}
	c.log.Debug("Tool exited with non-zero status",
		zap.String("tool", name),
		zap.Int("exit_code", execute.ExitCode(err)),
		zap.String("stderr", errOut))
	return out, nil
}

func (c *CommandTools) Lint(ctx context.Context, dir string) (string, error) {
	args := append(append([]string{}, c.opts.LintCommand...), dir)
	return c.run(ctx, "lint", c.opts.LintTimeout, args, dir)
}

func (c *CommandTools) Test(ctx context.Context, dir string) (string, error) {
	return c.run(ctx, "test", c.opts.TestTimeout, c.opts.TestCommand, dir)
}
