package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrTimeout is returned when a command is killed because its context
// deadline expired.
var ErrTimeout = errors.New("command timed out")

func mergeEnvs(newEnvs map[string]string) []string {
	if newEnvs == nil {
		newEnvs = map[string]string{}
	}
	envs := make([]string, 0, len(newEnvs))
	for k, v := range newEnvs {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}

	for _, v := range os.Environ() {
		prefixIndex := strings.Index(v, "=")
		if prefixIndex < 0 {
			continue
		}
		if _, ok := newEnvs[v[0:prefixIndex]]; !ok {
			envs = append(envs, v)
		}
	}

	return envs
}

type Opts struct {
	Cwd  string
	Envs map[string]string
}

// StartError indicates the command could not be started at all, as opposed
// to a command that ran and exited with a non-zero status.
type StartError struct {
	Command string
	Err     error
}

func (e StartError) Error() string {
	return fmt.Sprintf("cannot start %s: %s", e.Command, e.Err)
}

func (e StartError) Unwrap() error { return e.Err }

// Exec2 runs args[0] with the remaining arguments, never through a shell.
func Exec2(ctx context.Context, args []string, opts *Opts) (stdout, stderr *bytes.Buffer, err error) {
	if len(args) == 0 {
		panic("exec2 called without arguments")
	}

	if opts == nil {
		opts = &Opts{}
	}

	cmdName := args[0]
	binPath, err := exec.LookPath(cmdName)
	if err != nil {
		return &bytes.Buffer{}, &bytes.Buffer{}, StartError{Command: cmdName, Err: err}
	}

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, binPath, args[1:]...)
	cmd.Dir = opts.Cwd
	cmd.Env = mergeEnvs(opts.Envs)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err = cmd.Start(); err != nil {
		return &outBuf, &errBuf, StartError{Command: cmdName, Err: err}
	}

	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &outBuf, &errBuf, fmt.Errorf("%s: %w", cmdName, ErrTimeout)
		}
		return &outBuf, &errBuf, ctxErr
	}
	return &outBuf, &errBuf, err
}

func Exec(ctx context.Context, args []string, opts *Opts) (*bytes.Buffer, error) {
	stdOut, _, err := Exec2(ctx, args, opts)
	return stdOut, err
}

// ExitCode returns the exit status carried by err, 0 for a nil error and -1
// when err did not come from a finished process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
