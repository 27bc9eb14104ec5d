package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pushci/receiver/api"
	"github.com/pushci/receiver/event"
	"github.com/pushci/receiver/git"
	"github.com/pushci/receiver/metrics"
	"github.com/pushci/receiver/notify"
	"github.com/pushci/receiver/storage"
)

const defaultStatusAttempts = 3

var nowFunc = time.Now

type Opts struct {
	API      api.Client
	Git      git.Client
	Tools    Tools
	Notifier notify.Notifier
	Storage  storage.Base
	// Locker defaults to an in-memory lock table.
	Locker Locker

	WorkspaceRoot string
	LogBaseURL    string
	CloneTimeout  time.Duration
	// StatusAttempts bounds retries of each commit status update.
	StatusAttempts int

	// MainRef and SelfUpdateDir enable pulling this server's own checkout
	// after a successful run on MainRef. An empty SelfUpdateDir disables it.
	MainRef       string
	SelfUpdateDir string
}

type Runner struct {
	log  *zap.Logger
	opts Opts
}

func New(opts Opts) *Runner {
	if opts.Locker == nil {
		opts.Locker = NewMemoryLocker()
	}
	if opts.StatusAttempts <= 0 {
		opts.StatusAttempts = defaultStatusAttempts
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = os.TempDir()
	}
	return &Runner{
		log:  zap.L().With(zap.String("facility", "runner")),
		opts: opts,
	}
}

// Result describes a finished run.
type Result struct {
	LogName     string
	State       api.State
	Description string
	Outcome     Outcome
	SelfUpdated bool
}

// WorkspacePath returns the checkout directory used for push.
func (r *Runner) WorkspacePath(push *event.Push) string {
	return filepath.Join(r.opts.WorkspaceRoot, "testrepo_"+push.WorkspaceKey())
}

// LogName returns the log file name for a run of sha started at t.
func LogName(t time.Time, sha string) string {
	return t.Format("[20060102T150405]_") + sha + ".txt"
}

func (r *Runner) targetURL(logName string) string {
	return strings.TrimSuffix(r.opts.LogBaseURL, "/") + "/" + url.PathEscape(logName)
}

// HandlePush runs the whole pipeline for push and blocks until it is done.
// The returned error reports a run that could not complete; the commit
// status has already been set to error in that case.
func (r *Runner) HandlePush(ctx context.Context, push *event.Push) (*Result, error) {
	if err := push.Validate(); err != nil {
		return nil, err
	}

	unlock, err := r.opts.Locker.Lock(ctx, push.WorkspaceKey())
	if err != nil {
		return nil, fmt.Errorf("acquiring workspace lock: %w", err)
	}
	defer unlock()

	started := nowFunc()
	ru := &run{
		Runner:  r,
		ctx:     ctx,
		push:    push,
		workDir: r.WorkspacePath(push),
		logName: LogName(started, push.After),
		log: r.log.With(
			zap.String("repository", push.Repository.FullName),
			zap.String("sha", push.After),
			zap.String("ref", push.Ref)),
	}
	ru.result.LogName = ru.logName
	defer ru.removeWorkspace()

	ru.log.Info("Run started", zap.String("workspace", ru.workDir))
	err = ru.perform(ctx)
	metrics.ObserveRun(string(ru.result.State))
	ru.log.Info("Run finished",
		zap.String("state", string(ru.result.State)),
		zap.Duration("duration", time.Since(started)),
		zap.Error(err))
	return &ru.result, err
}

type run struct {
	*Runner
	ctx     context.Context
	log     *zap.Logger
	push    *event.Push
	workDir string
	logName string
	result  Result
}

func (ru *run) setStatus(state api.State, description string) {
	status := api.Status{
		State:       state,
		Description: description,
		TargetURL:   ru.targetURL(ru.logName),
	}
	err := withBackoff(ru.ctx, ru.log, "emitting commit status", ru.opts.StatusAttempts, func() error {
		err := ru.opts.API.SetStatus(ru.push, status)
		if api.Permanent(err) {
			return permanent(err)
		}
		return err
	})
	metrics.ObserveStatusUpdate(err)
	if err != nil {
		ru.log.Error("Failed to set commit status",
			zap.String("state", string(state)),
			zap.String("description", description),
			zap.Error(err))
	}
}

func (ru *run) finish(state api.State, description string) {
	ru.result.State = state
	ru.result.Description = description
	ru.setStatus(state, description)
}

// abort stores what is known so far, so the status target URL resolves, and
// reports the run as errored.
func (ru *run) abort(description string, cause error) error {
	o := ru.result.Outcome
	log := o.LintOutput + "\n" + o.TestOutput + "\n" + description + "\n" + cause.Error() + "\n"
	ru.storeLog([]byte(log))
	ru.finish(api.StateError, description)
	return cause
}

func (ru *run) timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveStep(step, time.Since(start))
	return err
}

func (ru *run) removeWorkspace() {
	if err := os.RemoveAll(ru.workDir); err != nil {
		ru.log.Error("Failed removing workspace", zap.String("workspace", ru.workDir), zap.Error(err))
	}
}

func (ru *run) storeLog(data []byte) {
	if err := ru.opts.Storage.Store(ru.logName, data); err != nil {
		ru.log.Error("Failed storing run log", zap.String("log", ru.logName), zap.Error(err))
	}
}

func (ru *run) perform(ctx context.Context) error {
	ru.setStatus(api.StatePending, "The staging has begun.")

	err := ru.timed("clone", func() error {
		cloneCtx := ctx
		if ru.opts.CloneTimeout > 0 {
			var cancel context.CancelFunc
			cloneCtx, cancel = context.WithTimeout(ctx, ru.opts.CloneTimeout)
			defer cancel()
		}
		// Leftovers from a crashed run would make clone refuse the path.
		ru.removeWorkspace()
		return ru.opts.Git.Clone(cloneCtx, ru.push.Repository.CloneURL, ru.workDir, ru.push.After)
	})
	if err != nil {
		ru.log.Error("Failed cloning repository", zap.Error(err))
		return ru.abort("The repository could not be cloned.", err)
	}
	ru.setStatus(api.StatePending, "The repository has been cloned.")

	outcome := &ru.result.Outcome
	err = ru.timed("lint", func() (err error) {
		outcome.LintOutput, err = ru.opts.Tools.Lint(ctx, ru.workDir)
		return
	})
	if err != nil {
		ru.log.Error("Static analysis could not be run", zap.Error(err))
		return ru.abort("Static analysis could not be run.", err)
	}
	outcome.LintScore = ParseLintScore(outcome.LintOutput)
	ru.log.Info("Static analysis complete", zap.Float64("score", outcome.LintScore))
	ru.setStatus(api.StatePending, "Static analysis is complete.")

	err = ru.timed("test", func() (err error) {
		outcome.TestOutput, err = ru.opts.Tools.Test(ctx, ru.workDir)
		return
	})
	if err != nil {
		ru.log.Error("Testing could not be run", zap.Error(err))
		return ru.abort("Testing could not be run.", err)
	}
	outcome.Tests = ParseTestSummary(outcome.TestOutput)
	ru.logSummary(outcome.Tests)
	ru.setStatus(api.StatePending, "Testing is complete.")

	if err = ru.opts.Notifier.Send(ru.message()); err != nil {
		ru.log.Error("Failed sending notification", zap.Error(err))
		ru.setStatus(api.StatePending, "The email could not be sent.")
	} else {
		ru.setStatus(api.StatePending, "Email has been sent.")
	}

	if err = os.RemoveAll(ru.workDir); err != nil {
		ru.log.Error("Failed removing workspace", zap.String("workspace", ru.workDir), zap.Error(err))
	} else {
		ru.setStatus(api.StatePending, "Local copy has been removed.")
	}

	ru.log.Debug("Lint output", zap.String("output", outcome.LintOutput))
	ru.log.Debug("Test output", zap.String("output", outcome.TestOutput))
	ru.storeLog(outcome.Log())

	ru.finish(outcome.Verdict())

	if ru.result.State == api.StateSuccess {
		ru.selfUpdate(ctx)
	}
	return nil
}

func (ru *run) logSummary(s *TestSummary) {
	if s == nil {
		ru.log.Info("Testing complete; no summary line found")
		return
	}
	fields := []zap.Field{zap.Bool("errors", s.Errors)}
	if s.Passed != nil {
		fields = append(fields, zap.Int("passed", *s.Passed))
	}
	if s.Failed != nil {
		fields = append(fields, zap.Int("failed", *s.Failed))
	}
	ru.log.Info("Testing complete", fields...)
}

func (ru *run) message() string {
	subject := strings.TrimSpace(strings.SplitN(ru.push.LatestMessage(), "\n", 2)[0])
	return fmt.Sprintf("Subject: [%s] %s \"%s\"\n\n%s\n%s",
		ru.push.Repository.FullName, ru.workDir, subject,
		ru.result.Outcome.LintOutput, ru.result.Outcome.TestOutput)
}

func (ru *run) selfUpdate(ctx context.Context) {
	if ru.opts.SelfUpdateDir == "" || ru.opts.MainRef == "" || ru.push.Ref != ru.opts.MainRef {
		return
	}
	ru.log.Info("Updating own checkout", zap.String("dir", ru.opts.SelfUpdateDir))
	if err := ru.opts.Git.Pull(ctx, ru.opts.SelfUpdateDir); err != nil {
		var gitErr git.CommandError
		if errors.As(err, &gitErr) {
			ru.log.Error("Self-update failed", zap.Strings("args", gitErr.Args), zap.String("output", gitErr.Output))
		} else {
			ru.log.Error("Self-update failed", zap.Error(err))
		}
		return
	}
	ru.result.SelfUpdated = true
}
