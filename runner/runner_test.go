package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pushci/receiver/api"
	"github.com/pushci/receiver/event"
	"github.com/pushci/receiver/execute"
	"github.com/pushci/receiver/git"
	"github.com/pushci/receiver/mocks"
	"github.com/pushci/receiver/storage"
	"github.com/pushci/receiver/test_helpers"
)

const testSHA = "9cff62ad797c372277f6c6b71d10e643947b5340"

var fixedNow = time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)

type allMocks struct {
	api      *mocks.APIMock
	git      *mocks.GitMock
	tools    *mocks.ToolsMock
	notifier *mocks.NotifierMock
	storage  *mocks.StorageMock
	statuses []api.Status
	root     string
}

func (m *allMocks) descriptions() []string {
	out := make([]string, len(m.statuses))
	for i, s := range m.statuses {
		out[i] = s.Description
	}
	return out
}

func (m *allMocks) last() api.Status {
	return m.statuses[len(m.statuses)-1]
}

func makePush(ref string) *event.Push {
	return &event.Push{
		Ref:   ref,
		After: testSHA,
		Repository: event.Repository{
			ID:       42,
			FullName: "org/repo",
			CloneURL: "https://example.com/org/repo.git",
		},
		Commits: []event.Commit{{Message: "Fix the thing\n\nLonger description"}},
	}
}

func makeMocks(t *testing.T, tweak func(*Opts)) (*allMocks, *Runner) {
	ctrl := gomock.NewController(t)
	zap.ReplaceGlobals(zap.NewNop())

	m := &allMocks{
		api:      mocks.NewAPIMock(ctrl),
		git:      mocks.NewGitMock(ctrl),
		tools:    mocks.NewToolsMock(ctrl),
		notifier: mocks.NewNotifierMock(ctrl),
		storage:  mocks.NewStorageMock(ctrl),
		root:     t.TempDir(),
	}
	m.api.EXPECT().SetStatus(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(func(_ *event.Push, s api.Status) error {
		m.statuses = append(m.statuses, s)
		return nil
	})

	opts := Opts{
		API:            m.api,
		Git:            m.git,
		Tools:          m.tools,
		Notifier:       m.notifier,
		Storage:        m.storage,
		WorkspaceRoot:  m.root,
		LogBaseURL:     "http://logs.example.com:81/",
		CloneTimeout:   time.Minute,
		StatusAttempts: 2,
		MainRef:        "refs/heads/main",
		SelfUpdateDir:  "/srv/pushci",
	}
	if tweak != nil {
		tweak(&opts)
	}

	sleepFunc = func(context.Context, time.Duration) error { return nil }
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		sleepFunc = sleepWithContext
		nowFunc = time.Now
	})

	return m, New(opts)
}

// expectClone makes the git mock create the workspace like a real clone.
func (m *allMocks) expectClone(r *Runner, push *event.Push) {
	m.git.EXPECT().Clone(gomock.Any(), push.Repository.CloneURL, r.WorkspacePath(push), testSHA).
		DoAndReturn(func(_ context.Context, _, dir, _ string) error {
			return os.MkdirAll(filepath.Join(dir, ".git"), 0750)
		})
}

func (m *allMocks) expectTools(lint, test string) {
	m.tools.EXPECT().Lint(gomock.Any(), gomock.Any()).Return(lint, nil)
	m.tools.EXPECT().Test(gomock.Any(), gomock.Any()).Return(test, nil)
}

const (
	goodLint     = "Your code has been rated at 8.00/10\n"
	badLint      = "Your code has been rated at 4.50/10\n"
	passingTests = "============ 3 passed in 0.10s ============\n"
	failingTests = "============ FAILURES ============\n============ 3 passed, 1 failed in 0.10s ============\n"
	erroredTests = "============ ERRORS ============\n============ 1 error in 0.10s ============\n"
)

var expectedLogName = "[20230102T030405]_" + testSHA + ".txt"

func TestLogName(t *testing.T) {
	assert.Equal(t, expectedLogName, LogName(fixedNow, testSHA))
}

func TestWorkspacePath(t *testing.T) {
	_, r := makeMocks(t, func(o *Opts) { o.WorkspaceRoot = "/tmp" })
	assert.Equal(t, "/tmp/testrepo_42"+testSHA, r.WorkspacePath(makePush("refs/heads/main")))
}

func TestHandlePush_SuccessOnMain(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).DoAndReturn(func(msg string) error {
		assert.Equal(t, fmt.Sprintf("Subject: [org/repo] %s \"Fix the thing\"\n\n%s\n%s",
			r.WorkspacePath(push), goodLint, passingTests), msg)
		return nil
	})
	m.storage.EXPECT().Store(expectedLogName, []byte(goodLint+"\n"+passingTests)).DoAndReturn(func(string, []byte) error {
		_, err := os.Stat(r.WorkspacePath(push))
		assert.True(t, os.IsNotExist(err), "workspace must be removed before the log is stored")
		return nil
	})
	m.git.EXPECT().Pull(gomock.Any(), "/srv/pushci").Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"The staging has begun.",
		"The repository has been cloned.",
		"Static analysis is complete.",
		"Testing is complete.",
		"Email has been sent.",
		"Local copy has been removed.",
		"The commit testing succeeded",
	}, m.descriptions())
	for _, s := range m.statuses[:len(m.statuses)-1] {
		assert.Equal(t, api.StatePending, s.State)
	}
	assert.Equal(t, api.StateSuccess, m.last().State)
	assert.Equal(t, "http://logs.example.com:81/%5B20230102T030405%5D_"+testSHA+".txt", m.last().TargetURL)

	assert.Equal(t, api.StateSuccess, res.State)
	assert.Equal(t, 8.0, res.Outcome.LintScore)
	require.NotNil(t, res.Outcome.Tests)
	assert.Equal(t, 3, *res.Outcome.Tests.Passed)
	assert.True(t, res.SelfUpdated)
	assert.NoDirExists(t, r.WorkspacePath(push))
}

func TestHandlePush_SuccessOnFeatureBranch(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/feature-x")

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(expectedLogName, gomock.Any()).Return(nil)
	m.git.EXPECT().Pull(gomock.Any(), gomock.Any()).Times(0)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, m.last().State)
	assert.False(t, res.SelfUpdated)
}

func TestHandlePush_SelfUpdateDisabled(t *testing.T) {
	m, r := makeMocks(t, func(o *Opts) { o.SelfUpdateDir = "" })
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	m.git.EXPECT().Pull(gomock.Any(), gomock.Any()).Times(0)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, res.State)
	assert.False(t, res.SelfUpdated)
}

func TestHandlePush_SelfUpdateFailureIsNotFatal(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	m.git.EXPECT().Pull(gomock.Any(), "/srv/pushci").Return(git.CommandError{Args: []string{"pull"}, Err: errors.New("exit status 1")})

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, res.State)
	assert.False(t, res.SelfUpdated)
}

func TestHandlePush_Failures(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(goodLint, failingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	m.git.EXPECT().Pull(gomock.Any(), gomock.Any()).Times(0)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateFailure, m.last().State)
	assert.Equal(t, "The commit testing failed", m.last().Description)
	assert.Equal(t, 1, *res.Outcome.Tests.Failed)
}

func TestHandlePush_Errors(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(goodLint, erroredTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	_, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateError, m.last().State)
	assert.Equal(t, "The commit testing resulted in some errors", m.last().Description)
}

func TestHandlePush_LowScoreTakesPriority(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.expectTools(badLint, failingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateError, m.last().State)
	assert.Equal(t, "The commit was scored too low by the linter", m.last().Description)
	assert.Equal(t, 4.5, res.Outcome.LintScore)
}

func TestHandlePush_CloneFailure(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.git.EXPECT().Clone(gomock.Any(), gomock.Any(), r.WorkspacePath(push), testSHA).
		DoAndReturn(func(_ context.Context, _, dir, _ string) error {
			// Partial clone left behind.
			require.NoError(t, os.MkdirAll(dir, 0750))
			return git.CommandError{Args: []string{"clone"}, Output: "repository not found", Err: errors.New("exit status 128")}
		})
	m.storage.EXPECT().Store(expectedLogName, gomock.Any()).DoAndReturn(func(_ string, data []byte) error {
		assert.Contains(t, string(data), "repository not found")
		return nil
	})

	res, err := r.HandlePush(context.Background(), push)
	assert.ErrorContains(t, err, "repository not found")
	assert.Equal(t, api.StateError, res.State)
	assert.Equal(t, []string{"The staging has begun.", "The repository could not be cloned."}, m.descriptions())
	assert.NoDirExists(t, r.WorkspacePath(push))
}

func TestHandlePush_LintCannotRun(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.tools.EXPECT().Lint(gomock.Any(), r.WorkspacePath(push)).Return("", execute.StartError{Command: "pylint", Err: errors.New("not found")})
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	assert.ErrorAs(t, err, &execute.StartError{})
	assert.Equal(t, api.StateError, res.State)
	assert.Equal(t, "Static analysis could not be run.", m.last().Description)
	assert.NoDirExists(t, r.WorkspacePath(push))
}

func TestHandlePush_TestTimeout(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	m.expectClone(r, push)
	m.tools.EXPECT().Lint(gomock.Any(), gomock.Any()).Return(goodLint, nil)
	m.tools.EXPECT().Test(gomock.Any(), r.WorkspacePath(push)).Return("partial", fmt.Errorf("test: %w", execute.ErrTimeout))
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(func(_ string, data []byte) error {
		assert.Contains(t, string(data), goodLint)
		assert.Contains(t, string(data), "partial")
		return nil
	})

	res, err := r.HandlePush(context.Background(), push)
	assert.ErrorIs(t, err, execute.ErrTimeout)
	assert.Equal(t, "Testing could not be run.", res.Description)
	assert.NoDirExists(t, r.WorkspacePath(push))
}

func TestHandlePush_NotificationFailureIsNotFatal(t *testing.T) {
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/feature-x")

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(errors.New("smtp down"))
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Contains(t, m.descriptions(), "The email could not be sent.")
	assert.NotContains(t, m.descriptions(), "Email has been sent.")
	assert.Equal(t, api.StateSuccess, res.State)
}

func TestHandlePush_StatusFailuresAreRetriedAndNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/feature-x")

	failing := mocks.NewAPIMock(ctrl)
	attempts := 0
	failing.EXPECT().SetStatus(push, gomock.Any()).AnyTimes().DoAndReturn(func(*event.Push, api.Status) error {
		attempts++
		return api.ServiceError{HTTPStatus: 502}
	})
	r.opts.API = failing

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, res.State)
	// 7 status updates, 2 attempts each.
	assert.Equal(t, 14, attempts)
}

func TestHandlePush_RejectedStatusesAreNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, r := makeMocks(t, nil)
	push := makePush("refs/heads/feature-x")

	rejecting := mocks.NewAPIMock(ctrl)
	attempts := 0
	rejecting.EXPECT().SetStatus(push, gomock.Any()).AnyTimes().DoAndReturn(func(*event.Push, api.Status) error {
		attempts++
		return api.Error{Message: "Bad credentials", HTTPStatus: 401}
	})
	r.opts.API = rejecting
	r.opts.StatusAttempts = 5

	m.expectClone(r, push)
	m.expectTools(goodLint, passingTests)
	m.notifier.EXPECT().Send(gomock.Any()).Return(nil)
	m.storage.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, res.State)
	// One attempt per status update.
	assert.Equal(t, 7, attempts)
}

func TestHandlePush_InvalidRepository(t *testing.T) {
	_, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")
	push.Repository.FullName = "../../user"

	res, err := r.HandlePush(context.Background(), push)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, event.ErrInvalidRepository)
}

func TestHandlePush_InvalidSHA(t *testing.T) {
	_, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")
	push.After = "main; rm -rf /"

	res, err := r.HandlePush(context.Background(), push)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, event.ErrInvalidSHA)
}

func TestHandlePush_LockCancelled(t *testing.T) {
	_, r := makeMocks(t, nil)
	push := makePush("refs/heads/main")

	unlock, err := r.opts.Locker.Lock(context.Background(), push.WorkspaceKey())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.HandlePush(ctx, push)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Runs the pipeline against a real local repository with stand-in tools.
func TestHandlePush_EndToEnd(t *testing.T) {
	repo := test_helpers.MakeRepository(t)
	m, _ := makeMocks(t, nil)

	logDir := t.TempDir()
	store, err := storage.NewLocal(logDir)
	require.NoError(t, err)

	tools, err := NewCommandTools(CommandToolsOpts{
		LintCommand: []string{"sh", "-c", `test -f "$0/feature.txt" && echo "Your code has been rated at 9.00/10"`},
		TestCommand: []string{"sh", "-c", `ls; echo "===== 2 passed in 0.01s ====="`},
		LintTimeout: 10 * time.Second,
		TestTimeout: 10 * time.Second,
	})
	require.NoError(t, err)

	notified := ""
	m.notifier.EXPECT().Send(gomock.Any()).DoAndReturn(func(msg string) error {
		notified = msg
		return nil
	})

	r := New(Opts{
		API:           m.api,
		Git:           git.New(),
		Tools:         tools,
		Notifier:      m.notifier,
		Storage:       store,
		WorkspaceRoot: m.root,
		LogBaseURL:    "http://localhost:81",
		CloneTimeout:  30 * time.Second,
		MainRef:       "refs/heads/main",
	})

	push := makePush("refs/heads/feature-x")
	push.After = repo.FeatureSHA
	push.Repository.CloneURL = repo.URL()

	res, err := r.HandlePush(context.Background(), push)
	require.NoError(t, err)
	assert.Equal(t, api.StateSuccess, res.State)
	assert.Equal(t, 9.0, res.Outcome.LintScore)
	assert.Contains(t, res.Outcome.TestOutput, "feature.txt")
	assert.Contains(t, notified, "Your code has been rated at 9.00/10")

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, LogName(fixedNow, repo.FeatureSHA), entries[0].Name())
	data, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, res.Outcome.LintOutput+"\n"+res.Outcome.TestOutput, string(data))

	assert.NoDirExists(t, r.WorkspacePath(push))
}
