package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pushci/receiver/api"
	"github.com/pushci/receiver/auth"
	"github.com/pushci/receiver/git"
	"github.com/pushci/receiver/notify"
	"github.com/pushci/receiver/redis"
	"github.com/pushci/receiver/runner"
	"github.com/pushci/receiver/server"
	"github.com/pushci/receiver/storage"
)

// Each server gets its own drain deadline. Overridden by tests.
var shutdownGrace = 30 * time.Second

func makeLogger() (*zap.Logger, error) {
	if os.Getenv("PUSHCI_DEV") == "true" {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Development = true
		return config.Build()
	}
	return zap.NewProduction()
}

func makeNotifier(ctx *cli.Context) (notify.Notifier, error) {
	if !ctx.IsSet("smtp-addr") {
		return notify.NewLog(), nil
	}
	return notify.NewSMTP(notify.SMTPOpts{
		Addr:     ctx.String("smtp-addr"),
		Username: ctx.String("smtp-username"),
		Password: ctx.String("smtp-password"),
		From:     ctx.String("smtp-from"),
		To:       ctx.StringSlice("smtp-to"),
	})
}

func makeLocker(ctx *cli.Context) (runner.Locker, func(), error) {
	redisURL := ctx.String("redis-url")
	if redisURL == "" {
		return runner.NewMemoryLocker(), func() {}, nil
	}
	// A lock must outlive the longest possible run.
	ttl := ctx.Duration("clone-timeout") + ctx.Duration("lint-timeout") + ctx.Duration("test-timeout") + 5*time.Minute
	l, err := redis.New(redisURL, ttl)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Close() }, nil
}

func makeTools(ctx *cli.Context) (runner.Tools, error) {
	lint, err := runner.SplitCommand(ctx.String("lint-command"))
	if err != nil {
		return nil, err
	}
	test, err := runner.SplitCommand(ctx.String("test-command"))
	if err != nil {
		return nil, err
	}
	return runner.NewCommandTools(runner.CommandToolsOpts{
		LintCommand: lint,
		TestCommand: test,
		LintTimeout: ctx.Duration("lint-timeout"),
		TestTimeout: ctx.Duration("test-timeout"),
	})
}

func Run(ctx *cli.Context) error {
	logger, err := makeLogger()
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	token, err := auth.NewFileToken(ctx.String("token-path"))
	if err != nil {
		logger.Error("Failed loading API token", zap.Error(err))
		return err
	}

	apiClient, err := api.New(api.Opts{
		BaseURL: ctx.String("api-url"),
		Token:   token,
		Context: ctx.String("status-context"),
	})
	if err != nil {
		logger.Error("Failed initializing API client", zap.Error(err))
		return err
	}
	if err = apiClient.Ping(); err != nil {
		logger.Warn("API is not reachable yet; statuses may fail", zap.Error(err))
	}

	store, err := storage.Initialize(ctx.String("log-storage-mode"), ctx)
	if err != nil {
		logger.Error("Failed initializing storage", zap.Error(err))
		return err
	}

	notifier, err := makeNotifier(ctx)
	if err != nil {
		logger.Error("Failed initializing notifier", zap.Error(err))
		return err
	}

	locker, closeLocker, err := makeLocker(ctx)
	if err != nil {
		logger.Error("Failed initializing Redis locker", zap.Error(err))
		return err
	}
	defer closeLocker()

	tools, err := makeTools(ctx)
	if err != nil {
		logger.Error("Failed preparing tool commands", zap.Error(err))
		return err
	}

	pushRunner := runner.New(runner.Opts{
		API:            apiClient,
		Git:            git.New(),
		Tools:          tools,
		Notifier:       notifier,
		Storage:        store,
		Locker:         locker,
		WorkspaceRoot:  ctx.String("workspace-root"),
		LogBaseURL:     ctx.String("log-base-url"),
		CloneTimeout:   ctx.Duration("clone-timeout"),
		StatusAttempts: ctx.Int("status-attempts"),
		MainRef:        ctx.String("main-ref"),
		SelfUpdateDir:  ctx.String("self-update-dir"),
	})

	webhook := server.NewWebhook(server.WebhookOpts{
		BindAddress: ctx.String("webhook-bind"),
		Handler:     pushRunner,
		Secret:      ctx.String("webhook-secret"),
	})
	logs := server.NewLogs(ctx.String("logs-bind"), store.Dir())

	errs := make(chan error, 2)
	go func() { errs <- webhook.Run() }()
	go func() { errs <- logs.Run() }()
	webhook.SetReady(true)

	signalChan := make(chan os.Signal, 10)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalChan)

	for {
		select {
		case err = <-errs:
			if err != nil {
				logger.Error("Server failed", zap.Error(err))
				shutdown(logger, logs, webhook)
				return err
			}
		case sig := <-signalChan:
			if sig == syscall.SIGHUP {
				if err := token.Reload(); err != nil {
					logger.Error("Failed reloading API token; keeping the previous one", zap.Error(err))
				} else {
					logger.Info("Reloaded API token")
				}
				continue
			}

			logger.Info("Received interrupt signal. Will exit once runs in progress are finished")
			go func() {
				for s := range signalChan {
					if s == syscall.SIGHUP {
						continue
					}
					logger.Info("If you insist... Received second interrupt signal. Forcefully exiting.")
					logger.Warn("Forcefully exiting receiver. Commit statuses may be left pending, and workspaces won't be removed.")
					os.Exit(0)
				}
			}()
			shutdown(logger, logs, webhook)
			logger.Info("See you later!")
			return nil
		}
	}
}

type stoppable interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops servers in order. The log server goes first as it has
// nothing long-running to drain.
func shutdown(logger *zap.Logger, servers ...stoppable) {
	for _, s := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := s.Shutdown(ctx); err != nil {
			logger.Error("Failed shutting down server", zap.Error(err))
		}
		cancel()
	}
}
