package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pushci/receiver/commands"
)

func envs(base string) []string {
	return []string{"PUSHCI_" + base, base}
}

func main() {
	app := cli.NewApp()
	app.Name = "pushci-receiver"
	app.Usage = "Lints and tests pushed commits and reports commit statuses"
	app.Version = "0.1"
	app.DefaultCommand = "run"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "webhook-bind", EnvVars: envs("WEBHOOK_BIND"), Value: ":80"},
		&cli.StringFlag{Name: "logs-bind", EnvVars: envs("LOGS_BIND"), Value: ":81"},
		&cli.StringFlag{Name: "log-base-url", EnvVars: envs("LOG_BASE_URL"), Value: "http://localhost:81/"},
		&cli.StringFlag{Name: "log-dir", EnvVars: envs("LOG_DIR"), Value: "/tmp/CILogs"},
		&cli.StringFlag{Name: "log-storage-mode", EnvVars: envs("LOG_STORAGE_MODE"), Value: "local"},
		&cli.StringFlag{Name: "log-s3-bucket-name", EnvVars: envs("LOG_S3_BUCKET_NAME")},
		&cli.StringFlag{Name: "log-s3-prefix", EnvVars: envs("LOG_S3_PREFIX")},
		&cli.StringFlag{Name: "workspace-root", EnvVars: envs("WORKSPACE_ROOT"), Value: "/tmp"},
		&cli.StringFlag{Name: "token-path", EnvVars: envs("TOKEN_PATH"), Value: "/tmp/auth"},
		&cli.StringFlag{Name: "api-url", EnvVars: envs("API_URL"), Value: "https://api.github.com"},
		&cli.StringFlag{Name: "status-context", EnvVars: envs("STATUS_CONTEXT"), Value: "continuous-integration/dd2480"},
		&cli.IntFlag{Name: "status-attempts", EnvVars: envs("STATUS_ATTEMPTS"), Value: 3},
		&cli.StringFlag{Name: "main-ref", EnvVars: envs("MAIN_REF"), Value: "refs/heads/main"},
		&cli.StringFlag{Name: "self-update-dir", EnvVars: envs("SELF_UPDATE_DIR")},
		&cli.StringFlag{Name: "lint-command", EnvVars: envs("LINT_COMMAND"), Value: "pylint"},
		&cli.StringFlag{Name: "test-command", EnvVars: envs("TEST_COMMAND"), Value: "python3 -m pytest"},
		&cli.DurationFlag{Name: "clone-timeout", EnvVars: envs("CLONE_TIMEOUT"), Value: 5 * time.Minute},
		&cli.DurationFlag{Name: "lint-timeout", EnvVars: envs("LINT_TIMEOUT"), Value: 10 * time.Minute},
		&cli.DurationFlag{Name: "test-timeout", EnvVars: envs("TEST_TIMEOUT"), Value: 30 * time.Minute},
		&cli.StringFlag{Name: "webhook-secret", EnvVars: envs("WEBHOOK_SECRET")},
		&cli.StringFlag{Name: "smtp-addr", EnvVars: envs("SMTP_ADDR")},
		&cli.StringFlag{Name: "smtp-username", EnvVars: envs("SMTP_USERNAME")},
		&cli.StringFlag{Name: "smtp-password", EnvVars: envs("SMTP_PASSWORD")},
		&cli.StringFlag{Name: "smtp-from", EnvVars: envs("SMTP_FROM")},
		&cli.StringSliceFlag{Name: "smtp-to", EnvVars: envs("SMTP_TO")},
		&cli.StringFlag{Name: "redis-url", EnvVars: envs("REDIS_URL")},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "Starts the webhook and log servers",
			Action: commands.Run,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println()
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
