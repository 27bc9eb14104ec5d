package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logs serves stored run logs as static files. Commit statuses link here.
type Logs struct {
	log    *zap.Logger
	server *http.Server
}

func NewLogs(bindAddress, dir string) *Logs {
	mux := http.NewServeMux()
	mux.HandleFunc("/system/probes/liveness", liveness)
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	return &Logs{
		log: zap.L().With(zap.String("facility", "log-server"), zap.String("dir", dir)),
		server: &http.Server{
			Addr:              bindAddress,
			Handler:           mux,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       30 * time.Second,
		},
	}
}

func (l *Logs) Handler() http.Handler { return l.server.Handler }

func (l *Logs) Run() error {
	l.log.Info("Log server listening", zap.String("address", l.server.Addr))
	if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (l *Logs) Shutdown(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}
