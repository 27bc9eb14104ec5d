package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pushci/receiver/event"
	"github.com/pushci/receiver/runner"
)

var (
	ok          = []byte("OK")
	unavailable = []byte("Unavailable")
	greeting    = []byte("Hello :)")
)

type PushHandler interface {
	HandlePush(ctx context.Context, push *event.Push) (*runner.Result, error)
}

type WebhookOpts struct {
	BindAddress string
	Handler     PushHandler
	// Secret enables X-Hub-Signature-256 verification when non-empty.
	Secret string
}

// Webhook is the public listener receiving deliveries from the host.
type Webhook struct {
	log     *zap.Logger
	server  *http.Server
	ready   *atomic.Bool
	handler PushHandler
	secret  []byte

	// Runs outlive the delivery request, as the host gives up on slow
	// deliveries long before a test suite finishes.
	runCtx    context.Context
	cancelRun context.CancelFunc
}

func NewWebhook(opts WebhookOpts) *Webhook {
	runCtx, cancel := context.WithCancel(context.Background())
	w := &Webhook{
		log:       zap.L().With(zap.String("facility", "webhook")),
		ready:     &atomic.Bool{},
		handler:   opts.Handler,
		secret:    []byte(opts.Secret),
		runCtx:    runCtx,
		cancelRun: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", w.index)
	mux.HandleFunc("/webhook", w.webhook)
	mux.HandleFunc("/system/probes/liveness", liveness)
	mux.HandleFunc("/system/probes/readiness", w.readiness)
	mux.Handle("/metrics", promhttp.Handler())

	w.server = &http.Server{
		Addr:              opts.BindAddress,
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Push deliveries are answered only once the run is over.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return w
}

func (w *Webhook) Handler() http.Handler { return w.server.Handler }

func (w *Webhook) Run() error {
	w.log.Info("Webhook server listening", zap.String("address", w.server.Addr))
	if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting deliveries and waits for in-flight runs until ctx
// expires, after which their subprocesses are cancelled.
func (w *Webhook) Shutdown(ctx context.Context) error {
	w.SetReady(false)
	err := w.server.Shutdown(ctx)
	w.cancelRun()
	return err
}

func (w *Webhook) SetReady(ready bool) {
	w.ready.Store(ready)
}

func (w *Webhook) index(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(greeting)
}

func liveness(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(ok)
}

func (w *Webhook) readiness(rw http.ResponseWriter, _ *http.Request) {
	if !w.ready.Load() {
		rw.WriteHeader(http.StatusServiceUnavailable)
		_, _ = rw.Write(unavailable)
	} else {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write(ok)
	}
}
