// Package http serves the operation API, the Telegram webhook, health checks
// and Prometheus metrics.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/awantoch/flowbridge/api"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/telegram"
	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options selects what NewHandler mounts besides the API.
type Options struct {
	// Bus receives Telegram webhook deliveries. The webhook route is only
	// registered when it is set.
	Bus           event.EventBus
	WebhookSecret string
}

// NewHandler builds the server mux. Every route group is wrapped with
// tracing and request metrics.
func NewHandler(svc *api.Service, opts Options) http.Handler {
	mux := http.NewServeMux()

	apiMux := http.NewServeMux()
	api.GenerateHTTPHandlers(apiMux, svc, constants.HTTPPathAPIPrefix)
	mux.Handle(constants.HTTPPathAPIPrefix+"/", telemetry.WrapHandler("api", apiMux))

	if opts.Bus != nil {
		mux.Handle("POST "+constants.HTTPPathTelegramWebhook,
			telemetry.WrapHandler("telegram_webhook", telegram.WebhookHandler(opts.Bus, opts.WebhookSecret)))
	}

	mux.Handle("GET "+constants.HTTPPathHealth, telemetry.WrapHandler("health", http.HandlerFunc(healthHandler)))
	mux.Handle("GET "+constants.HTTPPathMetrics, telemetry.MetricsHandler())

	return withCORS(mux)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	_, _ = w.Write([]byte(constants.HealthCheckResponse))
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			constants.HeaderContentType,
			constants.HeaderAuthorization,
		}, ", "))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, handler)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	utils.Info("HTTP server listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	utils.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
