package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/dkrasniqi/campus-assistant/internal/adapters/http"
	"github.com/dkrasniqi/campus-assistant/internal/bootstrap"
	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/observability/logging"
	"github.com/dkrasniqi/campus-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")

	// Load whatever snapshot the indexer left behind. An empty store just
	// means no rebuild ran yet; queries return empty results until it does.
	if err := app.ReloadUC.Reload(ctx); err != nil {
		if domain.IsKind(err, domain.ErrEmptyCorpus) {
			slog.Warn("starting with empty corpus", "error", err)
		} else {
			log.Fatalf("initial corpus load error: %v", err)
		}
	}
	serverMetrics.RecordCorpusReload("api", app.Retriever.CorpusSize(), nil)

	go func() {
		err := app.Queue.SubscribeCorpusRebuilt(ctx, func(handlerCtx context.Context, snapshotID string) error {
			slog.Info("corpus_rebuilt_received", "snapshot_id", snapshotID)
			reloadCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
			defer cancel()

			reloadErr := app.ReloadUC.Reload(reloadCtx)
			serverMetrics.RecordCorpusReload("api", app.Retriever.CorpusSize(), reloadErr)
			return reloadErr
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("corpus_rebuilt_subscription_failed", "error", err)
		}
	}()

	router := httpadapter.NewRouter(cfg, app.AskUC, app.Retriever, app.ReloadUC, serverMetrics).Handler()
	server := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		log.Fatalf("listen error: %v", err)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
