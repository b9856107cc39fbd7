package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkrasniqi/campus-assistant/internal/bootstrap"
	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/observability/logging"
	"github.com/dkrasniqi/campus-assistant/internal/observability/metrics"
)

func main() {
	interval := flag.Duration("interval", 0, "rebuild continuously at this interval; 0 runs a single rebuild")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address when rebuilding continuously")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("indexer", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexerMetrics("indexer")
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", indexerMetrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics_server_failed", "error", err)
			}
		}()
	}

	if err := rebuildOnce(ctx, app, indexerMetrics); err != nil {
		if *interval <= 0 {
			log.Fatalf("rebuild error: %v", err)
		}
		slog.Error("rebuild_failed", "error", err)
	}
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rebuildOnce(ctx, app, indexerMetrics); err != nil {
				slog.Error("rebuild_failed", "error", err)
			}
		}
	}
}

func rebuildOnce(ctx context.Context, app *bootstrap.App, m *metrics.IndexerMetrics) error {
	m.StartRebuild()
	start := time.Now()

	rebuildCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	snapshotID, err := app.RebuildUC.Rebuild(rebuildCtx)
	chunkCount := 0
	if err == nil {
		if chunks, listErr := app.Store.ListChunks(rebuildCtx); listErr == nil {
			chunkCount = len(chunks)
		}
		slog.Info("corpus_rebuilt", "snapshot_id", snapshotID, "chunks", chunkCount, "duration", time.Since(start).String())
	}
	m.FinishRebuild("indexer", time.Since(start), chunkCount, err)
	return err
}
