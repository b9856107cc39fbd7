package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/dkrasniqi/campus-assistant/internal/adapters/mcp"
	"github.com/dkrasniqi/campus-assistant/internal/bootstrap"
	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if err := app.ReloadUC.Reload(ctx); err != nil {
		if domain.IsKind(err, domain.ErrEmptyCorpus) {
			slog.Warn("starting with empty corpus", "error", err)
		} else {
			log.Fatalf("initial corpus load error: %v", err)
		}
	}

	srv := mcpadapter.NewServer(cfg, app.Retriever, app.AskUC).MCPServer()
	slog.Info("mcp_serving_stdio")
	if err := server.ServeStdio(srv); err != nil && ctx.Err() == nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
