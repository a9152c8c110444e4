// Room Relay - multi-tenant WebSocket relay server
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/workspace/room-relay/internal/config"
	"github.com/workspace/room-relay/internal/logging"
	"github.com/workspace/room-relay/internal/mcpserver"
	"github.com/workspace/room-relay/internal/room"
	"github.com/workspace/room-relay/internal/transport"
)

func main() {
	logging.Setup()
	logger := slog.Default()
	logger.Info("starting room relay")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	manager := room.NewManager(cfg, logger)
	mcp := mcpserver.New(manager, nil, nil)
	srv := transport.New(cfg, manager, logger, mcp)

	mux := http.NewServeMux()
	srv.Routes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	reapCtx, stopReap := context.WithCancel(context.Background())
	go manager.ReapIdle(reapCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	}

	stopReap()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}

	logger.Info("room relay stopped")
}
