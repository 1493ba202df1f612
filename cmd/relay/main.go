package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"switchbomb/internal/config"
	"switchbomb/internal/relay"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	srv := relay.NewServer(cfg, logger)

	addr := cfg.Relay.Host + ":" + cfg.Relay.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Relay.ReadTimeout,
		WriteTimeout: cfg.Relay.WriteTimeout,
		IdleTimeout:  cfg.Relay.IdleTimeout, // 0 keeps websocket peers connected
	}

	go func() {
		logger.Info("starting relay", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("relay failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down relay")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Relay.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("relay stopped")
}
