package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ai-persona-chat/backend/pkg/config"
	"ai-persona-chat/backend/pkg/di"
)

func main() {
	cfg := config.New()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.Build(ctx, cfg)
	if err != nil {
		// The logger may not be up yet, so fall back to stderr.
		os.Stderr.WriteString("startup failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := container.Log

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      container.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: 2 * cfg.Server.Timeout, // generation can outlast reads
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err.Error())
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.Error("container shutdown failed", "error", err.Error())
	}
	log.Info("bye")
}
