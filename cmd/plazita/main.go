package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/plazita/internal/app"
	"github.com/dropDatabas3/plazita/internal/config"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional; env vars override)")
	flag.Parse()

	// .env si existe; las variables del sistema mandan igual.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "plazita",
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, nil)
	if err != nil {
		logger.L().Fatal("wiring failed", logger.Err(err))
	}
	defer container.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      container.Handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		container.RunSweeper(gctx, cfg.Auth.RelaySweep)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.L().Error("server exited with error", logger.Err(err))
		return
	}
	logger.L().Info("bye")
}
