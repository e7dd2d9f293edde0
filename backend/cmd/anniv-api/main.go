package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/anniv/backend/internal/router"
	"github.com/itchan-dev/anniv/backend/internal/setup"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.LogLevel(), cfg.Public.Server.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	if cfg.Public.GC.Enabled {
		deps.GC.StartBackgroundCleanup(ctx, cfg.Public.GC.Interval)
	}

	limiters := router.NewLimiters(deps)
	limiters.Submit.StartCleanup(ctx, router.CleanupInterval)
	limiters.Global.StartCleanup(ctx, router.CleanupInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Public.Server.Port),
		Handler:           router.New(deps, limiters),
		ReadHeaderTimeout: 10 * time.Second,
		// a submission may take up to submission.timeout
		WriteTimeout: cfg.Public.Submission.Timeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Log.Info("server started", "port", cfg.Public.Server.Port,
			"security", cfg.SecurityMode(), "assets", cfg.Public.Assets.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}
