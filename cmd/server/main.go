package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fabworks/orderapi/internal/api"
	"github.com/fabworks/orderapi/internal/bootstrap"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server exited")
	_ = logger.Sync()
}

// run owns every client it opens; it returns so deferred closers run before exit
func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting order API server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := bootstrap.OpenRepositories(ctx, cfg, true, logger)
	if err != nil {
		return fmt.Errorf("open order store: %w", err)
	}
	defer closeStore()

	locker, closeLocker, err := bootstrap.NewLocker(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize admission lock: %w", err)
	}
	defer closeLocker()

	dispatcher, closeNotifier, err := bootstrap.NewDispatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize notifications: %w", err)
	}
	defer closeNotifier()
	dispatcher.Start()

	svc := service.NewOrderService(repos, dispatcher, locker, service.SystemClock{},
		service.Options{ActiveOrderLimit: cfg.Admission.ActiveLimit}, logger)

	router := api.NewRouter(cfg, svc, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server started successfully", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
		// drain queued notifications after the last request has finished
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			logger.Warn("Notification queue not fully drained", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
