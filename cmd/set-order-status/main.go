package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/bootstrap"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/service"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/set-order-status/main.go <order_id> <status>")
		fmt.Println("Example: go run cmd/set-order-status/main.go 7c9e6679-7425-40de-944b-e07fc1f90ae7 \"In Progress\"")
		os.Exit(1)
	}

	if err := run(os.Args[1], strings.Join(os.Args[2:], " ")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the store and notifier are always closed
func run(rawID, rawStatus string) error {
	orderID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", rawID, err)
	}
	status := domain.OrderStatus(rawStatus)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	repos, closeStore, err := bootstrap.OpenRepositories(ctx, cfg, false, logger)
	if err != nil {
		return fmt.Errorf("failed to open order store: %w", err)
	}
	defer closeStore()

	dispatcher, closeNotifier, err := bootstrap.NewDispatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	defer closeNotifier()
	dispatcher.Start()

	svc := service.NewOrderService(repos, dispatcher, nil, service.SystemClock{},
		service.Options{ActiveOrderLimit: cfg.Admission.ActiveLimit}, logger)

	order, err := svc.SetOrderStatus(ctx, orderID, status)
	stopCtx, cancel := context.WithTimeout(ctx, cfg.Notification.Timeout)
	defer cancel()
	_ = dispatcher.Stop(stopCtx)

	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	fmt.Printf("Order %s is now %s\n", order.ID, order.Status)
	if next := order.Status.AllowedNext(); len(next) > 0 {
		fmt.Printf("Next allowed: %v\n", next)
	}
	return nil
}
