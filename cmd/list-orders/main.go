package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/bootstrap"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
)

func main() {
	customer := flag.String("customer", "", "only orders of this customer email")
	status := flag.String("status", "", "only orders in this status")
	limit := flag.Int("limit", 100, "maximum number of orders")
	flag.Parse()

	filter := repository.OrderFilter{
		CustomerEmail: domain.NormalizeEmail(*customer),
		Status:        domain.OrderStatus(*status),
		Limit:         *limit,
	}
	if err := run(filter); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(filter repository.OrderFilter) error {
	if filter.Status != "" && !filter.Status.IsValid() {
		return fmt.Errorf("unknown status %q", filter.Status)
	}

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

	orders, err := repos.Order.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		fmt.Println("No orders found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Customer", "Placed By", "Status", "Stage", "Items", "Created")
	for _, o := range orders {
		stage := ""
		if idx := domain.CurrentStageIndex(o.Tracking); idx >= 0 {
			stage = o.Tracking[idx].Stage
		}
		if err := table.Append([]string{
			o.ID.String(),
			o.CustomerEmail,
			o.PlacedBy,
			string(o.Status),
			stage,
			strconv.Itoa(len(o.Items)),
			o.CreatedAt.Format("2006-01-02 15:04"),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render row: %v\n", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Printf("%d order(s)\n", len(orders))
	return nil
}
