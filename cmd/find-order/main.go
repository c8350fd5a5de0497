package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/bootstrap"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-order/main.go <order_id>")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(rawID string) error {
	orderID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", rawID, err)
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

	events, err := repos.OrderEvent.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	order, err := repos.Order.GetByID(ctx, orderID)
	if err != nil {
		if len(events) > 0 {
			fmt.Println("Audit trail of the deleted order:")
			printEvents(events)
		}
		return fmt.Errorf("order not found: %w", err)
	}

	fmt.Printf("Order ID:        %s\n", order.ID)
	fmt.Printf("Customer:        %s\n", order.CustomerEmail)
	fmt.Printf("Placed By:       %s\n", order.PlacedBy)
	fmt.Printf("Business:        %s\n", order.BusinessName)
	fmt.Printf("Contact:         %s %s\n", order.OrderPlacerName, order.PhoneNumber)
	fmt.Printf("Status:          %s\n", order.Status)
	if order.ExpectedDeliveryDate != nil {
		fmt.Printf("Expected:        %s\n", order.ExpectedDeliveryDate.Format("2006-01-02"))
	}
	fmt.Printf("Created At:      %s\n", order.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated At:      %s\n", order.UpdatedAt.Format(time.RFC3339))

	fmt.Println("\nItems:")
	items := tablewriter.NewWriter(os.Stdout)
	items.Header("Item Code", "Product", "Drawing", "Rev", "Qty")
	for _, it := range order.Items {
		_ = items.Append([]string{it.ItemCode, it.ProductName, it.DrawingCode, it.Revision, strconv.Itoa(it.Quantity)})
	}
	_ = items.Render()

	fmt.Println("\nTracking:")
	current := domain.CurrentStageIndex(order.Tracking)
	tracking := tablewriter.NewWriter(os.Stdout)
	tracking.Header("", "Stage", "Planned", "Actual")
	for i, st := range order.Tracking {
		marker := ""
		if i == current {
			marker = ">"
		}
		_ = tracking.Append([]string{marker, st.Stage, day(st.PlannedDate), day(st.ActualDate)})
	}
	_ = tracking.Render()

	fmt.Println("\nEvents:")
	printEvents(events)
	return nil
}

func printEvents(events []*domain.OrderEvent) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("When", "Event", "Data")
	for _, e := range events {
		data, _ := json.Marshal(e.EventData)
		_ = table.Append([]string{e.CreatedAt.Format(time.RFC3339), e.EventType, string(data)})
	}
	_ = table.Render()
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
