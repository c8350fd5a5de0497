package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/api/middleware"
	"github.com/fabworks/orderapi/internal/service"
)

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseListFilter(c)
		if !ok {
			return
		}
		filter.CustomerEmail = c.Query("customer_email")

		orders, err := svc.ListOrders(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderListResponse(orders, filter))
	}
}

// HandleSetOrderStatus handles PATCH /v1/admin/orders/:id/status
func HandleSetOrderStatus(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req service.SetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		if req.Status == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "invalid status",
				"fields": gin.H{"status": "is required"},
			})
			return
		}

		order, err := svc.SetOrderStatus(c.Request.Context(), orderID, req.Status)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		actor := ""
		if p, ok := middleware.GetPrincipalFromContext(c); ok {
			actor = p.Email
		}
		logger.Info("Order status set by admin",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
			zap.String("actor", actor),
		)
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleSetTracking handles PUT /v1/admin/orders/:id/tracking
func HandleSetTracking(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req service.SetTrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		order, err := svc.SetTracking(c.Request.Context(), orderID, req.Tracking)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleDeleteOrder handles DELETE /v1/admin/orders/:id
func HandleDeleteOrder(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		if err := svc.DeleteOrder(c.Request.Context(), orderID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleGetOrderEvents handles GET /v1/admin/orders/:id/events
func HandleGetOrderEvents(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		events, err := svc.GetOrderEvents(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		out := make([]OrderEventResponse, len(events))
		for i, e := range events {
			out[i] = OrderEventResponse{
				ID:        e.ID.String(),
				EventType: e.EventType,
				EventData: e.EventData,
				CreatedAt: e.CreatedAt.UTC().Format(timeLayout),
			}
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID.String(), "events": out})
	}
}
