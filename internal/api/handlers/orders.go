package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/api/middleware"
	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/service"
	"github.com/fabworks/orderapi/pkg/errors"
)

// canView reports whether the caller may read the order
func canView(p *middleware.Principal, o *domain.Order) bool {
	if p.IsAdmin() {
		return true
	}
	return o.CustomerEmail == p.Email || o.PlacedBy == p.Email
}

// HandlePlaceOrder handles POST /v1/orders
func HandlePlaceOrder(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipalFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrUnauthorized{})
			return
		}

		var req service.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request body",
				"details": err.Error(),
			})
			return
		}

		// Customers may only order for themselves; noters place on behalf of others
		if principal.Role == middleware.RoleCustomer &&
			domain.NormalizeEmail(req.CustomerEmail) != principal.Email {
			respondError(c, logger, &errors.ErrForbidden{Message: "customers can only place orders for their own email"})
			return
		}

		req.PlacedBy = principal.Email
		req.IdempotencyKey, req.RequestHash = middleware.GetIdempotencyInfo(c)

		order, err := svc.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}

// HandleListMyOrders handles GET /v1/orders
func HandleListMyOrders(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipalFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrUnauthorized{})
			return
		}

		filter, ok := parseListFilter(c)
		if !ok {
			return
		}
		switch principal.Role {
		case middleware.RoleCustomer:
			filter.CustomerEmail = principal.Email
		case middleware.RoleNoter:
			filter.PlacedBy = principal.Email
		}

		orders, err := svc.ListOrders(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderListResponse(orders, filter))
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(svc service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipalFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrUnauthorized{})
			return
		}

		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := svc.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		if !canView(principal, order) {
			respondError(c, logger, &errors.ErrForbidden{Message: "access denied"})
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}
