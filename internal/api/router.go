package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/api/handlers"
	"github.com/fabworks/orderapi/internal/api/middleware"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc service.OrderService, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Fabrication Order API",
			"endpoints": []string{
				"GET /health",
				"POST /v1/orders",
				"GET /v1/orders",
				"GET /v1/orders/:id",
				"GET /v1/admin/orders",
				"PATCH /v1/admin/orders/:id/status",
				"PUT /v1/admin/orders/:id/tracking",
				"DELETE /v1/admin/orders/:id",
				"GET /v1/admin/orders/:id/events",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		orderRoutes := v1.Group("/orders")
		orderRoutes.Use(middleware.AuthMiddleware(cfg.Auth, logger,
			middleware.RoleCustomer, middleware.RoleNoter, middleware.RoleAdmin))
		orderRoutes.Use(middleware.IdempotencyMiddleware(logger))
		{
			orderRoutes.POST("", handlers.HandlePlaceOrder(svc, logger))
			orderRoutes.GET("", handlers.HandleListMyOrders(svc, logger))
			orderRoutes.GET("/:id", handlers.HandleGetOrder(svc, logger))
		}

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(cfg.Auth, logger, middleware.RoleAdmin))
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(svc, logger))
			adminRoutes.PATCH("/orders/:id/status", handlers.HandleSetOrderStatus(svc, logger))
			adminRoutes.PUT("/orders/:id/tracking", handlers.HandleSetTracking(svc, logger))
			adminRoutes.DELETE("/orders/:id", handlers.HandleDeleteOrder(svc, logger))
			adminRoutes.GET("/orders/:id/events", handlers.HandleGetOrderEvents(svc, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
