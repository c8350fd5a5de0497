package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// OrderResponse represents the order response
type OrderResponse struct {
	ID                   string                  `json:"id"`
	CustomerEmail        string                  `json:"customer_email"`
	PlacedBy             string                  `json:"placed_by"`
	BusinessName         string                  `json:"business_name,omitempty"`
	OrderPlacerName      string                  `json:"order_placer_name,omitempty"`
	PhoneNumber          string                  `json:"phone_number,omitempty"`
	ExpectedDeliveryDate *string                 `json:"expected_delivery_date"`
	Status               domain.OrderStatus      `json:"status"`
	AllowedNext          []domain.OrderStatus    `json:"allowed_next"`
	CurrentStage         int                     `json:"current_stage"`
	Items                []domain.OrderItem      `json:"items"`
	Tracking             []TrackingStageResponse `json:"tracking"`
	CreatedAt            string                  `json:"created_at"`
	UpdatedAt            string                  `json:"updated_at"`
}

type TrackingStageResponse struct {
	Stage       string  `json:"stage"`
	PlannedDate *string `json:"planned_date"`
	ActualDate  *string `json:"actual_date"`
}

// OrderEventResponse is one audit entry
type OrderEventResponse struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	EventData map[string]interface{} `json:"event_data"`
	CreatedAt string                 `json:"created_at"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

func toOrderResponse(o *domain.Order) OrderResponse {
	tracking := make([]TrackingStageResponse, len(o.Tracking))
	for i, st := range o.Tracking {
		tracking[i] = TrackingStageResponse{
			Stage:       st.Stage,
			PlannedDate: formatTime(st.PlannedDate),
			ActualDate:  formatTime(st.ActualDate),
		}
	}
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	var delivery *string
	if o.ExpectedDeliveryDate != nil {
		d := o.ExpectedDeliveryDate.Format("2006-01-02")
		delivery = &d
	}

	return OrderResponse{
		ID:                   o.ID.String(),
		CustomerEmail:        o.CustomerEmail,
		PlacedBy:             o.PlacedBy,
		BusinessName:         o.BusinessName,
		OrderPlacerName:      o.OrderPlacerName,
		PhoneNumber:          o.PhoneNumber,
		ExpectedDeliveryDate: delivery,
		Status:               o.Status,
		AllowedNext:          o.Status.AllowedNext(),
		CurrentStage:         domain.CurrentStageIndex(o.Tracking),
		Items:                items,
		Tracking:             tracking,
		CreatedAt:            o.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:            o.UpdatedAt.UTC().Format(timeLayout),
	}
}

func toOrderListResponse(orders []*domain.Order, filter repository.OrderFilter) gin.H {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return gin.H{
		"orders": out,
		"count":  len(out),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
}

// parseOrderID reads the :id path parameter, writing a 400 when it is not a UUID
func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}

// parseListFilter reads status, limit and offset query parameters
func parseListFilter(c *gin.Context) (repository.OrderFilter, bool) {
	filter := repository.OrderFilter{Status: domain.OrderStatus(c.Query("status"))}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return filter, false
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return filter, false
		}
		filter.Offset = n
	}
	return repository.NormalizeFilter(filter), true
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation *errors.ErrValidation
		limit      *errors.ErrAdmissionLimitExceeded
		transition *errors.ErrInvalidStateTransition
		state      *errors.ErrInvalidState
		conflict   *errors.ErrConflict
		notFound   *errors.ErrNotFound
		unauth     *errors.ErrUnauthorized
		forbidden  *errors.ErrForbidden
	)

	switch {
	case stderrors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  validation.Error(),
			"fields": validation.Fields,
		})
	case stderrors.As(err, &limit):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":  limit.Error(),
			"active": limit.Active,
			"limit":  limit.Limit,
		})
	case stderrors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error":   transition.Error(),
			"from":    transition.From,
			"to":      transition.To,
			"allowed": transition.From.AllowedNext(),
		})
	case stderrors.As(err, &state):
		c.JSON(http.StatusConflict, gin.H{"error": state.Error(), "status": state.Status})
	case stderrors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case stderrors.As(err, &unauth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauth.Error()})
	case stderrors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	default:
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
