package service

import "github.com/fabworks/orderapi/internal/domain"

// PlaceOrderRequest represents an order submission
type PlaceOrderRequest struct {
	CustomerEmail        string             `json:"customer_email" validate:"required,email,max=320"`
	BusinessName         string             `json:"business_name" validate:"max=255"`
	OrderPlacerName      string             `json:"order_placer_name" validate:"max=255"`
	PhoneNumber          string             `json:"phone_number" validate:"omitempty,phone10"`
	ExpectedDeliveryDate string             `json:"expected_delivery_date"`
	Items                []OrderItemRequest `json:"items" validate:"required,min=1,dive"`

	// Set by the API layer from the authenticated caller, never from the body
	PlacedBy       string `json:"-"`
	IdempotencyKey string `json:"-"`
	RequestHash    string `json:"-"`
}

// OrderItemRequest is a submitted line item. Any id the client sends is ignored.
type OrderItemRequest struct {
	ItemCode    string `json:"item_code" validate:"required,max=100"`
	ProductName string `json:"product_name" validate:"required,max=255"`
	DrawingCode string `json:"drawing_code" validate:"max=100"`
	Revision    string `json:"revision" validate:"max=50"`
	Quantity    int    `json:"quantity" validate:"min=1"`
}

// TrackingStageInput is one submitted tracking row. Dates are RFC 3339 or YYYY-MM-DD;
// null or an empty string means "not set".
type TrackingStageInput struct {
	Stage       string  `json:"stage"`
	PlannedDate *string `json:"planned_date"`
	ActualDate  *string `json:"actual_date"`
}

// SetTrackingRequest is the body of a tracking replacement
type SetTrackingRequest struct {
	Tracking []TrackingStageInput `json:"tracking"`
}

// SetStatusRequest is the body of a status change
type SetStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}
