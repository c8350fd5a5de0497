package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a customer's fabrication order
type Order struct {
	ID                   uuid.UUID
	CustomerEmail        string // stored lower-cased
	PlacedBy             string // account that submitted the order (customer or noter)
	BusinessName         string
	OrderPlacerName      string
	PhoneNumber          string
	ExpectedDeliveryDate *time.Time
	Items                []OrderItem // JSONB
	Status               OrderStatus
	Tracking             []TrackingStage // JSONB
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderItem is a single line of an order. Items carry no identity of their own.
type OrderItem struct {
	ItemCode    string `json:"item_code"`
	ProductName string `json:"product_name"`
	DrawingCode string `json:"drawing_code,omitempty"`
	Revision    string `json:"revision,omitempty"`
	Quantity    int    `json:"quantity"`
}

// TrackingStage is one step of the fabrication pipeline
type TrackingStage struct {
	Stage       string     `json:"stage"`
	PlannedDate *time.Time `json:"planned_date"`
	ActualDate  *time.Time `json:"actual_date"`
}

// IsDone reports whether the stage has an actual completion date
func (t TrackingStage) IsDone() bool {
	return t.ActualDate != nil
}

// OrderEvent tracks order lifecycle events
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// IdempotencyKey stores idempotency information for order placement
type IdempotencyKey struct {
	Key          string
	AccountEmail string
	OrderID      uuid.UUID
	RequestHash  string
	CreatedAt    time.Time
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.ExpectedDeliveryDate != nil {
		d := *o.ExpectedDeliveryDate
		c.ExpectedDeliveryDate = &d
	}
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Tracking = CloneTracking(o.Tracking)
	return &c
}

// CloneTracking deep-copies a tracking list including its date pointers
func CloneTracking(stages []TrackingStage) []TrackingStage {
	if stages == nil {
		return nil
	}
	out := make([]TrackingStage, len(stages))
	for i, st := range stages {
		out[i] = TrackingStage{Stage: st.Stage}
		if st.PlannedDate != nil {
			d := *st.PlannedDate
			out[i].PlannedDate = &d
		}
		if st.ActualDate != nil {
			d := *st.ActualDate
			out[i].ActualDate = &d
		}
	}
	return out
}
