package notification

import (
	"context"
	"time"

	"github.com/fabworks/orderapi/internal/domain"
)

// EmailMessage is a rendered email ready to send
type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
}

// EmailSender delivers emails
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// MessageSender delivers short chat messages (WhatsApp)
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) error
}

// EventPublisher streams order lifecycle events to downstream systems
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEventMessage) error
}

// OrderEventMessage is the envelope published for each order event
type OrderEventMessage struct {
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	OrderID    string             `json:"order_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Data       OrderEventSnapshot `json:"data"`
}

// OrderEventSnapshot is the order state carried by an event
type OrderEventSnapshot struct {
	CustomerEmail string                 `json:"customer_email"`
	Status        domain.OrderStatus     `json:"status"`
	Items         []domain.OrderItem     `json:"items"`
	Tracking      []domain.TrackingStage `json:"tracking"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
