package mongo

import (
	"time"

	"github.com/google/uuid"

	"github.com/fabworks/orderapi/internal/domain"
)

// Order ids are stored as their string form so documents stay readable in the shell.

type orderItemDocument struct {
	ItemCode    string `bson:"itemCode"`
	ProductName string `bson:"productName"`
	DrawingCode string `bson:"drawingCode,omitempty"`
	Revision    string `bson:"revision,omitempty"`
	Quantity    int    `bson:"quantity"`
}

type trackingStageDocument struct {
	Stage       string     `bson:"stage"`
	PlannedDate *time.Time `bson:"plannedDate"`
	ActualDate  *time.Time `bson:"actualDate"`
}

type orderDocument struct {
	ID                   string                  `bson:"_id"`
	CustomerEmail        string                  `bson:"customerEmail"`
	PlacedBy             string                  `bson:"placedBy"`
	BusinessName         string                  `bson:"businessName,omitempty"`
	OrderPlacerName      string                  `bson:"orderPlacerName,omitempty"`
	PhoneNumber          string                  `bson:"phoneNumber,omitempty"`
	ExpectedDeliveryDate *time.Time              `bson:"expectedDeliveryDate,omitempty"`
	Items                []orderItemDocument     `bson:"items"`
	OrderStatus          string                  `bson:"orderStatus"`
	Tracking             []trackingStageDocument `bson:"tracking"`
	CreatedAt            time.Time               `bson:"createdAt"`
	UpdatedAt            time.Time               `bson:"updatedAt"`
}

func toOrderDocument(o *domain.Order) orderDocument {
	doc := orderDocument{
		ID:                   o.ID.String(),
		CustomerEmail:        o.CustomerEmail,
		PlacedBy:             o.PlacedBy,
		BusinessName:         o.BusinessName,
		OrderPlacerName:      o.OrderPlacerName,
		PhoneNumber:          o.PhoneNumber,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		Items:                make([]orderItemDocument, len(o.Items)),
		OrderStatus:          string(o.Status),
		Tracking:             toTrackingDocuments(o.Tracking),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
	for i, it := range o.Items {
		doc.Items[i] = orderItemDocument(it)
	}
	return doc
}

func toTrackingDocuments(stages []domain.TrackingStage) []trackingStageDocument {
	out := make([]trackingStageDocument, len(stages))
	for i, st := range stages {
		out[i] = trackingStageDocument(st)
	}
	return out
}

func (d orderDocument) toDomain() (*domain.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	o := &domain.Order{
		ID:                   id,
		CustomerEmail:        d.CustomerEmail,
		PlacedBy:             d.PlacedBy,
		BusinessName:         d.BusinessName,
		OrderPlacerName:      d.OrderPlacerName,
		PhoneNumber:          d.PhoneNumber,
		ExpectedDeliveryDate: utcPtr(d.ExpectedDeliveryDate),
		Items:                make([]domain.OrderItem, len(d.Items)),
		Status:               domain.OrderStatus(d.OrderStatus),
		Tracking:             make([]domain.TrackingStage, len(d.Tracking)),
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}
	for i, it := range d.Items {
		o.Items[i] = domain.OrderItem(it)
	}
	for i, st := range d.Tracking {
		o.Tracking[i] = domain.TrackingStage{
			Stage:       st.Stage,
			PlannedDate: utcPtr(st.PlannedDate),
			ActualDate:  utcPtr(st.ActualDate),
		}
	}
	return o, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type orderEventDocument struct {
	ID        string                 `bson:"_id"`
	OrderID   string                 `bson:"orderId"`
	EventType string                 `bson:"eventType"`
	EventData map[string]interface{} `bson:"eventData,omitempty"`
	CreatedAt time.Time              `bson:"createdAt"`
}

type idempotencyKeyDocument struct {
	Key          string    `bson:"_id"`
	AccountEmail string    `bson:"accountEmail"`
	OrderID      string    `bson:"orderId"`
	RequestHash  string    `bson:"requestHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}
