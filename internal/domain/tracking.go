package domain

import (
	"strings"
	"time"
)

// Fabrication pipeline stage names, in order
const (
	StageOrderPlaced          = "Order Placed"
	StageFabrication          = "Fabrication"
	StageSheetMetalProcessing = "Sheet Metal Processing"
	StageQualityCheck         = "Quality Check"
	StageDispatch             = "Dispatch"
	StageDelivered            = "Delivered"
)

// PipelineStages returns the full fabrication pipeline
func PipelineStages() []string {
	return []string{
		StageOrderPlaced,
		StageFabrication,
		StageSheetMetalProcessing,
		StageQualityCheck,
		StageDispatch,
		StageDelivered,
	}
}

// progression is the forward path a tracked order can be promoted along
var progression = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusInProgress,
	OrderStatusCompleted,
}

// timestampPrecision is the coarsest precision kept by any store (Mongo dates are milliseconds)
const timestampPrecision = time.Millisecond

// Stamp normalizes a timestamp to UTC at storage precision, so a reloaded
// order compares equal to the one that was written
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(timestampPrecision)
}

// NewOrder builds a Pending order seeded with the Order Placed stage
func NewOrder(customerEmail string, items []OrderItem, now time.Time) *Order {
	now = Stamp(now)
	return &Order{
		CustomerEmail: NormalizeEmail(customerEmail),
		Items:         items,
		Status:        OrderStatusPending,
		Tracking:      []TrackingStage{orderPlacedStage(now)},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func orderPlacedStage(createdAt time.Time) TrackingStage {
	planned, actual := createdAt, createdAt
	return TrackingStage{Stage: StageOrderPlaced, PlannedDate: &planned, ActualDate: &actual}
}

// ApplyStatus moves the order to the requested status if the transition table allows it.
// Accepting an order whose tracking has at most one entry installs the full pipeline.
func (o *Order) ApplyStatus(to OrderStatus, now time.Time) bool {
	if !o.Status.CanTransitionTo(to) {
		return false
	}
	from := o.Status
	o.Status = to
	o.UpdatedAt = Stamp(now)

	if from == OrderStatusPending && to == OrderStatusAccepted && len(o.Tracking) <= 1 {
		o.Tracking = o.expandedPipeline()
	}
	return true
}

// expandedPipeline keeps the existing first stage and appends the remaining
// pipeline stages with no dates.
func (o *Order) expandedPipeline() []TrackingStage {
	names := PipelineStages()
	stages := make([]TrackingStage, 0, len(names))
	if len(o.Tracking) == 1 {
		stages = append(stages, CloneTracking(o.Tracking)[0])
	} else {
		stages = append(stages, orderPlacedStage(o.CreatedAt))
	}
	for _, name := range names[1:] {
		stages = append(stages, TrackingStage{Stage: name})
	}
	return stages
}

// ReplaceTracking swaps in a new tracking list and promotes the status when the
// stage completion warrants it. The Order Placed stage keeps its creation dates.
// It returns the status the order held before the call.
func (o *Order) ReplaceTracking(stages []TrackingStage, now time.Time) OrderStatus {
	previous := o.Status
	stages = CloneTracking(stages)
	if len(stages) > 0 && stages[0].Stage == StageOrderPlaced {
		stages[0] = orderPlacedStage(o.CreatedAt)
	}
	o.Tracking = stages
	o.UpdatedAt = Stamp(now)

	if target, ok := DerivedStatus(stages); ok {
		o.promote(target, now)
	}
	return previous
}

// promote walks forward along the transition table until target is reached.
// It never moves backwards and stops at the first disallowed edge.
func (o *Order) promote(target OrderStatus, now time.Time) {
	targetIdx := progressionIndex(target)
	for {
		idx := progressionIndex(o.Status)
		if idx < 0 || targetIdx <= idx {
			return
		}
		if !o.ApplyStatus(progression[idx+1], now) {
			return
		}
	}
}

func progressionIndex(s OrderStatus) int {
	for i, p := range progression {
		if p == s {
			return i
		}
	}
	return -1
}

// DerivedStatus computes the status implied by stage completion.
// A completed last stage means Completed; every earlier stage completed means In Progress.
func DerivedStatus(stages []TrackingStage) (OrderStatus, bool) {
	if len(stages) == 0 {
		return "", false
	}
	last := len(stages) - 1
	if stages[last].IsDone() {
		return OrderStatusCompleted, true
	}
	for _, st := range stages[:last] {
		if !st.IsDone() {
			return "", false
		}
	}
	return OrderStatusInProgress, true
}

// CurrentStageIndex returns the first stage after Order Placed without an actual date,
// or the last stage when every stage is done. It returns -1 for an empty list.
func CurrentStageIndex(stages []TrackingStage) int {
	if len(stages) == 0 {
		return -1
	}
	for i := 1; i < len(stages); i++ {
		if !stages[i].IsDone() {
			return i
		}
	}
	return len(stages) - 1
}
