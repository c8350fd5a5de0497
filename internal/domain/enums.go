package domain

// OrderStatus represents the lifecycle status of a fabrication order
type OrderStatus string

const (
	// Pending - New order, awaiting an admin decision
	OrderStatusPending OrderStatus = "Pending"
	// Accepted - Admin accepted the order, pipeline installed
	OrderStatusAccepted OrderStatus = "Accepted"
	// Rejected - Admin rejected the order
	OrderStatusRejected OrderStatus = "Rejected"
	// In Progress - Every stage before delivery has been completed
	OrderStatusInProgress OrderStatus = "In Progress"
	// Completed - Order delivered
	OrderStatusCompleted OrderStatus = "Completed"
)

// allowedTransitions is the single source of truth for status changes.
// Statuses missing from the map, or mapped to nothing, are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusAccepted, OrderStatusRejected},
	OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusRejected},
	OrderStatusInProgress: {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusRejected:   {},
}

// AllOrderStatuses lists every status in lifecycle order
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusRejected,
		OrderStatusInProgress,
		OrderStatusCompleted,
	}
}

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == newStatus {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from s in one step
func (s OrderStatus) AllowedNext() []OrderStatus {
	next := allowedTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(allowedTransitions[s]) == 0
}

// AllowsTrackingEdits reports whether tracking stages may be replaced in this status
func (s OrderStatus) AllowsTrackingEdits() bool {
	return s == OrderStatusAccepted || s == OrderStatusInProgress
}

// CountsAsActive reports whether an order in this status occupies an admission slot.
// Rejected orders still count; only completion frees a slot.
func (s OrderStatus) CountsAsActive() bool {
	return s != OrderStatusCompleted
}

// InactiveOrderStatuses are the statuses excluded from the admission count
func InactiveOrderStatuses() []OrderStatus {
	var out []OrderStatus
	for _, s := range AllOrderStatuses() {
		if !s.CountsAsActive() {
			out = append(out, s)
		}
	}
	return out
}

// Order event types written to the audit trail
const (
	EventTypeOrderCreated    = "order_created"
	EventTypeStatusChange    = "status_change"
	EventTypeTrackingUpdated = "tracking_updated"
	EventTypeOrderDeleted    = "order_deleted"
)
