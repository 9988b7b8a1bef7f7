package enum

// Order lifecycle (CHECK constrained in DB).

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Table occupancy (CHECK constrained in DB).

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
)

// ActiveStatuses is the default set of order statuses that keep a table
// occupied. Whether "ready" belongs in the set is configurable per
// deployment; the completed-order purge flow always uses this default.
var ActiveStatuses = []string{OrderStatusPending, OrderStatusPreparing}

// ActiveStatusesWithReady additionally counts orders waiting for pickup.
var ActiveStatusesWithReady = []string{OrderStatusPending, OrderStatusPreparing, OrderStatusReady}

// IsTerminal reports whether an order can no longer change status.
func IsTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// IsValidOrderStatus reports whether s is one of the five order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsValidTableStatus reports whether s is a known table status.
func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}
