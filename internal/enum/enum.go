package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew                 = "NEW"
	OrderStatusPendingVerification = "PENDING_VERIFICATION"
	OrderStatusPreparing           = "PREPARING"
	OrderStatusDone                = "DONE"
	OrderStatusCancelled           = "CANCELLED"
)

// ── Group B: Catalog and checkout shapes (CHECK constrained in DB) ──

const (
	FulfillmentPickup   = "pickup"
	FulfillmentDelivery = "delivery"
)

const (
	SelectionSingle = "single"
	SelectionMulti  = "multi"
)

const (
	PaymentMethodEBirr    = "E_BIRR"
	PaymentMethodTelebirr = "TELEBIRR"
	PaymentMethodCBE      = "CBE"
)

const (
	AdminRoleOwner = "OWNER"
	AdminRoleStaff = "STAFF"
)

// ── Group C: Event types (no DB constraint) ──

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusPendingVerification, OrderStatusPreparing,
		OrderStatusDone, OrderStatusCancelled:
		return true
	}
	return false
}

func IsSelectionType(s string) bool {
	return s == SelectionSingle || s == SelectionMulti
}

func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodEBirr, PaymentMethodTelebirr, PaymentMethodCBE:
		return true
	}
	return false
}
