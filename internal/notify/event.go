// Package notify publishes order events after they are committed.
package notify

import (
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/google/uuid"
)

// Event is the wire shape shared by every publisher.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	OrderID         int64     `json:"orderId"`
	OrderNumber     string    `json:"orderNumber"`
	Status          string    `json:"status"`
	PreviousStatus  string    `json:"previousStatus,omitempty"`
	Subtotal        string    `json:"subtotal"`
	CustomerName    string    `json:"customerName"`
	FulfillmentType string    `json:"fulfillmentType"`
	PaymentMethod   string    `json:"paymentMethod,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// NewOrderEvent snapshots an order row into an event of the given type.
func NewOrderEvent(typ string, o database.Order) Event {
	occurred := o.UpdatedAt
	if occurred.IsZero() {
		occurred = o.CreatedAt
	}
	return Event{
		ID:              uuid.New(),
		Type:            typ,
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		Subtotal:        database.Money(o.Subtotal),
		CustomerName:    o.CustomerName,
		FulfillmentType: o.FulfillmentType,
		PaymentMethod:   o.PaymentMethod.String,
		OccurredAt:      occurred.UTC(),
	}
}
