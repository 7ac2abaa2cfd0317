// Package events carries order lifecycle notifications to Kafka and the admin live feed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/models"
)

const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published for every order lifecycle change.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    int64              `json:"orderId"`
	UserID     int64              `json:"userId"`
	Status     models.OrderStatus `json:"status"`
	IsPaid     bool               `json:"isPaid"`
	TotalPrice decimal.Decimal    `json:"totalPrice"`
	EventTime  time.Time          `json:"eventTime"`
}

// NewOrderEvent snapshots o under the given event type.
func NewOrderEvent(eventType string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		IsPaid:     o.IsPaid,
		TotalPrice: o.TotalPrice,
		EventTime:  time.Now().UTC(),
	}
}

// Publisher delivers order events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e OrderEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
