package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the delivery status of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ShippingAddress is free text captured at checkout.
type ShippingAddress struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// PaymentResult is the snapshot recorded after a successful gateway verification.
type PaymentResult struct {
	Reference    string `json:"reference"`
	Status       string `json:"status"`
	UpdateTime   string `json:"updateTime"`
	EmailAddress string `json:"emailAddress"`
}

// Order is the model for the 'orders' table
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	Items           []OrderItem     `json:"orderItems" db:"-"`
	ShippingAddress ShippingAddress `json:"shippingAddress" db:"-"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`

	// Snapshotted at creation; never recomputed.
	ItemsPrice    decimal.Decimal `json:"itemsPrice" db:"items_price"`
	TaxPrice      decimal.Decimal `json:"taxPrice" db:"tax_price"`
	ShippingPrice decimal.Decimal `json:"shippingPrice" db:"shipping_price"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`

	IsPaid        bool           `json:"isPaid" db:"is_paid"`
	PaidAt        *time.Time     `json:"paidAt,omitempty" db:"paid_at"`
	PaymentResult *PaymentResult `json:"paymentResult,omitempty" db:"-"`

	Status      OrderStatus `json:"status" db:"status"`
	IsDelivered bool        `json:"isDelivered" db:"is_delivered"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty" db:"delivered_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table.
// Name, price and image are copies taken when the order is placed.
type OrderItem struct {
	ID        int64           `json:"id,omitempty" db:"id"`
	OrderID   int64           `json:"orderId,omitempty" db:"order_id"`
	ProductID int64           `json:"productId" db:"product_id" binding:"required"`
	Name      string          `json:"name" db:"name" binding:"required"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Image     string          `json:"image" db:"image"`
}

// OrderStats aggregates the orders table for the admin dashboard.
type OrderStats struct {
	TotalOrders   int             `json:"totalOrders"`
	PaidOrders    int             `json:"paidOrders"`
	PendingOrders int             `json:"pendingOrders"`
	Revenue       decimal.Decimal `json:"revenue"`
}
