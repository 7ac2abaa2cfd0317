// Package checkout owns the order lifecycle: placing an order, starting a
// gateway transaction for it and reconciling the gateway's verdict.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/events"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/01moynul/storefront-golang/internal/store"
)

// Gateway is the part of the payment provider the service talks to.
type Gateway interface {
	Initialize(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// Caller identifies the authenticated user making a request.
type Caller struct {
	UserID  int64
	IsAdmin bool
}

func (c Caller) owns(o *models.Order) bool {
	return o.UserID == c.UserID
}

type Service struct {
	orders      store.Orders
	users       store.Users
	gateway     Gateway
	publisher   events.Publisher
	callbackURL string
	logger      *logrus.Logger
	now         func() time.Time
}

func NewService(orders store.Orders, users store.Users, gateway Gateway, publisher events.Publisher, callbackURL string, logger *logrus.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		orders:      orders,
		users:       users,
		gateway:     gateway,
		publisher:   publisher,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateOrderInput is a client-priced order. TotalPrice is optional; when set
// it must equal the sum of the other three components.
type CreateOrderInput struct {
	Items           []models.OrderItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ItemsPrice      decimal.Decimal
	TaxPrice        decimal.Decimal
	ShippingPrice   decimal.Decimal
	TotalPrice      *decimal.Decimal
}

func (s *Service) CreateOrder(ctx context.Context, caller Caller, in CreateOrderInput) (*models.Order, error) {
	// 1. --- Validate the cart snapshot ---
	if len(in.Items) == 0 {
		return nil, apperr.Validation("No order items")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 || item.Price.IsNegative() {
			return nil, apperr.Validation("Invalid order item")
		}
	}
	if in.ItemsPrice.IsNegative() || in.TaxPrice.IsNegative() || in.ShippingPrice.IsNegative() {
		return nil, apperr.Validation("Prices must not be negative")
	}

	// 2. --- Check or derive the total ---
	total := pricing.Total(in.ItemsPrice, in.TaxPrice, in.ShippingPrice)
	if in.TotalPrice != nil {
		if !pricing.ValidTotal(in.ItemsPrice, in.TaxPrice, in.ShippingPrice, *in.TotalPrice) {
			return nil, apperr.Validation("Total price does not match items, tax and shipping")
		}
		total = *in.TotalPrice
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "Paystack"
	}

	// 3. --- Persist as unpaid and pending ---
	now := s.now().UTC()
	order := &models.Order{
		UserID:          caller.UserID,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      in.ItemsPrice,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      total,
		IsPaid:          false,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create order: %w", err))
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  caller.UserID,
		"total":    order.TotalPrice.String(),
	}).Info("Order created")
	s.publish(ctx, events.OrderCreated, order)

	return order, nil
}

// InitializeInput starts payment for an order. Email and Amount fall back to
// the account email and the order total when empty. A non-zero Amount must
// equal the order total in minor units.
type InitializeInput struct {
	OrderID int64
	Email   string
	Amount  decimal.Decimal
}

func (s *Service) InitializePayment(ctx context.Context, caller Caller, in InitializeInput) (*paystack.Authorization, error) {
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !caller.owns(order) {
		return nil, apperr.Forbidden("Not authorized to pay for this order")
	}
	if order.IsPaid {
		return nil, apperr.Validation("Order is already paid")
	}

	email := in.Email
	if email == "" {
		user, err := s.users.GetUserByID(ctx, caller.UserID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("load payer: %w", err))
		}
		email = user.Email
	}

	if in.Amount.IsNegative() {
		return nil, apperr.Validation("Amount must not be negative")
	}
	amount := pricing.ToMinorUnits(order.TotalPrice)
	if !in.Amount.IsZero() && pricing.ToMinorUnits(in.Amount) != amount {
		s.logger.WithFields(logrus.Fields{
			"order_id":  order.ID,
			"requested": pricing.ToMinorUnits(in.Amount),
			"expected":  amount,
		}).Warn("Rejected payment amount that differs from order total")
		return nil, apperr.Validation("Amount does not match order total")
	}

	auth, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      amount,
		CallbackURL: s.callbackURL,
		Metadata:    map[string]string{"orderId": strconv.FormatInt(order.ID, 10)},
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	return auth, nil
}

// VerifyPayment confirms a transaction with the gateway and marks its order
// paid. Repeating it for a paid order returns the order unchanged.
func (s *Service) VerifyPayment(ctx context.Context, caller Caller, reference string) (*models.Order, error) {
	if reference == "" {
		return nil, apperr.Validation("Payment reference is required")
	}

	// 1. --- Ask the gateway ---
	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, gatewayError(err)
	}
	if !tx.Successful() {
		s.logger.WithFields(logrus.Fields{
			"reference": reference,
			"status":    tx.Status,
		}).Warn("Payment not successful")
		return nil, apperr.Validation("Payment verification failed")
	}

	// 2. --- Find the order it paid for ---
	orderID, err := tx.OrderID()
	if err != nil {
		return nil, apperr.Validation("Invalid payment metadata")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.owns(order) && !caller.IsAdmin {
		return nil, apperr.Forbidden("Not authorized to verify this order")
	}
	if tx.Amount != pricing.ToMinorUnits(order.TotalPrice) {
		s.logger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"paid":     tx.Amount,
			"expected": pricing.ToMinorUnits(order.TotalPrice),
		}).Warn("Paid amount differs from order total")
	}

	// 3. --- Record the payment once ---
	paidAt := s.now().UTC()
	if t, err := time.Parse(time.RFC3339, tx.PaidAt); err == nil {
		paidAt = t.UTC()
	}
	result := models.PaymentResult{
		Reference:    tx.Reference,
		Status:       tx.Status,
		UpdateTime:   tx.PaidAt,
		EmailAddress: tx.Customer.Email,
	}
	if result.Reference == "" {
		result.Reference = reference
	}

	applied, err := s.orders.MarkPaid(ctx, order.ID, paidAt, result)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("mark order paid: %w", err))
	}

	order, err = s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if applied {
		s.logger.WithFields(logrus.Fields{
			"order_id":  order.ID,
			"reference": result.Reference,
		}).Info("Order paid")
		s.publish(ctx, events.OrderPaid, order)
	}
	return order, nil
}

// GetOrder returns an order visible to the caller.
func (s *Service) GetOrder(ctx context.Context, caller Caller, id int64) (*models.Order, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.owns(order) && !caller.IsAdmin {
		return nil, apperr.Forbidden("Not authorized to view this order")
	}
	return order, nil
}

func (s *Service) MyOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

func (s *Service) AllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// UpdateStatus moves an order to status. Delivered and Cancelled orders are final.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid order status")
	}
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, apperr.Validation(fmt.Sprintf("Order is already %s", order.Status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrFinalStatus) {
			// Another update finalized the order after it was loaded.
			if order, loadErr := s.loadOrder(ctx, id); loadErr == nil {
				return nil, apperr.Validation(fmt.Sprintf("Order is already %s", order.Status))
			}
			return nil, apperr.Validation("Order status is final")
		}
		return nil, storeError(err, "Order not found")
	}
	order, err = s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderStatusChanged, order)
	return order, nil
}

func (s *Service) loadOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeError(err, "Order not found")
	}
	return order, nil
}

func (s *Service) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("Failed to publish order event")
	}
}

func storeError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(err)
}

// gatewayError classifies a gateway failure as upstream, keeping the
// gateway's response body when there is one.
func gatewayError(err error) error {
	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) {
		return apperr.Upstream(apiErr.Message, apiErr.Body, err)
	}
	return apperr.Upstream("Payment gateway unavailable", nil, err)
}
