// Package checkoutflow drives a checkout from the client side: create the
// order, initialize the gateway transaction, open the hosted widget, then
// verify the reference the widget hands back.
package checkoutflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apiclient"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

// DefaultNavigateDelay leaves time for the success notification to show.
const DefaultNavigateDelay = 1500 * time.Millisecond

var (
	ErrEmptyCart         = errors.New("checkoutflow: cart is empty")
	ErrNoEmail           = errors.New("checkoutflow: no email to pay with")
	ErrNoReference       = errors.New("checkoutflow: empty payment reference")
	ErrNotPaid           = errors.New("checkoutflow: order is not paid")
	ErrInvalidTransition = errors.New("checkoutflow: invalid transition")
)

// API is the part of the storefront API the flow calls.
type API interface {
	CreateOrder(ctx context.Context, in apiclient.OrderRequest) (*models.Order, error)
	InitializePayment(ctx context.Context, in apiclient.InitializeRequest) (*paystack.Authorization, error)
	VerifyPayment(ctx context.Context, reference string) (*models.Order, error)
}

// Widget opens the gateway's hosted checkout. The user's outcome comes back
// through Flow.Complete or Flow.Close, possibly before Open returns.
type Widget interface {
	Open(ctx context.Context, auth paystack.Authorization) error
}

type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

type Navigator interface {
	Navigate(path string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

// Form is what the checkout page collects.
type Form struct {
	Email           string
	ShippingAddress models.ShippingAddress
}

type Options struct {
	API       API
	Loader    ScriptLoader
	Widget    Widget
	Notifier  Notifier
	Navigator Navigator

	Cart    *cart.Cart
	Storage cart.Storage
	Policy  pricing.Policy

	// AccountEmail is used when the form leaves the email empty.
	AccountEmail  string
	NavigateDelay time.Duration
	Logger        *logrus.Logger
}

type Flow struct {
	opts  Options
	after func(time.Duration, func())

	mu    sync.Mutex
	state State
	order *models.Order
	auth  *paystack.Authorization
	err   error
	hooks []func(from, to State)
}

func New(opts Options) *Flow {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Loader == nil {
		opts.Loader = LoaderFunc(func(context.Context) error { return nil })
	}
	if opts.NavigateDelay <= 0 {
		opts.NavigateDelay = DefaultNavigateDelay
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Flow{
		opts: opts,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// OnTransition registers fn to run after every state change.
func (f *Flow) OnTransition(fn func(from, to State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fn)
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Order returns the order of the current attempt, if one was created.
func (f *Flow) Order() *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Err returns the error that moved the flow to Failed.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// move switches to `to` when the current state satisfies allowed.
func (f *Flow) move(allowed func(State) bool, to State) error {
	f.mu.Lock()
	from := f.state
	if !allowed(from) {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	f.state = to
	if to != Failed {
		f.err = nil
	}
	hooks := make([]func(from, to State), len(f.hooks))
	copy(hooks, f.hooks)
	f.mu.Unlock()

	f.opts.Logger.WithFields(logrus.Fields{"from": from, "to": to}).Debug("Checkout state changed")
	for _, hook := range hooks {
		hook(from, to)
	}
	return nil
}

func is(states ...State) func(State) bool {
	return func(s State) bool {
		for _, want := range states {
			if s == want {
				return true
			}
		}
		return false
	}
}

// fail records err, moves to Failed and tells the user.
func (f *Flow) fail(err error) error {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()

	_ = f.move(func(State) bool { return true }, Failed)
	f.opts.Notifier.Error(userMessage(err))
	return err
}

func userMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Submit starts a checkout attempt for the cart. Guard failures leave the
// state unchanged; later failures move the flow to Failed.
func (f *Flow) Submit(ctx context.Context, form Form) (*paystack.Authorization, error) {
	// 1. --- Guards ---
	email := strings.TrimSpace(form.Email)
	if email == "" {
		email = f.opts.AccountEmail
	}
	if f.opts.Cart == nil || f.opts.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if email == "" {
		return nil, ErrNoEmail
	}
	if err := f.move(State.CanSubmit, Initializing); err != nil {
		return nil, err
	}

	// 2. --- Create the order from the cart ---
	quote := f.opts.Cart.Quote(f.opts.Policy)
	order, err := f.opts.API.CreateOrder(ctx, apiclient.OrderRequest{
		OrderItems:      f.opts.Cart.OrderItems(),
		ShippingAddress: form.ShippingAddress,
		PaymentMethod:   "Paystack",
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		TotalPrice:      quote.TotalPrice,
	})
	if err != nil {
		return nil, f.fail(err)
	}
	f.mu.Lock()
	f.order = order
	f.mu.Unlock()

	// 3. --- Initialize the gateway transaction ---
	auth, err := f.opts.API.InitializePayment(ctx, apiclient.InitializeRequest{
		OrderID: order.ID,
		Email:   email,
		Amount:  order.TotalPrice,
	})
	if err != nil {
		return nil, f.fail(err)
	}

	// 4. --- Make sure the widget script is loaded ---
	if err := f.opts.Loader.Load(ctx); err != nil {
		return nil, f.fail(err)
	}
	f.mu.Lock()
	f.auth = auth
	f.mu.Unlock()
	if err := f.move(is(Initializing), AwaitingWidget); err != nil {
		return nil, err
	}

	// 5. --- Hand over to the gateway ---
	if err := f.opts.Widget.Open(ctx, *auth); err != nil {
		return nil, f.fail(err)
	}
	// The widget may already have reported back.
	_ = f.move(is(AwaitingWidget), AwaitingCallback)
	return auth, nil
}

// Complete handles the widget's success callback by verifying reference.
func (f *Flow) Complete(ctx context.Context, reference string) (*models.Order, error) {
	if err := f.move(State.widgetOpen, Verifying); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, f.fail(ErrNoReference)
	}

	order, err := f.opts.API.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, f.fail(err)
	}
	if !order.IsPaid {
		return nil, f.fail(ErrNotPaid)
	}

	// Clear and persist the cart.
	f.opts.Cart.Clear()
	if f.opts.Storage != nil {
		if err := cart.SaveCart(f.opts.Storage, f.opts.Cart); err != nil {
			f.opts.Logger.WithError(err).Warn("Failed to persist cleared cart")
		}
	}

	f.mu.Lock()
	f.order = order
	f.mu.Unlock()
	if err := f.move(is(Verifying), Succeeded); err != nil {
		return nil, err
	}

	f.opts.Notifier.Success(fmt.Sprintf("Payment successful! Order #%d confirmed.", order.ID))
	path := fmt.Sprintf("/order/%d", order.ID)
	f.after(f.opts.NavigateDelay, func() { f.opts.Navigator.Navigate(path) })
	return order, nil
}

// Close handles the user dismissing the widget without paying. No server call
// is made and the attempt can be retried.
func (f *Flow) Close() error {
	if err := f.move(State.widgetOpen, Cancelled); err != nil {
		return err
	}
	f.opts.Notifier.Info("Payment cancelled")
	return nil
}
