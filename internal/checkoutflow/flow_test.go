package checkoutflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/apiclient"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

type fakeAPI struct {
	orders      []apiclient.OrderRequest
	initialized []apiclient.InitializeRequest
	verified    []string

	createErr, initErr, verifyErr error
}

func (a *fakeAPI) CreateOrder(_ context.Context, in apiclient.OrderRequest) (*models.Order, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}
	a.orders = append(a.orders, in)
	return &models.Order{ID: int64(41 + len(a.orders)), TotalPrice: in.TotalPrice, Status: models.StatusPending}, nil
}

func (a *fakeAPI) InitializePayment(_ context.Context, in apiclient.InitializeRequest) (*paystack.Authorization, error) {
	if a.initErr != nil {
		return nil, a.initErr
	}
	a.initialized = append(a.initialized, in)
	return &paystack.Authorization{AuthorizationURL: "https://checkout.paystack.com/abc", AccessCode: "ac", Reference: "abc"}, nil
}

func (a *fakeAPI) VerifyPayment(_ context.Context, reference string) (*models.Order, error) {
	a.verified = append(a.verified, reference)
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return &models.Order{ID: int64(41 + len(a.orders)), IsPaid: true, Status: models.StatusProcessing}, nil
}

type fakeWidget struct {
	opened []paystack.Authorization
	onOpen func(paystack.Authorization) error
}

func (w *fakeWidget) Open(_ context.Context, auth paystack.Authorization) error {
	w.opened = append(w.opened, auth)
	if w.onOpen != nil {
		return w.onOpen(auth)
	}
	return nil
}

type recorder struct {
	success, info, errs []string
	paths               []string
}

func (r *recorder) Success(msg string)   { r.success = append(r.success, msg) }
func (r *recorder) Info(msg string)      { r.info = append(r.info, msg) }
func (r *recorder) Error(msg string)     { r.errs = append(r.errs, msg) }
func (r *recorder) Navigate(path string) { r.paths = append(r.paths, path) }

type harness struct {
	flow    *Flow
	api     *fakeAPI
	widget  *fakeWidget
	rec     *recorder
	cart    *cart.Cart
	storage *cart.FileStorage
	trail   []State
	delays  []time.Duration
	loads   *int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		api:     &fakeAPI{},
		widget:  &fakeWidget{},
		rec:     &recorder{},
		cart:    cart.NewCart(models.CartItem{ProductID: 7, Name: "Kettle", Price: decimal.NewFromInt(1000), Quantity: 2}),
		storage: cart.NewFileStorage(filepath.Join(t.TempDir(), "shop.json")),
		loads:   new(int32),
	}
	require.NoError(t, cart.SaveCart(h.storage, h.cart))

	h.flow = New(Options{
		API:    h.api,
		Widget: h.widget,
		Loader: Once(LoaderFunc(func(context.Context) error {
			atomic.AddInt32(h.loads, 1)
			return nil
		})),
		Notifier:     h.rec,
		Navigator:    h.rec,
		Cart:         h.cart,
		Storage:      h.storage,
		Policy:       pricing.DefaultPolicy(),
		AccountEmail: "account@example.com",
		Logger:       logger,
	})
	h.flow.after = func(d time.Duration, fn func()) {
		h.delays = append(h.delays, d)
		fn()
	}
	h.flow.OnTransition(func(_, to State) { h.trail = append(h.trail, to) })
	return h
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-callback", AwaitingCallback.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestSuccessfulCheckout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	auth, err := h.flow.Submit(ctx, Form{})
	require.NoError(t, err)
	assert.Equal(t, "abc", auth.Reference)
	assert.Equal(t, AwaitingCallback, h.flow.State())

	// The order carries the client-side quote.
	require.Len(t, h.api.orders, 1)
	assert.True(t, decimal.NewFromInt(4650).Equal(h.api.orders[0].TotalPrice))
	assert.Equal(t, "Paystack", h.api.orders[0].PaymentMethod)
	require.Len(t, h.api.initialized, 1)
	assert.Equal(t, "account@example.com", h.api.initialized[0].Email)
	assert.EqualValues(t, 42, h.api.initialized[0].OrderID)

	order, err := h.flow.Complete(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	assert.Equal(t, Succeeded, h.flow.State())
	assert.Equal(t, []State{Initializing, AwaitingWidget, AwaitingCallback, Verifying, Succeeded}, h.trail)

	// Cart cleared in memory and on disk.
	assert.True(t, h.cart.IsEmpty())
	persisted, err := cart.LoadCart(h.storage)
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty())

	assert.Len(t, h.rec.success, 1)
	assert.Equal(t, []string{"/order/42"}, h.rec.paths)
	assert.Equal(t, []time.Duration{DefaultNavigateDelay}, h.delays)
}

func TestSubmitGuards(t *testing.T) {
	h := newHarness(t)
	h.cart.Clear()
	_, err := h.flow.Submit(context.Background(), Form{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, Idle, h.flow.State())

	h = newHarness(t)
	h.flow.opts.AccountEmail = ""
	_, err = h.flow.Submit(context.Background(), Form{Email: "  "})
	assert.ErrorIs(t, err, ErrNoEmail)
	assert.Equal(t, Idle, h.flow.State())
	assert.Empty(t, h.api.orders)
	assert.Empty(t, h.trail)
}

func TestFormEmailWins(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Submit(context.Background(), Form{Email: "form@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "form@example.com", h.api.initialized[0].Email)
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Submit(context.Background(), Form{})
	require.NoError(t, err)

	_, err = h.flow.Submit(context.Background(), Form{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, h.api.orders, 1)
}

func TestCloseCancelsWithoutServerCall(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Submit(context.Background(), Form{})
	require.NoError(t, err)

	require.NoError(t, h.flow.Close())
	assert.Equal(t, Cancelled, h.flow.State())
	assert.Empty(t, h.api.verified)
	assert.Empty(t, h.rec.errs)
	assert.Equal(t, []string{"Payment cancelled"}, h.rec.info)
	assert.False(t, h.cart.IsEmpty())

	// Cancelled is retryable and the script is not loaded again.
	_, err = h.flow.Submit(context.Background(), Form{})
	require.NoError(t, err)
	assert.Equal(t, AwaitingCallback, h.flow.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(h.loads))
}

func TestWidgetReportsBeforeOpenReturns(t *testing.T) {
	h := newHarness(t)
	h.widget.onOpen = func(paystack.Authorization) error {
		_, err := h.flow.Complete(context.Background(), "abc")
		return err
	}

	_, err := h.flow.Submit(context.Background(), Form{})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, h.flow.State())
}

func TestVerifyFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.api.verifyErr = &apiclient.Error{StatusCode: http.StatusBadRequest, Message: "Payment verification failed"}

	_, err := h.flow.Submit(ctx, Form{})
	require.NoError(t, err)
	_, err = h.flow.Complete(ctx, "abc")
	require.Error(t, err)

	assert.Equal(t, Failed, h.flow.State())
	assert.Equal(t, []string{"Payment verification failed"}, h.rec.errs)
	assert.Error(t, h.flow.Err())
	assert.False(t, h.cart.IsEmpty())
	assert.Empty(t, h.rec.paths)
	assert.Len(t, h.api.verified, 1)

	h.api.verifyErr = nil
	_, err = h.flow.Submit(ctx, Form{})
	require.NoError(t, err)
	assert.NoError(t, h.flow.Err())
	_, err = h.flow.Complete(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, Succeeded, h.flow.State())
}

func TestInitializeFailure(t *testing.T) {
	h := newHarness(t)
	h.api.initErr = errors.New("network down")

	_, err := h.flow.Submit(context.Background(), Form{})
	require.Error(t, err)
	assert.Equal(t, Failed, h.flow.State())
	assert.Empty(t, h.widget.opened)
	assert.Equal(t, []State{Initializing, Failed}, h.trail)
}

func TestEmptyReferenceFails(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Submit(context.Background(), Form{})
	require.NoError(t, err)

	_, err = h.flow.Complete(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoReference)
	assert.Equal(t, Failed, h.flow.State())
	assert.Empty(t, h.api.verified)
}

func TestCompleteOutsideWidgetIsInvalid(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Complete(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, h.flow.Close(), ErrInvalidTransition)
	assert.Equal(t, Idle, h.flow.State())
}

func TestOnceLoaderRetriesUntilSuccess(t *testing.T) {
	calls := 0
	l := Once(LoaderFunc(func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("offline")
		}
		return nil
	}))

	assert.Error(t, l.Load(context.Background()))
	assert.False(t, l.Loaded())
	assert.NoError(t, l.Load(context.Background()))
	assert.NoError(t, l.Load(context.Background()))
	assert.True(t, l.Loaded())
	assert.Equal(t, 2, calls)
}

func TestFetchScript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/inline.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("window.PaystackPop = {};"))
	}))
	defer server.Close()

	assert.NoError(t, FetchScript(server.Client(), server.URL+"/v1/inline.js").Load(context.Background()))
	assert.Error(t, FetchScript(server.Client(), server.URL+"/missing.js").Load(context.Background()))
}
