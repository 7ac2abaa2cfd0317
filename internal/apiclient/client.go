// Package apiclient is the Go client for the storefront REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

// Error is a non-2xx answer from the API. Gateway is set when the API passed
// a payment gateway payload through.
type Error struct {
	StatusCode int
	Message    string
	Gateway    json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger

	mu    sync.RWMutex
	token string
}

// New returns a client for the API rooted at baseURL (for example
// http://localhost:8080/api).
func New(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- Auth ---

type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Catalog ---

type ProductQuery struct {
	Keyword  string
	Category string
	Page     int
	PageSize int
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    int              `json:"total"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	path := "/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pricing fetches the server's tax and shipping policy.
func (c *Client) Pricing(ctx context.Context) (pricing.Policy, error) {
	var out pricing.Policy
	if err := c.do(ctx, http.MethodGet, "/pricing", nil, &out); err != nil {
		return pricing.Policy{}, err
	}
	return out, nil
}

// --- Orders & Payment ---

type OrderRequest struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal        `json:"itemsPrice"`
	TaxPrice        decimal.Decimal        `json:"taxPrice"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
}

// InitializeRequest asks the API to open a gateway transaction. A zero Amount
// and an empty Email fall back to the order total and the account email.
type InitializeRequest struct {
	OrderID int64           `json:"orderId"`
	Email   string          `json:"email,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InitializePayment(ctx context.Context, in InitializeRequest) (*paystack.Authorization, error) {
	var out paystack.Authorization
	if err := c.do(ctx, http.MethodPost, "/orders/paystack/initialize", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (*models.Order, error) {
	var out models.Order
	in := map[string]string{"reference": reference}
	if err := c.do(ctx, http.MethodPost, "/orders/paystack/verify", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error   string          `json:"error"`
			Gateway json.RawMessage `json:"gateway"`
		}
		_ = json.Unmarshal(raw, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("API returned an error")
		return &Error{StatusCode: resp.StatusCode, Message: body.Error, Gateway: body.Gateway}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}
