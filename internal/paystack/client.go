// Package paystack is a thin adapter over the Paystack transaction API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.paystack.co"

// StatusSuccess is the transaction status Paystack reports for a captured payment.
const StatusSuccess = "success"

// APIError is returned when Paystack answers with a non-2xx status or a
// false envelope status. Body is the raw response, passed through to callers.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, secretKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// InitializeRequest starts a hosted-checkout transaction. Amount is in minor units (kobo).
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Authorization is what the widget needs to open the hosted checkout.
type Authorization struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode"`
	Reference        string `json:"reference"`
}

// Transaction is the subset of a verified transaction the API consumes.
type Transaction struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	PaidAt    string `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
	Metadata json.RawMessage `json:"metadata"`
}

// Successful reports whether the gateway captured the payment.
func (t *Transaction) Successful() bool {
	return t.Status == StatusSuccess
}

var ErrNoOrderID = errors.New("paystack: transaction metadata has no orderId")

// OrderID extracts the orderId from the transaction metadata. Paystack may
// echo metadata either as an object or as a JSON-encoded string, and the id
// itself may come back as a string or a number.
func (t *Transaction) OrderID() (int64, error) {
	raw := bytes.TrimSpace(t.Metadata)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return 0, ErrNoOrderID
		}
		raw = []byte(encoded)
	}

	var meta struct {
		OrderID json.RawMessage `json:"orderId"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &meta) != nil || len(meta.OrderID) == 0 {
		return 0, ErrNoOrderID
	}

	idText := strings.Trim(string(meta.OrderID), `"`)
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoOrderID
	}
	return id, nil
}

// envelope is the wrapper Paystack puts around every response.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a transaction and returns the authorization details unmodified.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*Authorization, error) {
	c.logger.WithFields(logrus.Fields{
		"email":  in.Email,
		"amount": in.Amount,
	}).Info("Initializing Paystack transaction")

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}

	return &Authorization{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

// Verify looks a transaction up by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	c.logger.WithField("reference", reference).Info("Verifying Paystack transaction")

	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"reference": reference,
		"status":    tx.Status,
	}).Info("Received verification from Paystack")
	return &tx, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Paystack: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Paystack response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Paystack returned an error")
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Body: raw}
	}

	return env.Data, nil
}
