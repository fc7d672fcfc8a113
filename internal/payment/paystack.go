package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

const kobosPerNaira = 100

var _ Provider = (*PaystackClient)(nil)

type pendingCheckout struct {
	onSuccess SuccessFunc
	onClose   CloseFunc
}

// PaystackClient talks to the Paystack transaction API. Initiate registers the
// transaction server-side; Resolve verifies the outcome when the provider's
// webhook (or the storefront's callback page) reports it, and Abandon settles
// a transaction the shopper walked away from. Each pending transaction is
// settled at most once.
type PaystackClient struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	breaker    *gobreaker.CircuitBreaker[[]byte]

	mu      sync.Mutex
	pending map[string]pendingCheckout
}

func NewPaystackClient(baseURL, secretKey string, httpClient *http.Client) *PaystackClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "paystack",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
	})

	return &PaystackClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		secretKey:  secretKey,
		breaker:    breaker,
		pending:    make(map[string]pendingCheckout),
	}
}

type initializeRequest struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (c *PaystackClient) Initiate(ctx context.Context, cfg Config, onSuccess SuccessFunc, onClose CloseFunc) error {
	body := initializeRequest{
		Reference: cfg.Reference,
		Email:     cfg.PayerEmail,
		Amount:    cfg.Amount * kobosPerNaira,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal initialize request: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload); err != nil {
		return fmt.Errorf("initialize transaction: %w", err)
	}

	c.mu.Lock()
	c.pending[cfg.Reference] = pendingCheckout{onSuccess: onSuccess, onClose: onClose}
	c.mu.Unlock()

	slog.Info("payment initiated", "reference", cfg.Reference, "amount", cfg.Amount)
	return nil
}

// Resolve verifies the transaction with the provider and dispatches the
// success continuation on a confirmed charge, or the close continuation on
// any other verified status.
func (c *PaystackClient) Resolve(ctx context.Context, reference string) error {
	p, ok := c.takePending(reference)
	if !ok {
		return ErrUnknownReference
	}

	raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		// Keep the transaction pending so the webhook retry can settle it.
		c.mu.Lock()
		c.pending[reference] = p
		c.mu.Unlock()
		return fmt.Errorf("verify transaction: %w", err)
	}

	var vr verifyResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		c.mu.Lock()
		c.pending[reference] = p
		c.mu.Unlock()
		return fmt.Errorf("decode verify response: %w", err)
	}

	if vr.Data.Status == "success" {
		slog.Info("payment verified", "reference", reference)
		p.onSuccess(ctx, reference)
		return nil
	}

	slog.Info("payment not successful", "reference", reference, "status", vr.Data.Status)
	p.onClose(ctx)
	return nil
}

// Abandon settles a pending transaction the shopper closed without paying.
func (c *PaystackClient) Abandon(ctx context.Context, reference string) error {
	p, ok := c.takePending(reference)
	if !ok {
		return ErrUnknownReference
	}
	slog.Info("payment abandoned", "reference", reference)
	p.onClose(ctx)
	return nil
}

func (c *PaystackClient) takePending(reference string) (pendingCheckout, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[reference]
	if ok {
		delete(c.pending, reference)
	}
	return p, ok
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call provider: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read provider response: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, raw)
		}
		return raw, nil
	})
}
