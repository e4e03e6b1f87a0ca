package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client talks to the warehouse inventory API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
}

func NewClient(baseURL string, rps int, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
	}
}

// NameRecord is a nested author or genre object.
type NameRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookRecord matches the warehouse GET /books payload.
type BookRecord struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Authors []NameRecord    `json:"author"`
	Summary string          `json:"summary"`
	Genres  []NameRecord    `json:"genre"`
	Price   decimal.Decimal `json:"price"`
	Mark    float64         `json:"mark"`
}

// OrderItemPayload is one line of an order submission.
type OrderItemPayload struct {
	ID       int64  `json:"id"`
	Book     string `json:"book"`
	Quantity int    `json:"quantity"`
}

// OrderPayload matches the warehouse POST /orders/ body.
type OrderPayload struct {
	ID           string             `json:"id"`
	CustomerMail string             `json:"customer_mail"`
	CustomerName string             `json:"customer_name"`
	OrderDate    string             `json:"order_date"` // 2006-01-02
	OrderItems   []OrderItemPayload `json:"order_items"`
}

// ListBooks fetches the full warehouse catalog. Transient failures (5xx, 429)
// are retried with exponential backoff.
func (c *Client) ListBooks(ctx context.Context) ([]BookRecord, error) {
	var books []BookRecord
	if err := c.get(ctx, c.baseURL+"/books", &books); err != nil {
		return nil, err
	}
	return books, nil
}

// CreateOrder submits an order. It is deliberately not retried here: the
// caller branches on the returned status code, and the warehouse answers a
// resubmitted order id with 200 and the stored order.
func (c *Client) CreateOrder(ctx context.Context, o OrderPayload) (int, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return 0, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, url string, target interface{}) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}
