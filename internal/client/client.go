// Package client is a typed Go client for the ordering API. It backs the
// table-side kiosk and is what integration tooling scripts against.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the ordering API over HTTP. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL. httpClient may be nil, in
// which case a client with a 10s timeout is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Order mirrors the API's order representation.
type Order struct {
	ID                  string      `json:"id"`
	TableID             string      `json:"table_id"`
	TableNumber         int32       `json:"table_number"`
	CustomerName        string      `json:"customer_name"`
	Items               []OrderItem `json:"items"`
	Total               string      `json:"total"`
	Status              string      `json:"status"`
	PaymentStatus       string      `json:"payment_status"`
	SpecialInstructions *string     `json:"special_instructions"`
	IsPackage           bool        `json:"is_package"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// OrderItem is a single line in an order.
type OrderItem struct {
	ID         string  `json:"id"`
	MenuItemID *string `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  string  `json:"unit_price"`
	Quantity   int32   `json:"quantity"`
}

// CreateOrderItem is an order line to submit.
type CreateOrderItem struct {
	MenuItemID string `json:"menu_item_id,omitempty"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int32  `json:"quantity"`
}

// CreateOrderInput is a customer order submission.
type CreateOrderInput struct {
	TableNumber         int32             `json:"table_number"`
	CustomerName        string            `json:"customer_name"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`
	IsPackage           bool              `json:"is_package"`
	Items               []CreateOrderItem `json:"items"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// CreateOrder submits a new order.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// myOrdersRetries and myOrdersRetryDelay pace the table-order fetch. A kiosk
// that just submitted an order re-reads immediately, so a couple of quick
// retries paper over transient blips without hammering the API.
const (
	myOrdersRetries    = 2
	myOrdersRetryDelay = 500 * time.Millisecond
)

// MyOrders fetches the orders for one table, retrying transient failures.
// Client errors (4xx) are returned immediately.
func (c *Client) MyOrders(ctx context.Context, tableID string) ([]Order, error) {
	path := "/api/orders?table_id=" + url.QueryEscape(tableID)

	var lastErr error
	for attempt := 0; attempt <= myOrdersRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(myOrdersRetryDelay):
			}
		}

		var orders []Order
		err := c.do(ctx, http.MethodGet, path, nil, &orders)
		if err == nil {
			return orders, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch orders after %d attempts: %w", myOrdersRetries+1, lastErr)
}

// ListOrders fetches orders, optionally filtered by a status set.
func (c *Client) ListOrders(ctx context.Context, statuses ...string) ([]Order, error) {
	path := "/api/orders"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	var orders []Order
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// VerifyLocation checks whether the given coordinates fall inside the
// restaurant's geofence.
func (c *Client) VerifyLocation(ctx context.Context, lat, lon float64) (bool, float64, error) {
	body := map[string]float64{"latitude": lat, "longitude": lon}
	var resp struct {
		Verified bool    `json:"verified"`
		Distance float64 `json:"distance"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/verify-location", body, &resp); err != nil {
		return false, 0, err
	}
	return resp.Verified, resp.Distance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
