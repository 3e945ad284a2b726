// Package backend is the JSON-over-HTTP client for the remote
// restaurant backend. Every call either succeeds, fails with a
// *secondary.StatusError carrying the HTTP status, or fails with a
// network-level error; callers classify the two differently.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/secondary"
)

// Client implements secondary.BackendClient.
type Client struct {
	baseURL    string
	healthPath string
	http       *http.Client
}

// New creates a backend client. timeout bounds every request issued by
// this client; per-call contexts can shorten it further.
func New(baseURL, healthPath string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		healthPath: healthPath,
		http:       &http.Client{Timeout: timeout},
	}
}

// Ping probes the health endpoint. Any non-2xx answer is an error so
// the reachability monitor treats it as unreachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &secondary.StatusError{Code: resp.StatusCode}
	}
	return nil
}

// SubmitOrder posts an order and decodes the server receipt.
func (c *Client) SubmitOrder(ctx context.Context, payload models.OrderPayload) (*secondary.OrderReceipt, error) {
	var receipt secondary.OrderReceipt
	if err := c.postJSON(ctx, "/api/orders", payload, &receipt); err != nil {
		return nil, err
	}
	if receipt.OrderID == "" {
		return nil, fmt.Errorf("backend acknowledged order without an order id")
	}
	return &receipt, nil
}

// FetchMenu retrieves the live menu.
func (c *Client) FetchMenu(ctx context.Context) ([]models.Category, []models.MenuItem, error) {
	var body struct {
		Categories []models.Category `json:"categories"`
		MenuItems  []models.MenuItem `json:"menu_items"`
	}
	if err := c.getJSON(ctx, "/api/menu", &body); err != nil {
		return nil, nil, err
	}
	return body.Categories, body.MenuItems, nil
}

// PushLocation mirrors a saved location to the server.
func (c *Client) PushLocation(ctx context.Context, loc *models.SavedLocation) error {
	payload := map[string]any{
		"id":         loc.ID,
		"user_id":    loc.UserID,
		"label":      loc.Label,
		"street":     loc.Street,
		"city":       loc.City,
		"latitude":   loc.Latitude,
		"longitude":  loc.Longitude,
		"is_primary": loc.IsPrimary,
	}
	return c.postJSON(ctx, "/api/locations", payload, nil)
}

// DeleteLocation removes a location server-side.
func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/locations/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &secondary.StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
