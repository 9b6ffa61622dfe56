package cityapi

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

const (
	defaultTimeout          = 15 * time.Second
	defaultMaxResponseBytes = 1 << 20
)

// Client talks to the city backend's REST API. The zero value is not usable;
// construct with New.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("base url is required")
	}
	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchCityOverview returns the full agent roster with credits and resource
// holdings. The result replaces any previously cached roster wholesale.
func (c *Client) FetchCityOverview(ctx context.Context, city string) (CityOverview, error) {
	var out CityOverview
	path := "/city/overview?city=" + url.QueryEscape(strings.TrimSpace(city))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return CityOverview{}, err
	}
	return out, nil
}

func (c *Client) TransferResource(ctx context.Context, fromID, toID int, resourceType string, quantity int) (ActionOutcome, error) {
	payload := map[string]any{
		"from_agent_id": fromID,
		"to_agent_id":   toID,
		"resource_type": resourceType,
		"quantity":      quantity,
	}
	var out ActionOutcome
	if err := c.postJSON(ctx, "/city/transfer", payload, &out); err != nil {
		return ActionOutcome{}, err
	}
	return out, nil
}

func (c *Client) FetchJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	if err := c.getJSON(ctx, "/work/jobs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckIn(ctx context.Context, jobID, agentID int) (ActionOutcome, error) {
	payload := map[string]any{"agent_id": agentID}
	var out ActionOutcome
	if err := c.postJSON(ctx, fmt.Sprintf("/work/jobs/%d/checkin", jobID), payload, &out); err != nil {
		return ActionOutcome{}, err
	}
	return out, nil
}

func (c *Client) FetchShopItems(ctx context.Context) ([]ShopItem, error) {
	var out []ShopItem
	if err := c.getJSON(ctx, "/shop/items", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PurchaseItem(ctx context.Context, agentID, itemID int) (ActionOutcome, error) {
	payload := map[string]any{"agent_id": agentID, "item_id": itemID}
	var out ActionOutcome
	if err := c.postJSON(ctx, "/shop/purchase", payload, &out); err != nil {
		return ActionOutcome{}, err
	}
	return out, nil
}

func (c *Client) FetchAgentItems(ctx context.Context, agentID int) ([]OwnedItem, error) {
	var out []OwnedItem
	if err := c.getJSON(ctx, fmt.Sprintf("/shop/agents/%d/items", agentID), &out); err != nil {
		return nil, err
	}
	return out, nil
}
