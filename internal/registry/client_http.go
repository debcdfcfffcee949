package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/sentinel"
)

// HTTPClient reaches the registry service over its JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) Property(ctx context.Context, ref id.PropertyRef) (*Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/properties/%s", c.baseURL, ref), nil)
	if err != nil {
		return nil, fmt.Errorf("build property request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: registry returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var prop Property
	if err := json.NewDecoder(resp.Body).Decode(&prop); err != nil {
		return nil, fmt.Errorf("decode property: %w", err)
	}
	return &prop, nil
}

func (c *HTTPClient) MarkTransferred(ctx context.Context, ref id.PropertyRef, transferID id.TransferID) error {
	body, err := json.Marshal(map[string]string{"transfer_id": string(transferID)})
	if err != nil {
		return fmt.Errorf("marshal transfer callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/properties/%s/transferred", c.baseURL, ref), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer callback: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: registry returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	return nil
}
