package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "bhulekh/pkg/domain"
)

// HTTPClient talks to the ledger service over its submit/query API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sends the ledger's API key on every call.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) { c.apiKey = key }
}

// NewHTTPClient builds a ledger client with an explicit timeout so a hung
// ledger call can never outlive the dispatcher's patience.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitResponse struct {
	TxRef       string    `json:"tx_ref"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func (c *HTTPClient) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal anchor submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/anchors", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Receipt{}, fmt.Errorf("%w: ledger returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Receipt{}, fmt.Errorf("anchor submission rejected with %d", resp.StatusCode)
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Receipt{}, fmt.Errorf("decode anchor receipt: %w", err)
	}
	if parsed.ConfirmedAt.IsZero() {
		parsed.ConfirmedAt = time.Now()
	}
	return Receipt{TxRef: parsed.TxRef, ConfirmedAt: parsed.ConfirmedAt}, nil
}

// TransferHistory reads the ledger's view of a property, for verification
// display.
func (c *HTTPClient) TransferHistory(ctx context.Context, propertyRef id.PropertyRef) ([]Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/properties/%s/history", c.baseURL, propertyRef), nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ledger returned %d", ErrUnavailable, resp.StatusCode)
	}

	var receipts []Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipts); err != nil {
		return nil, fmt.Errorf("decode ledger history: %w", err)
	}
	return receipts, nil
}
