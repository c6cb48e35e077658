package opayhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lighthub/lighthub/internal/integrations/payment"
	"github.com/pkg/errors"
)

// Client talks to the external payment gateway emulator.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type authRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type authResponse struct {
	Reference   string    `json:"reference"`
	Approved    bool      `json:"approved"`
	AuthCode    string    `json:"auth_code"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (c *Client) Authorize(ctx context.Context, reference string, amount int64) (payment.AuthResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return payment.AuthResult{}, errors.Wrap(err, "parse base url")
	}
	u.Path = "/v1/authorize"
	q := u.Query()
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()

	body, err := json.Marshal(authRequest{
		Reference: reference,
		Amount:    amount,
		Currency:  "NGN",
	})
	if err != nil {
		return payment.AuthResult{}, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return payment.AuthResult{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return payment.AuthResult{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return payment.AuthResult{}, fmt.Errorf("payment gateway rate limit (429)")
	}
	if resp.StatusCode/100 != 2 {
		return payment.AuthResult{}, fmt.Errorf("payment gateway http %d", resp.StatusCode)
	}

	var rb authResponse
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return payment.AuthResult{}, errors.Wrap(err, "decode")
	}

	return payment.AuthResult{
		Reference:   rb.Reference,
		Approved:    rb.Approved,
		AuthCode:    rb.AuthCode,
		ProcessedAt: rb.ProcessedAt,
	}, nil
}
