// Package payment talks to the external payment provider. The provider is a
// plain JSON-over-HTTP service: one charge endpoint, 2xx means the card went
// through.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gateway charges an account. Implementations decide what a charge costs;
// callers only learn whether it succeeded.
type Gateway interface {
	Charge(ctx context.Context, accountID, email string) error
}

// Client is a Gateway backed by an HTTP payment provider.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

type chargeReq struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

type chargeResp struct {
	Message string `json:"message"`
}

func (c *Client) Charge(ctx context.Context, accountID, email string) error {
	byts, err := json.Marshal(chargeReq{AccountID: accountID, Email: email})
	if err != nil {
		return fmt.Errorf("error marshalling charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(byts))
	if err != nil {
		return fmt.Errorf("error creating charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling payment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// The provider explains declines in the body; pass that along.
	var body chargeResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("charge declined with status %d", resp.StatusCode)
	}

	return fmt.Errorf("charge declined: %s", body.Message)
}
