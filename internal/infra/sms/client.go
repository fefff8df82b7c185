// Package sms holds the adapters for the external SMS gateways. Each adapter
// implements broadcast.Provider.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// APIError is a non-2xx answer from a gateway. Body is kept for the server
// log only.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status %d: %s", e.Provider, e.Status, e.Body)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// postJSON sends payload as JSON and decodes a 2xx answer into out (when
// non-nil). decorate may add auth headers after the body is encoded.
func postJSON(
	ctx context.Context,
	client *http.Client,
	provider string,
	url string,
	payload any,
	out any,
	decorate func(req *http.Request, body []byte) error,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if decorate != nil {
		if err := decorate(req, body); err != nil {
			return fmt.Errorf("%s: sign request: %w", provider, err)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http error: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Provider: provider, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}
