package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iho/creditledger/internal/adapter/http/dto"
)

// apiError is a non-2xx response from the API.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Body.Error, e.Status, e.Body.Message)
	}
	if e.Body.Error != "" {
		return fmt.Sprintf("%s (status %d)", e.Body.Error, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// apiClient talks to the ledger HTTP API. Transient failures (network errors,
// 429 and 5xx) are retried with exponential backoff for up to retryFor.
type apiClient struct {
	baseURL  string
	token    string
	http     *http.Client
	retryFor time.Duration
}

func newAPIClient(baseURL, token string, timeout, retryFor time.Duration) *apiClient {
	return &apiClient{
		baseURL:  baseURL,
		token:    token,
		http:     &http.Client{Timeout: timeout},
		retryFor: retryFor,
	}
}

// do sends a request and decodes a JSON response into out. headers are added
// to every attempt.
func (c *apiClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if c.retryFor > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 100 * time.Millisecond
		eb.MaxElapsedTime = c.retryFor
		b = eb
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &apiError{Status: resp.StatusCode}
			if json.Unmarshal(raw, &apiErr.Body) != nil {
				apiErr.Body.Error = string(bytes.TrimSpace(raw))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(attempt, backoff.WithContext(b, ctx))
}
