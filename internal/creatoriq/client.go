// Package creatoriq talks to the Creator IQ CRM API: a thin HTTP client
// plus the aggregator that executes resolved operations, walks
// pagination, and normalizes response envelopes.
package creatoriq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/creatordesk/internal/apierr"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   *apierr.RetryPolicy
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   apierr.DefaultRetryPolicy(),
		logger:  logger.With("component", "creatoriq"),
	}
}

// Do issues one CRM request and decodes the JSON object response.
// Transport failures are retried per the default policy; HTTP error
// statuses are classified and returned without retry unless retryable.
func (c *Client) Do(ctx context.Context, method, route string, query url.Values, body map[string]any) (map[string]any, error) {
	var result map[string]any
	err := c.retry.Execute(ctx, func() error {
		data, err := c.doOnce(ctx, method, route, query, body)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	return result, err
}

func (c *Client) doOnce(ctx context.Context, method, route string, query url.Values, body map[string]any) (map[string]any, error) {
	u := c.baseURL + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, apierr.New(apierr.KindDataFormat, "encoding request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, apierr.Classify(err, 0)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Classify(fmt.Errorf("creator iq %s %s: %w", method, route, err), 0)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Classify(fmt.Errorf("creator iq %s %s: reading response: %w", method, route, err), 0)
	}

	c.logger.Debug("crm request",
		"method", method, "route", route, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Errorf("creator iq %s %s: status %d: %s", method, route, resp.StatusCode, truncate(string(raw), 200))
		return nil, apierr.Classify(msg, resp.StatusCode)
	}

	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apierr.New(apierr.KindDataFormat,
			fmt.Sprintf("creator iq %s %s: unexpected response shape", method, route), err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
