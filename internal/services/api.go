// HTTP transport shared by the catalog clients
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/local2stream/internal/shared"
)

// apiClient performs JSON requests against a catalog API and classifies failures into [shared.CatalogError].
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		headers:    map[string]string{},
	}
}

// do sends body (when non-nil) as JSON and decodes the response into result (when non-nil).
//
// Transport failures and 408/5xx are [shared.KindNetwork], 429 is [shared.KindRateLimited] with the
// Retry-After hint, 401/403 are [shared.KindAuth] and other 4xx are [shared.KindInvalidRequest].
// Context cancellation is returned unwrapped so it is never retried.
func (a *apiClient) do(ctx context.Context, op, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return shared.NewCatalogError(shared.KindInvalidRequest, op, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return shared.NewCatalogError(shared.KindInvalidRequest, op, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return shared.NewCatalogError(shared.KindNetwork, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewCatalogError(shared.KindNetwork, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp, data)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return shared.NewCatalogError(shared.KindInvalidRequest, op, fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

func statusError(op string, resp *http.Response, body []byte) error {
	var kind shared.ErrorKind
	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		kind = shared.KindRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = shared.KindAuth
	case code == http.StatusRequestTimeout || code >= 500:
		kind = shared.KindNetwork
	default:
		kind = shared.KindInvalidRequest
	}

	ce := shared.NewCatalogError(kind, op, errors.New(errorDetail(body)))
	ce.StatusCode = resp.StatusCode
	if kind == shared.KindRateLimited {
		ce.RetryAfter, _ = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return ce
}

// errorDetail extracts a message from Spotify ({"error":{"message"}}) or FastAPI ({"detail"}) error bodies.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return msg
	}
	return "empty response body"
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
