package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/local2stream/internal/shared"
	tu "github.com/desertthunder/local2stream/internal/testing"
)

func TestAPIClient(t *testing.T) {
	t.Run("classifies status codes", func(t *testing.T) {
		tests := []struct {
			name      string
			status    int
			body      string
			kind      shared.ErrorKind
			retryable bool
		}{
			{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, shared.KindRateLimited, true},
			{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad credentials"}}`, shared.KindAuth, false},
			{"forbidden", http.StatusForbidden, ``, shared.KindAuth, false},
			{"bad request", http.StatusBadRequest, `{"detail":"missing q"}`, shared.KindInvalidRequest, false},
			{"not found", http.StatusNotFound, `not here`, shared.KindInvalidRequest, false},
			{"request timeout", http.StatusRequestTimeout, ``, shared.KindNetwork, true},
			{"server error", http.StatusInternalServerError, ``, shared.KindNetwork, true},
			{"bad gateway", http.StatusBadGateway, ``, shared.KindNetwork, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if tt.status == http.StatusTooManyRequests {
						w.Header().Set("Retry-After", "2")
					}
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				err := newAPIClient(server.URL, nil).do(context.Background(), "search", http.MethodGet, "/x", nil, nil)

				var ce *shared.CatalogError
				if !errors.As(err, &ce) {
					t.Fatalf("expected CatalogError, got %v", err)
				}
				if ce.Kind != tt.kind {
					t.Errorf("expected kind %v, got %v", tt.kind, ce.Kind)
				}
				if ce.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, ce.StatusCode)
				}
				if shared.IsRetryable(err) != tt.retryable {
					t.Errorf("expected retryable=%v", tt.retryable)
				}
				if tt.kind == shared.KindRateLimited && ce.RetryAfter != 2*time.Second {
					t.Errorf("expected Retry-After of 2s, got %v", ce.RetryAfter)
				}
			})
		}
	})

	t.Run("error detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"Playlist does not exist"}`))
		}))
		defer server.Close()

		err := newAPIClient(server.URL, nil).do(context.Background(), "add_track", http.MethodPost, "/x", map[string]string{"a": "b"}, nil)
		if err == nil || !strings.Contains(err.Error(), "Playlist does not exist") {
			t.Errorf("expected proxy detail in error, got %v", err)
		}
	})

	t.Run("transport failure is retryable", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset"))}
		err := newAPIClient("http://catalog.invalid", client).do(context.Background(), "search", http.MethodGet, "/x", nil, nil)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected network error, got %v", err)
		}
	})

	t.Run("body read failure is retryable", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		err := newAPIClient("http://catalog.invalid", client).do(context.Background(), "search", http.MethodGet, "/x", nil, nil)
		if !shared.IsRetryable(err) {
			t.Errorf("expected retryable error, got %v", err)
		}
	})

	t.Run("malformed JSON is not retryable", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{not json")), Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		var out map[string]any
		err := newAPIClient("http://catalog.invalid", client).do(context.Background(), "search", http.MethodGet, "/x", nil, &out)
		if !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected invalid request error, got %v", err)
		}
	})

	t.Run("cancelled context is returned as-is", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newAPIClient(server.URL, nil).do(ctx, "search", http.MethodGet, "/x", nil, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if shared.IsRetryable(err) {
			t.Error("cancellation must not be retryable")
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
		ok    bool
	}{
		{"", 0, false},
		{"3", 3 * time.Second, true},
		{"-1", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRetryAfter(tt.value)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseRetryAfter(%q) = %v, %v; want %v, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got, ok := parseRetryAfter(future); !ok || got <= 0 {
		t.Errorf("expected positive delay for HTTP date, got %v", got)
	}
}
