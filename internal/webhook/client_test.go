package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestSendSuccess(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL}, testPolicy())
	err := client.Send(context.Background(), map[string]any{"exit_code": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received["exit_code"] != float64(0) {
		t.Errorf("payload exit_code = %v, want 0", received["exit_code"])
	}
}

func TestSendBearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer sekrit" {
			t.Errorf("authorization = %q, want %q", auth, "Bearer sekrit")
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, AuthType: "bearer", AuthToken: "sekrit"}, testPolicy())
	if err := client.Send(context.Background(), struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL}, testPolicy())
	if err := client.Send(context.Background(), struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL}, testPolicy())
	err := client.Send(context.Background(), struct{}{})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL}, testPolicy())
	err := client.Send(context.Background(), struct{}{})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if got := calls.Load(); got != 3 { // initial + 2 retries
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	policy := &RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
		Multiplier:   2.0,
	}

	first := policy.backoff(1)
	if first < 80*time.Millisecond || first > 120*time.Millisecond {
		t.Errorf("backoff(1) = %v, want ~100ms", first)
	}

	// attempt 4 would be 800ms uncapped; jitter keeps it within 10% of the cap
	capped := policy.backoff(4)
	if capped > 330*time.Millisecond {
		t.Errorf("backoff(4) = %v, want <= 330ms", capped)
	}
}
