package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
)

func newTestFetchClient(waits *[]time.Duration) *FetchClient {
	c := NewFetchClient(nil)
	c.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return c
}

func TestFetchWithRetrySucceedsAfterThrottling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"id":"abc"}]}`))
	}))
	defer srv.Close()

	var waits []time.Duration
	client := newTestFetchClient(&waits)

	resp, err := client.FetchWithRetry(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer t"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body) != `{"candidates":[{"id":"abc"}]}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
		t.Fatalf("unexpected waits %v, want %v", waits, want)
	}
}

func TestFetchWithRetryReturnsTransportErrorAfterServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	var waits []time.Duration
	client := newTestFetchClient(&waits)

	_, err := client.FetchWithRetry(context.Background(), srv.URL, nil, 3)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Status != http.StatusBadGateway || transportErr.Body != "upstream down" {
		t.Fatalf("unexpected transport error %+v", transportErr)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Fatalf("expected linear backoff, got %v", waits)
	}
}

func TestFetchWithRetryExhaustedThrottleWrapsThrottleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var waits []time.Duration
	client := newTestFetchClient(&waits)

	_, err := client.FetchWithRetry(context.Background(), srv.URL, nil, 2)
	var throttle *ThrottleError
	if !errors.As(err, &throttle) {
		t.Fatalf("expected ThrottleError in chain, got %v", err)
	}
	if len(waits) != 1 {
		t.Fatalf("expected one wait between two attempts, got %v", waits)
	}
}

func TestFetchWithRetryNetworkErrorIsUnwrappable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var waits []time.Duration
	client := newTestFetchClient(&waits)

	_, err := client.FetchWithRetry(context.Background(), url, nil, 3)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.Err == nil {
		t.Fatalf("expected TransportError wrapping the network error, got %v", err)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %v", waits)
	}
}

func TestWorkableClientListCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/candidates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "100" || q.Get("offset") != "200" || q.Get("state") != "all" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"candidates":[{"id":"1"},{"id":2}],"paging":{"next":"https://x/candidates?since_id=2"}}`))
	}))
	defer srv.Close()

	client := NewWorkableClient(config.WorkableConfig{APIToken: "secret", BaseURL: srv.URL}, nil)
	page, err := client.ListCandidates(context.Background(), 100, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Candidates) != 2 || page.Next == "" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestAPIBaseURLUsesSubdomain(t *testing.T) {
	cfg := config.WorkableConfig{Subdomain: "acme"}
	if got := cfg.APIBaseURL(); got != "https://acme.workable.com/spi/v3" {
		t.Fatalf("unexpected base url %s", got)
	}
}

func TestEllipsizeKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"ééééé", 4, "é..."},
		{"日本語のエラー", 5, "日本..."},
	}
	for _, tc := range cases {
		if got := ellipsize(tc.in, tc.n); got != tc.want {
			t.Fatalf("ellipsize(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestTransportErrorTruncatesMultibyteBody(t *testing.T) {
	err := &TransportError{URL: "x", Status: 502, Body: strings.Repeat("€", 600)}
	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("error message split a rune: %q", msg)
	}
	if !strings.HasSuffix(msg, "...") || strings.Count(msg, "€") != 509 {
		t.Fatalf("expected body cut to 512 runes, got %d euro signs", strings.Count(msg, "€"))
	}
}
